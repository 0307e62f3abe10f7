package responder

import (
	"sync/atomic"

	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/logging"
	"github.com/dshills/keyrelay/internal/platform"
)

// DefaultMaxPendingEvents is the depth above which the responder starts
// warning that the framework is not answering.
const DefaultMaxPendingEvents = 1000

// Stats counts responder activity.
type Stats struct {
	Added            uint64
	Handled          uint64
	NotHandled       uint64
	Redispatched     uint64
	RedispatchSkips  uint64
	OverflowWarnings uint64
	PeakDepth        int
}

// Option configures a Responder.
type Option func(*Responder)

// WithMaxPendingEvents sets the overflow warning threshold.
func WithMaxPendingEvents(n int) Option {
	return func(r *Responder) {
		if n > 0 {
			r.maxPending = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Responder) {
		if l != nil {
			r.logger = l
		}
	}
}

// Responder reconciles framework answers with the events they refer to.
type Responder struct {
	ctx         platform.Context
	ledger      *Ledger
	maxPending  int
	dispatching atomic.Bool
	logger      *logging.Logger

	added            atomic.Uint64
	handled          atomic.Uint64
	notHandled       atomic.Uint64
	redispatched     atomic.Uint64
	redispatchSkips  atomic.Uint64
	overflowWarnings atomic.Uint64
	peakDepth        atomic.Int64
}

// New creates a responder that replays declined events through the
// nearest activity above ctx.
func New(ctx platform.Context, opts ...Option) *Responder {
	r := &Responder{
		ctx:        ctx,
		ledger:     NewLedger(),
		maxPending: DefaultMaxPendingEvents,
		logger:     logging.Null(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("responder")
	return r
}

// AddEvent records ev as waiting for an answer under id. ids must be
// distinct from every id still pending.
//
// Past the configured threshold every add logs a warning with the current
// depth. Adds are never refused.
func (r *Responder) AddEvent(id uint64, ev key.Event) {
	depth := r.ledger.Push(id, ev)
	r.added.Add(1)

	for {
		peak := r.peakDepth.Load()
		if int64(depth) <= peak || r.peakDepth.CompareAndSwap(peak, int64(depth)) {
			break
		}
	}

	if depth > r.maxPending {
		r.overflowWarnings.Add(1)
		r.logger.WithField("pending", depth).Warn(
			"there are %d keyboard events that have not yet received a response; are responses being sent?", depth)
	}
}

// OnKeyEventHandled drops the head event; the framework consumed it.
func (r *Responder) OnKeyEventHandled(id uint64) {
	r.ledger.PopFront(id)
	r.handled.Add(1)
}

// OnKeyEventNotHandled drops the head event and replays it through the
// nearest activity with the re-dispatch guard raised.
func (r *Responder) OnKeyEventNotHandled(id uint64) {
	ev := r.ledger.PopFront(id)
	r.notHandled.Add(1)

	activity := platform.FindActivity(r.ctx)
	if activity == nil {
		r.redispatchSkips.Add(1)
		r.logger.Debug("no activity for re-dispatch of event %d", id)
		return
	}

	r.redispatch(activity, ev)
}

// redispatch replays ev with the guard raised for the duration of the call.
func (r *Responder) redispatch(activity platform.Activity, ev key.Event) {
	prev := r.dispatching.Swap(true)
	defer r.dispatching.Store(prev)

	r.redispatched.Add(1)
	activity.DispatchKeyEvent(ev)
}

// Dispatching reports whether a declined event is being replayed right now.
func (r *Responder) Dispatching() bool {
	return r.dispatching.Load()
}

// Pending returns the number of events waiting for an answer.
func (r *Responder) Pending() int {
	return r.ledger.Len()
}

// PendingIDs returns the waiting ids, oldest first.
func (r *Responder) PendingIDs() []uint64 {
	return r.ledger.IDs()
}

// MaxPendingEvents returns the overflow warning threshold.
func (r *Responder) MaxPendingEvents() int {
	return r.maxPending
}

// Stats returns a snapshot of the counters.
func (r *Responder) Stats() Stats {
	return Stats{
		Added:            r.added.Load(),
		Handled:          r.handled.Load(),
		NotHandled:       r.notHandled.Load(),
		Redispatched:     r.redispatched.Load(),
		RedispatchSkips:  r.redispatchSkips.Load(),
		OverflowWarnings: r.overflowWarnings.Load(),
		PeakDepth:        int(r.peakDepth.Load()),
	}
}
