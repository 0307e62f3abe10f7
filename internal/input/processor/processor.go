package processor

import (
	"sync/atomic"

	"github.com/dshills/keyrelay/internal/channel"
	"github.com/dshills/keyrelay/internal/input/compose"
	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/input/responder"
	"github.com/dshills/keyrelay/internal/logging"
	"github.com/dshills/keyrelay/internal/platform"
)

// TextInput is the first-refusal hook of the active text field.
type TextInput interface {
	TryConsumeRawKeyEvent(ev key.Event) bool
}

// Sender sends key records to the framework.
type Sender interface {
	KeyDown(rec channel.Record) error
	KeyUp(rec channel.Record) error
	SetResponseHandler(h channel.ResponseHandler)
}

// Stats counts processor decisions.
type Stats struct {
	Forwarded    uint64
	Consumed     uint64
	Passed       uint64
	SendFailures uint64
}

// Option configures a KeyProcessor.
type Option func(*KeyProcessor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *KeyProcessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxPendingEvents sets the responder's overflow warning threshold.
func WithMaxPendingEvents(n int) Option {
	return func(p *KeyProcessor) {
		p.maxPending = n
	}
}

// WithResolver replaces the dead-key resolver.
func WithResolver(r *compose.Resolver) Option {
	return func(p *KeyProcessor) {
		if r != nil {
			p.resolver = r
		}
	}
}

// KeyProcessor forwards raw key events to the framework.
//
// OnKeyDown and OnKeyUp must be called from the platform loop, the same
// goroutine that delivers channel replies.
type KeyProcessor struct {
	channel    Sender
	textInput  TextInput
	ids        IDSource
	responder  *responder.Responder
	resolver   *compose.Resolver
	maxPending int
	logger     *logging.Logger

	forwarded    atomic.Uint64
	consumed     atomic.Uint64
	passed       atomic.Uint64
	sendFailures atomic.Uint64
}

// New creates a processor for the surface identified by ctx and registers
// its responder as ch's response handler. textInput may be nil.
func New(ctx platform.Context, ch Sender, textInput TextInput, ids IDSource, opts ...Option) *KeyProcessor {
	p := &KeyProcessor{
		channel:    ch,
		textInput:  textInput,
		ids:        ids,
		resolver:   compose.NewResolver(),
		maxPending: responder.DefaultMaxPendingEvents,
		logger:     logging.Null(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ids == nil {
		p.ids = NewCounter()
	}

	p.responder = responder.New(ctx,
		responder.WithMaxPendingEvents(p.maxPending),
		responder.WithLogger(p.logger),
	)
	p.logger = p.logger.WithComponent("processor")
	ch.SetResponseHandler(p.responder)
	return p
}

// OnKeyDown offers a key press. It returns true when the processor took
// ownership of the event.
func (p *KeyProcessor) OnKeyDown(ev key.Event) bool {
	if p.responder.Dispatching() {
		p.passed.Add(1)
		return false
	}

	if p.textInput != nil && p.textInput.TryConsumeRawKeyEvent(ev) {
		p.consumed.Add(1)
		return true
	}

	return p.forward(ev, p.channel.KeyDown)
}

// OnKeyUp offers a key release. It returns true when the processor took
// ownership of the event.
func (p *KeyProcessor) OnKeyUp(ev key.Event) bool {
	if p.responder.Dispatching() {
		p.passed.Add(1)
		return false
	}

	return p.forward(ev, p.channel.KeyUp)
}

func (p *KeyProcessor) forward(ev key.Event, send func(channel.Record) error) bool {
	rec := channel.Record{ID: p.ids.Next(), Event: ev}
	saved := p.resolver.Snapshot()
	if ch, ok := p.resolver.Resolve(ev.UnicodeChar); ok {
		rec.Character = ch
	}

	if err := send(rec); err != nil {
		// The key never left; a pending accent still applies to the next one.
		p.resolver.Restore(saved)
		p.sendFailures.Add(1)
		p.logger.WithField("event", rec.ID).Error("unable to send key event: %v", err)
		return false
	}
	p.responder.AddEvent(rec.ID, ev)
	p.forwarded.Add(1)
	return true
}

// Responder returns the processor's responder.
func (p *KeyProcessor) Responder() *responder.Responder {
	return p.responder
}

// Resolver returns the processor's dead-key resolver.
func (p *KeyProcessor) Resolver() *compose.Resolver {
	return p.resolver
}

// Stats returns a snapshot of the counters.
func (p *KeyProcessor) Stats() Stats {
	return Stats{
		Forwarded:    p.forwarded.Load(),
		Consumed:     p.consumed.Load(),
		Passed:       p.passed.Load(),
		SendFailures: p.sendFailures.Load(),
	}
}
