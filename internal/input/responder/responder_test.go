package responder

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/logging"
	"github.com/dshills/keyrelay/internal/platform"
)

// fakeActivity records replays and the guard state seen during each one.
type fakeActivity struct {
	responder  *Responder
	dispatched []key.Event
	guardSeen  []bool
	onDispatch func(ev key.Event)
}

func (a *fakeActivity) Parent() platform.Context { return nil }

func (a *fakeActivity) DispatchKeyEvent(ev key.Event) bool {
	a.dispatched = append(a.dispatched, ev)
	if a.responder != nil {
		a.guardSeen = append(a.guardSeen, a.responder.Dispatching())
	}
	if a.onDispatch != nil {
		a.onDispatch(ev)
	}
	return false
}

func newTestResponder(opts ...Option) (*Responder, *fakeActivity) {
	activity := &fakeActivity{}
	r := New(platform.NewWrapper(activity, "surface"), opts...)
	activity.responder = r
	return r, activity
}

func TestFIFOIntegrity(t *testing.T) {
	r, activity := newTestResponder()

	const n = 25
	for id := uint64(1); id <= n; id++ {
		r.AddEvent(id, key.NewRuneEvent('x', key.ModNone))
	}
	for id := uint64(1); id <= n; id++ {
		if r.Pending() != int(n-id+1) {
			t.Fatalf("Pending() = %d before ack %d", r.Pending(), id)
		}
		if id%2 == 0 {
			r.OnKeyEventHandled(id)
		} else {
			r.OnKeyEventNotHandled(id)
		}
	}

	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after %d acks", r.Pending(), n)
	}
	st := r.Stats()
	if st.Added != n || st.Handled != 12 || st.NotHandled != 13 || st.Redispatched != 13 {
		t.Errorf("stats = %+v", st)
	}
	if len(activity.dispatched) != 13 {
		t.Errorf("replays = %d, want 13", len(activity.dispatched))
	}
}

func TestOrderingViolationPanics(t *testing.T) {
	tests := []struct {
		name string
		ack  func(r *Responder, id uint64)
	}{
		{"handled", (*Responder).OnKeyEventHandled},
		{"not handled", (*Responder).OnKeyEventNotHandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, activity := newTestResponder()
			r.AddEvent(10, key.NewRuneEvent('a', key.ModNone))
			r.AddEvent(11, key.NewRuneEvent('b', key.ModNone))

			oe := expectOrderPanic(t, func() { tt.ack(r, 11) })
			if oe.Head != 10 || oe.Got != 11 {
				t.Errorf("OrderError = %+v", oe)
			}
			if len(activity.dispatched) != 0 {
				t.Error("violation triggered a replay")
			}
		})
	}
}

func TestAckWithNothingPendingPanics(t *testing.T) {
	r, _ := newTestResponder()
	expectOrderPanic(t, func() { r.OnKeyEventHandled(1) })
}

func TestRedispatchOnRejection(t *testing.T) {
	r, activity := newTestResponder()

	ev := key.NewRuneEvent('z', key.ModCtrl)
	r.AddEvent(5, ev)

	if r.Dispatching() {
		t.Fatal("guard raised before any replay")
	}
	r.OnKeyEventNotHandled(5)

	if len(activity.dispatched) != 1 {
		t.Fatalf("replays = %d, want exactly 1", len(activity.dispatched))
	}
	if !activity.dispatched[0].Equals(ev) {
		t.Errorf("replayed %#v, want %#v", activity.dispatched[0], ev)
	}
	if !activity.guardSeen[0] {
		t.Error("guard was not raised during the replay")
	}
	if r.Dispatching() {
		t.Error("guard still raised after the replay")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
}

func TestHandledDoesNotRedispatch(t *testing.T) {
	r, activity := newTestResponder()
	r.AddEvent(1, key.NewRuneEvent('a', key.ModNone))
	r.OnKeyEventHandled(1)

	if len(activity.dispatched) != 0 {
		t.Errorf("handled event was replayed")
	}
}

func TestRedispatchSkippedWithoutActivity(t *testing.T) {
	r := New(platform.NewWrapper(nil, "detached"))
	r.AddEvent(1, key.NewRuneEvent('a', key.ModNone))

	r.OnKeyEventNotHandled(1)

	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
	if st := r.Stats(); st.RedispatchSkips != 1 || st.Redispatched != 0 {
		t.Errorf("stats = %+v", st)
	}
	if r.Dispatching() {
		t.Error("guard raised with nothing to dispatch")
	}
}

func TestGuardClearedWhenDispatchPanics(t *testing.T) {
	r, activity := newTestResponder()
	activity.onDispatch = func(key.Event) { panic("boom") }
	r.AddEvent(1, key.NewRuneEvent('a', key.ModNone))

	func() {
		defer func() { _ = recover() }()
		r.OnKeyEventNotHandled(1)
	}()

	if r.Dispatching() {
		t.Error("guard left raised after a panicking dispatch")
	}
}

func TestOverflowDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	r, _ := newTestResponder(WithLogger(logger))

	if r.MaxPendingEvents() != DefaultMaxPendingEvents {
		t.Fatalf("MaxPendingEvents() = %d", r.MaxPendingEvents())
	}

	for id := uint64(1); id <= DefaultMaxPendingEvents; id++ {
		r.AddEvent(id, key.Event{})
	}
	if strings.Contains(buf.String(), "WARN") {
		t.Fatalf("warned at exactly the threshold: %q", buf.String())
	}

	r.AddEvent(DefaultMaxPendingEvents+1, key.Event{})
	r.AddEvent(DefaultMaxPendingEvents+2, key.Event{})

	if r.Pending() != DefaultMaxPendingEvents+2 {
		t.Errorf("Pending() = %d, adds past the threshold were refused", r.Pending())
	}
	out := buf.String()
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "pending=1001") || !strings.Contains(out, "pending=1002") {
		t.Errorf("missing overflow warnings: %q", out)
	}
	st := r.Stats()
	if st.OverflowWarnings != 2 || st.PeakDepth != DefaultMaxPendingEvents+2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWithMaxPendingEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})
	r, _ := newTestResponder(WithMaxPendingEvents(2), WithLogger(logger), WithMaxPendingEvents(0))

	for id := uint64(1); id <= 3; id++ {
		r.AddEvent(id, key.Event{})
	}
	if !strings.Contains(buf.String(), "pending=3") {
		t.Errorf("expected warning at depth 3, got %q", buf.String())
	}
}

func TestPendingIDs(t *testing.T) {
	r, _ := newTestResponder()
	r.AddEvent(3, key.Event{})
	r.AddEvent(4, key.Event{})
	r.OnKeyEventHandled(3)

	ids := r.PendingIDs()
	if len(ids) != 1 || ids[0] != 4 {
		t.Errorf("PendingIDs() = %v, want [4]", ids)
	}
}
