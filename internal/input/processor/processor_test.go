package processor

import (
	"errors"
	"testing"

	"github.com/dshills/keyrelay/internal/channel"
	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/input/responder"
	"github.com/dshills/keyrelay/internal/input/textinput"
	"github.com/dshills/keyrelay/internal/platform"
)

type outbound struct {
	msg   channel.Message
	reply channel.Reply
}

// heldMessenger keeps replies until the test answers them.
type heldMessenger struct {
	t    *testing.T
	sent []outbound
}

func (m *heldMessenger) Send(_ string, message []byte, reply channel.Reply) {
	msg, err := channel.DecodeRecord(message)
	if err != nil {
		m.t.Fatalf("DecodeRecord error: %v", err)
	}
	m.sent = append(m.sent, outbound{msg, reply})
}

func (m *heldMessenger) answer(i int, handled bool) {
	m.sent[i].reply(channel.EncodeReply(handled), nil)
}

// surface is the focused view: it hands every event to the processor.
type surface struct {
	proc *KeyProcessor
}

func (s *surface) OnKeyDown(ev key.Event) bool { return s.proc.OnKeyDown(ev) }
func (s *surface) OnKeyUp(ev key.Event) bool   { return s.proc.OnKeyUp(ev) }

type harness struct {
	window    *platform.Window
	messenger *heldMessenger
	proc      *KeyProcessor
	fallback  []key.Event
}

func newHarness(t *testing.T, textInput TextInput) *harness {
	t.Helper()
	h := &harness{
		window:    platform.NewWindow("main", nil),
		messenger: &heldMessenger{t: t},
	}
	ctx := platform.NewWrapper(h.window, "surface")
	ch := channel.New(h.messenger)
	h.proc = New(ctx, ch, textInput, NewCounter())

	h.window.SetFocus(&surface{proc: h.proc})
	h.window.AddFallback(func(ev key.Event) bool {
		h.fallback = append(h.fallback, ev)
		return true
	})
	return h
}

func TestForwardAndHandle(t *testing.T) {
	h := newHarness(t, nil)

	if !h.window.DispatchKeyEvent(key.NewRuneEvent('a', key.ModNone)) {
		t.Fatal("dispatch not handled")
	}
	if len(h.messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(h.messenger.sent))
	}
	msg := h.messenger.sent[0].msg
	if msg.EventID != 1 || msg.Character != "a" || msg.Type != channel.TypeKeyDown {
		t.Errorf("message = %+v", msg)
	}
	if ids := h.proc.Responder().PendingIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("PendingIDs() = %v, want [1]", ids)
	}

	h.messenger.answer(0, true)

	if h.proc.Responder().Pending() != 0 {
		t.Errorf("Pending() = %d after handled reply", h.proc.Responder().Pending())
	}
	if len(h.fallback) != 0 {
		t.Errorf("handled event reached the fallback")
	}
}

func TestDeclinedEventReplaysOnce(t *testing.T) {
	h := newHarness(t, nil)

	ev := key.NewRuneEvent('q', key.ModCtrl)
	h.window.DispatchKeyEvent(ev)
	h.messenger.answer(0, false)

	if len(h.fallback) != 1 || !h.fallback[0].Equals(ev) {
		t.Fatalf("fallback saw %v, want one %v", h.fallback, ev)
	}
	if len(h.messenger.sent) != 1 {
		t.Errorf("replay was forwarded again: %d messages", len(h.messenger.sent))
	}
	if h.proc.Responder().Pending() != 0 {
		t.Errorf("Pending() = %d", h.proc.Responder().Pending())
	}
	if h.proc.Responder().Dispatching() {
		t.Error("guard left raised")
	}
	if st := h.proc.Stats(); st.Forwarded != 1 || st.Passed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestGuardBlocksForwarding(t *testing.T) {
	window := platform.NewWindow("main", nil)
	messenger := &heldMessenger{t: t}
	proc := New(platform.NewWrapper(window, "surface"), channel.New(messenger), nil, NewCounter())
	window.SetFocus(&surface{proc: proc})

	// Offer the replayed event to both entry points from inside the replay.
	var insideReplay []bool
	window.AddFallback(func(ev key.Event) bool {
		insideReplay = append(insideReplay,
			proc.OnKeyDown(ev),
			proc.OnKeyUp(ev.WithAction(key.ActionUp)))
		return true
	})

	window.DispatchKeyEvent(key.NewRuneEvent('z', key.ModNone))
	messenger.answer(0, false)

	if len(insideReplay) != 2 || insideReplay[0] || insideReplay[1] {
		t.Errorf("entry points during replay returned %v, want [false false]", insideReplay)
	}
	if len(messenger.sent) != 1 || proc.Responder().Pending() != 0 {
		t.Errorf("replay forwarded: sent=%d pending=%d", len(messenger.sent), proc.Responder().Pending())
	}
}

func TestTextInputFirstRefusal(t *testing.T) {
	plugin := textinput.NewPlugin()
	conn := textinput.NewConnection("")
	plugin.SetConnection(conn)
	h := newHarness(t, plugin)

	if !h.proc.OnKeyDown(key.NewRuneEvent('h', key.ModNone)) {
		t.Fatal("consumed key reported as not owned")
	}
	if len(h.messenger.sent) != 0 || h.proc.Responder().Pending() != 0 {
		t.Errorf("consumed key was forwarded")
	}
	if conn.Text() != "h" {
		t.Errorf("Text() = %q", conn.Text())
	}

	// Releases skip the text field.
	if !h.proc.OnKeyUp(key.NewRuneEvent('h', key.ModNone).WithAction(key.ActionUp)) {
		t.Fatal("key-up not owned")
	}
	// Keys the field declines are forwarded.
	if !h.proc.OnKeyDown(key.NewSpecialEvent(key.KeyEnter, key.ModNone)) {
		t.Fatal("enter not owned")
	}
	if len(h.messenger.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(h.messenger.sent))
	}
	if h.messenger.sent[0].msg.Type != channel.TypeKeyUp || h.messenger.sent[1].msg.Key != "Enter" {
		t.Errorf("messages = %+v", h.messenger.sent)
	}
	if st := h.proc.Stats(); st.Consumed != 1 || st.Forwarded != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDeadKeyComposition(t *testing.T) {
	h := newHarness(t, nil)

	h.proc.OnKeyDown(key.NewDeadKeyEvent('´', key.ModNone))
	h.proc.OnKeyDown(key.NewRuneEvent('e', key.ModNone))

	if len(h.messenger.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(h.messenger.sent))
	}
	accent, letter := h.messenger.sent[0].msg, h.messenger.sent[1].msg
	if accent.HasCharacter() || !accent.Combining {
		t.Errorf("accent message = %+v", accent)
	}
	if letter.Character != "é" {
		t.Errorf("character = %q, want %q", letter.Character, "é")
	}
	if accent.EventID != 1 || letter.EventID != 2 {
		t.Errorf("ids = %d, %d", accent.EventID, letter.EventID)
	}
}

func TestOutOfOrderReplyPanics(t *testing.T) {
	h := newHarness(t, nil)
	h.proc.OnKeyDown(key.NewRuneEvent('a', key.ModNone))
	h.proc.OnKeyDown(key.NewRuneEvent('b', key.ModNone))

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, responder.ErrOutOfOrder) {
			t.Errorf("recovered %v, want an ordering violation", r)
		}
	}()
	h.messenger.answer(1, true)
}

type failingSender struct {
	handler channel.ResponseHandler
}

func (f *failingSender) KeyDown(channel.Record) error { return errors.New("encode failed") }
func (f *failingSender) KeyUp(channel.Record) error   { return errors.New("encode failed") }
func (f *failingSender) SetResponseHandler(h channel.ResponseHandler) {
	f.handler = h
}

func TestSendFailureIsNotTracked(t *testing.T) {
	s := &failingSender{}
	p := New(platform.NewWrapper(nil, "surface"), s, nil, nil)

	if s.handler == nil {
		t.Fatal("responder not registered as response handler")
	}
	if p.OnKeyDown(key.NewRuneEvent('a', key.ModNone)) {
		t.Error("unsent event reported as owned")
	}
	if p.Responder().Pending() != 0 {
		t.Errorf("Pending() = %d", p.Responder().Pending())
	}
	if st := p.Stats(); st.SendFailures != 1 {
		t.Errorf("SendFailures = %d", st.SendFailures)
	}
}

// loopMessenger answers every message through the looper, after Send has
// returned.
type loopMessenger struct {
	looper  *platform.Looper
	handled func(channel.Message) bool
	t       *testing.T
}

func (m *loopMessenger) Send(_ string, message []byte, reply channel.Reply) {
	msg, err := channel.DecodeRecord(message)
	if err != nil {
		m.t.Fatalf("DecodeRecord error: %v", err)
	}
	if err := m.looper.Post(func() { reply(channel.EncodeReply(m.handled(msg)), nil) }); err != nil {
		m.t.Fatalf("Post error: %v", err)
	}
}

func TestRepliesThroughLooper(t *testing.T) {
	looper := platform.NewLooper(16)
	m := &loopMessenger{
		looper:  looper,
		handled: func(msg channel.Message) bool { return msg.HasCharacter() },
		t:       t,
	}
	window := platform.NewWindow("main", nil)
	p := New(platform.NewWrapper(window, "surface"), channel.New(m), nil, nil)
	window.SetFocus(&surface{proc: p})
	var fallback []key.Event
	window.AddFallback(func(ev key.Event) bool {
		fallback = append(fallback, ev)
		return true
	})

	err := looper.Post(func() {
		window.DispatchKeyEvent(key.NewRuneEvent('a', key.ModNone))
		window.DispatchKeyEvent(key.NewSpecialEvent(key.KeyF1, key.ModNone))
		window.DispatchKeyEvent(key.NewRuneEvent('b', key.ModNone))
	})
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}
	// One dispatch task, then three replies it posted.
	if n := looper.RunPending(); n != 4 {
		t.Errorf("RunPending() = %d, want 4", n)
	}

	if p.Responder().Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", p.Responder().Pending())
	}
	if len(fallback) != 1 || fallback[0].Key != key.KeyF1 {
		t.Errorf("fallback = %v, want only F1", fallback)
	}
	if st := p.Responder().Stats(); st.Handled != 2 || st.NotHandled != 1 {
		t.Errorf("stats = %+v", st)
	}
}

// flakySender fails the next failures sends, then forwards to ch.
type flakySender struct {
	*channel.KeyEventChannel
	failures int
}

func (f *flakySender) KeyDown(rec channel.Record) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("encode failed")
	}
	return f.KeyEventChannel.KeyDown(rec)
}

func TestSendFailureKeepsPendingAccent(t *testing.T) {
	m := &heldMessenger{t: t}
	s := &flakySender{KeyEventChannel: channel.New(m)}
	p := New(platform.NewWrapper(nil, "surface"), s, nil, nil)

	if !p.OnKeyDown(key.NewDeadKeyEvent('´', key.ModNone)) {
		t.Fatal("dead key was not forwarded")
	}
	s.failures = 1
	if p.OnKeyDown(key.NewRuneEvent('e', key.ModNone)) {
		t.Error("unsent event reported as owned")
	}
	if accent, ok := p.Resolver().Pending(); !ok || accent != '´' {
		t.Errorf("Pending() = %q,%v after failed send, want '´'", accent, ok)
	}

	if !p.OnKeyDown(key.NewRuneEvent('e', key.ModNone)) {
		t.Fatal("retried key was not forwarded")
	}
	if len(m.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(m.sent))
	}
	if got := m.sent[1].msg.Character; got != "é" {
		t.Errorf("character = %q, want %q", got, "é")
	}
	if p.Responder().Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", p.Responder().Pending())
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	for want := uint64(1); want <= 3; want++ {
		if got := c.Next(); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	other := NewCounter()
	if other.Next() != 1 {
		t.Error("counters share state")
	}
}
