package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyrelay/internal/input/key"
)

func newSimTerminal(t *testing.T, opts ...Option) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(screen, opts...)
	if err := term.Init(); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	screen.SetSize(20, 4)
	t.Cleanup(term.Shutdown)
	return term, screen
}

// nextKey polls until a key event arrives.
func nextKey(t *testing.T, term *Terminal) key.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, ok := term.PollEvent()
		if !ok {
			t.Fatal("screen closed")
		}
		if ev.Type == EventKey {
			return ev.Key
		}
	}
	t.Fatal("no key event")
	return key.Event{}
}

func TestKeyConversion(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		ch   rune
		mod  tcell.ModMask
		want key.Event
	}{
		{"rune", tcell.KeyRune, 'a', tcell.ModNone, key.NewRuneEvent('a', key.ModNone)},
		{"space", tcell.KeyRune, ' ', tcell.ModNone, key.NewRuneEvent(' ', key.ModNone)},
		{"alt rune", tcell.KeyRune, 'x', tcell.ModAlt, key.NewRuneEvent('x', key.ModAlt)},
		{"ctrl code", tcell.KeyCtrlQ, 0, tcell.ModCtrl, key.NewRuneEvent('q', key.ModCtrl)},
		{"enter", tcell.KeyEnter, 0, tcell.ModNone, key.NewSpecialEvent(key.KeyEnter, key.ModNone)},
		{"tab", tcell.KeyTab, 0, tcell.ModNone, key.NewSpecialEvent(key.KeyTab, key.ModNone)},
		{"backspace", tcell.KeyBackspace2, 0, tcell.ModNone, key.NewSpecialEvent(key.KeyBackspace, key.ModNone)},
		{"shift arrow", tcell.KeyLeft, 0, tcell.ModShift, key.NewSpecialEvent(key.KeyLeft, key.ModShift)},
		{"function", tcell.KeyF5, 0, tcell.ModNone, key.NewSpecialEvent(key.KeyF5, key.ModNone)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, screen := newSimTerminal(t)
			screen.InjectKey(tt.key, tt.ch, tt.mod)

			got := nextKey(t, term)
			if !got.Equals(tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
			if !got.IsDown() || got.Source != Source {
				t.Errorf("action %v source %q", got.Action, got.Source)
			}
			if got.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
		})
	}
}

func TestDeadKeys(t *testing.T) {
	term, screen := newSimTerminal(t, WithDeadKeys([]rune{'^', '´'}))

	if !term.IsDeadKey('^') || term.IsDeadKey('a') {
		t.Fatal("dead key set not applied")
	}

	screen.InjectKey(tcell.KeyRune, '^', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'e', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, '^', tcell.ModAlt)

	accent := nextKey(t, term)
	if !accent.IsCombiningAccent() || accent.PlainCodePoint() != '^' {
		t.Errorf("accent = %#v", accent)
	}
	if letter := nextKey(t, term); letter.IsCombiningAccent() {
		t.Errorf("plain letter flagged: %#v", letter)
	}
	if alt := nextKey(t, term); alt.IsCombiningAccent() {
		t.Errorf("Alt+accent flagged: %#v", alt)
	}
}

func TestPollResizeAndInterrupt(t *testing.T) {
	term, _ := newSimTerminal(t)

	if err := term.Interrupt("wake"); err != nil {
		t.Fatalf("Interrupt error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, ok := term.PollEvent()
		if !ok {
			t.Fatal("screen closed")
		}
		if ev.Type == EventInterrupt {
			if ev.Data != "wake" {
				t.Errorf("Data = %v", ev.Data)
			}
			return
		}
	}
	t.Fatal("interrupt not delivered")
}

func TestPollAfterShutdown(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(screen)
	if err := term.Init(); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	term.Shutdown()

	done := make(chan bool)
	go func() {
		for {
			ev, ok := term.PollEvent()
			if !ok {
				done <- true
				return
			}
			_ = ev
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PollEvent kept returning after Shutdown")
	}
}

func TestDrawLines(t *testing.T) {
	term, screen := newSimTerminal(t)
	screen.SetSize(6, 2)

	term.DrawLines([]string{"hello world", "ok", "dropped"})

	cells, w, h := screen.GetContents()
	if w != 6 || h != 2 {
		t.Fatalf("size = %dx%d", w, h)
	}
	row := func(y int) string {
		var s []rune
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				s = append(s, ' ')
				continue
			}
			s = append(s, c.Runes[0])
		}
		return string(s)
	}
	if got := row(0); got != "hello " {
		t.Errorf("row 0 = %q", got)
	}
	if got := row(1); got != "ok    " {
		t.Errorf("row 1 = %q", got)
	}
}

func TestWidths(t *testing.T) {
	tests := []struct {
		in    string
		width int
		limit int
		trunc string
	}{
		{"abc", 3, 2, "ab"},
		{"日本", 4, 3, "日"},
		{"éx", 2, 2, "éx"},
		{"", 0, 5, ""},
	}
	for _, tt := range tests {
		if got := StringWidth(tt.in); got != tt.width {
			t.Errorf("StringWidth(%q) = %d, want %d", tt.in, got, tt.width)
		}
		if got := Truncate(tt.in, tt.limit); got != tt.trunc {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.trunc)
		}
	}
}
