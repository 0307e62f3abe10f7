// Package terminal hosts the input pipeline on a tcell screen.
//
// Terminals report key presses only. The host treats every key event as a
// press and synthesizes the matching release itself.
package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyrelay/internal/input/key"
)

// Source is reported as key.Event.Source for every terminal key.
const Source = "tcell"

// EventType identifies a terminal event.
type EventType uint8

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventInterrupt
)

// Event is a converted terminal event.
type Event struct {
	Type EventType

	// Key is set for EventKey. It is always a press.
	Key key.Event

	// Width and Height are set for EventResize.
	Width, Height int

	// Data is the payload of EventInterrupt.
	Data any
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithDeadKeys reports the given runes as dead-key accents that combine
// with the next character.
func WithDeadKeys(accents []rune) Option {
	return func(t *Terminal) {
		for _, r := range accents {
			t.deadKeys[r] = true
		}
	}
}

// Terminal wraps a tcell screen.
type Terminal struct {
	screen   tcell.Screen
	deadKeys map[rune]bool
	mu       sync.Mutex
}

// NewTerminal creates a terminal on the controlling tty.
func NewTerminal(opts ...Option) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen, opts...), nil
}

// NewTerminalWithScreen creates a terminal on an existing screen, such as a
// tcell.SimulationScreen.
func NewTerminalWithScreen(screen tcell.Screen, opts ...Option) *Terminal {
	t := &Terminal{
		screen:   screen,
		deadKeys: make(map[rune]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

// Shutdown restores the terminal. PollEvent returns false afterwards.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

// Size returns the screen size.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// IsDeadKey reports whether r is configured as a dead-key accent.
func (t *Terminal) IsDeadKey(r rune) bool {
	return t.deadKeys[r]
}

// PollEvent blocks for the next event. It returns false once the screen
// has been shut down.
func (t *Terminal) PollEvent() (Event, bool) {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{}, false
	}
	return t.convertEvent(ev), true
}

// Interrupt wakes PollEvent with an EventInterrupt carrying data.
func (t *Terminal) Interrupt(data any) error {
	return t.screen.PostEvent(tcell.NewEventInterrupt(data))
}

func (t *Terminal) convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		k, ok := t.convertKey(e)
		if !ok {
			return Event{Type: EventNone}
		}
		return Event{Type: EventKey, Key: k}

	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}

	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt, Data: e.Data()}

	default:
		return Event{Type: EventNone}
	}
}

// convertKey turns a tcell key into a key press.
func (t *Terminal) convertKey(e *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(e.Modifiers())

	var ev key.Event
	switch tk := e.Key(); {
	case tk == tcell.KeyRune:
		r := e.Rune()
		if mods.HasCtrl() && r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		ev = key.NewRuneEvent(r, mods)
		if t.deadKeys[r] && !mods.HasCtrl() && !mods.HasAlt() {
			ev.UnicodeChar = uint32(r)&key.CombiningAccentMask | key.CombiningAccent
		}

	case tk >= tcell.KeyCtrlA && tk <= tcell.KeyCtrlZ && !isNamedControl(tk):
		// Ctrl+letter arrives as an ASCII control code.
		ev = key.NewRuneEvent(rune('a'+(tk-tcell.KeyCtrlA)), mods.With(key.ModCtrl))

	default:
		k, ok := keyMap[tk]
		if !ok {
			return key.Event{}, false
		}
		ev = key.NewSpecialEvent(k, mods)
	}

	ev.Source = Source
	ev.Timestamp = e.When()
	return ev, true
}

// isNamedControl reports control codes that have their own key.
func isNamedControl(k tcell.Key) bool {
	switch k {
	case tcell.KeyTab, tcell.KeyEnter, tcell.KeyBackspace:
		return true
	}
	return false
}

var keyMap = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBacktab:    key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
}

// convertMod converts a tcell modifier mask.
func convertMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= key.ModMeta
	}
	return result
}
