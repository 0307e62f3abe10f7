package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Action distinguishes key presses from key releases.
type Action uint8

const (
	// ActionDown is a key press.
	ActionDown Action = iota
	// ActionUp is a key release.
	ActionUp
)

// String returns "down" or "up".
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// Code point flags carried in Event.UnicodeChar.
const (
	// CombiningAccent marks a code point as a dead-key accent that combines
	// with the character typed after it.
	CombiningAccent uint32 = 0x80000000

	// CombiningAccentMask strips CombiningAccent from a code point.
	CombiningAccentMask uint32 = 0x7FFFFFFF
)

// Event represents a single raw platform key event.
//
// Events are values. Once handed to the input pipeline they are never
// modified; re-dispatch replays the exact value that was received.
type Event struct {
	// Action is press or release.
	Action Action

	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// UnicodeChar is the platform code point for this key, possibly
	// flagged with CombiningAccent. Zero means the key produces no
	// character.
	UnicodeChar uint32

	// ScanCode is the hardware scan code, when the platform reports one.
	ScanCode uint32

	// RepeatCount is the auto-repeat count for held keys.
	RepeatCount int

	// DeviceID identifies the input device.
	DeviceID int

	// Source names the platform that produced the event.
	Source string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key-down event with the current timestamp.
func NewEvent(key Key, r rune, mods Modifier) Event {
	ev := Event{
		Key:       key,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
	if key == KeyRune && r > 0 {
		ev.UnicodeChar = uint32(r)
	}
	return ev
}

// NewRuneEvent creates a key-down event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return NewEvent(KeyRune, r, mods)
}

// NewSpecialEvent creates a key-down event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return NewEvent(key, 0, mods)
}

// NewDeadKeyEvent creates a key-down event for a dead key producing the
// given accent. The accent is flagged with CombiningAccent.
func NewDeadKeyEvent(accent rune, mods Modifier) Event {
	ev := NewEvent(KeyRune, accent, mods)
	ev.UnicodeChar = uint32(accent)&CombiningAccentMask | CombiningAccent
	return ev
}

// IsDown reports whether this is a key press.
func (e Event) IsDown() bool {
	return e.Action == ActionDown
}

// IsUp reports whether this is a key release.
func (e Event) IsUp() bool {
	return e.Action == ActionUp
}

// WithAction returns a copy of the event with the given action.
func (e Event) WithAction(a Action) Event {
	e.Action = a
	return e
}

// IsCombiningAccent reports whether the event carries a dead-key accent.
func (e Event) IsCombiningAccent() bool {
	return e.UnicodeChar&CombiningAccent != 0
}

// PlainCodePoint returns UnicodeChar without the combining flag.
func (e Event) PlainCodePoint() uint32 {
	return e.UnicodeChar & CombiningAccentMask
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}

// IsModified returns true if any modifier is pressed.
// For character events, Shift alone is not considered modified
// (since Shift changes the character itself).
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// IsSpecial returns true if this is a special (non-character) key.
func (e Event) IsSpecial() bool {
	return e.Key.IsSpecial()
}

// Name returns the key name used in String and on the wire.
func (e Event) Name() string {
	switch e.Key {
	case KeyRune:
		if e.Rune == ' ' {
			return "Space"
		}
		return string(e.Rune)
	case KeyEscape:
		return "Esc"
	case KeyBackspace:
		return "BS"
	case KeyDelete:
		return "Del"
	case KeyInsert:
		return "Ins"
	case KeyPageUp:
		return "PgUp"
	case KeyPageDown:
		return "PgDn"
	default:
		return e.Key.String()
	}
}

// String returns a canonical string representation.
// Examples: "a", "C-s", "Enter", "S-Tab".
func (e Event) String() string {
	var parts []string

	if e.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "M")
	}
	// Only show Shift for non-character keys
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	parts = append(parts, e.Name())
	return strings.Join(parts, "-")
}

// VimString returns a Vim-style string representation.
// Examples: "<Esc>", "<C-s>", "<C-S-p>", "<CR>", "a", "A"
func (e Event) VimString() string {
	if e.IsRune() && !e.IsModified() {
		if e.Rune == ' ' {
			return "<Space>"
		}
		return string(e.Rune)
	}

	var parts []string
	if e.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "D")
	}
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	var keyName string
	switch e.Key {
	case KeyRune:
		keyName = strings.ToLower(string(e.Rune))
	case KeyEnter:
		keyName = "CR"
	case KeyPageUp:
		keyName = "PageUp"
	case KeyPageDown:
		keyName = "PageDown"
	default:
		keyName = e.Name()
	}

	parts = append(parts, keyName)
	return "<" + strings.Join(parts, "-") + ">"
}

// Equals returns true if two events represent the same key transition.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Action == other.Action &&
		e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers &&
		e.UnicodeChar == other.UnicodeChar
}

// Matches checks if this event matches a key specification string.
// The action is ignored.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Key == parsed.Key && e.Rune == parsed.Rune && e.Modifiers == parsed.Modifiers
}

// IsEscape returns true if this is the Escape key (with no modifiers).
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// IsEnter returns true if this is the Enter key (with no modifiers).
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter && e.Modifiers == ModNone
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Action: %s, Key: %s, Rune: %q, Modifiers: %s, UnicodeChar: %#x}",
		e.Action, e.Key.String(), e.Rune, e.Modifiers.String(), e.UnicodeChar)
}
