package channel

import (
	"fmt"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/keyrelay/internal/input/key"
)

// Message types.
const (
	TypeKeyDown = "keydown"
	TypeKeyUp   = "keyup"
)

// FlagCombining marks a code point that is a dead-key accent.
const FlagCombining = "combining"

// Record is one outbound key event.
type Record struct {
	// ID is the event id the framework echoes back through its reply.
	ID uint64

	// Event is the raw platform event.
	Event key.Event

	// Character is the resolved character, or 0 when the resolver
	// produced none.
	Character rune
}

// Message is the receiving side's view of an encoded Record.
type Message struct {
	Type           string
	Keymap         string
	EventID        uint64
	KeyCode        int
	ScanCode       uint32
	MetaState      int
	Modifiers      []string
	CodePoint      uint32
	PlainCodePoint uint32
	Combining      bool
	Character      string
	RepeatCount    int
	DeviceID       int
	Source         string
	Key            string
}

// HasCharacter reports whether the message carries a resolved character.
func (m Message) HasCharacter() bool {
	return m.Character != ""
}

// HasModifier reports whether name is among the active modifiers.
func (m Message) HasModifier(name string) bool {
	for _, n := range m.Modifiers {
		if n == name {
			return true
		}
	}
	return false
}

// field is one path/value pair of an outbound message.
type field struct {
	path  string
	value any
}

// Encode builds the JSON message for rec.
func Encode(typ, keymap string, rec Record) ([]byte, error) {
	ev := rec.Event

	flags := []string{}
	if ev.IsCombiningAccent() {
		flags = append(flags, FlagCombining)
	}

	fields := []field{
		{"type", typ},
		{"keymap", keymap},
		{"eventId", rec.ID},
		{"keyCode", int(ev.Key)},
		{"scanCode", ev.ScanCode},
		{"metaState", ev.Modifiers.MetaState()},
		{"modifiers", ev.Modifiers.Names()},
		{"codePoint", ev.PlainCodePoint()},
		{"plainCodePoint", plainCodePoint(ev)},
		{"flags", flags},
	}
	if rec.Character != 0 {
		fields = append(fields, field{"character", string(rec.Character)})
	}
	fields = append(fields,
		field{"repeatCount", ev.RepeatCount},
		field{"deviceId", ev.DeviceID},
		field{"source", ev.Source},
		field{"key", ev.Name()},
	)

	doc := []byte("{}")
	var err error
	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// plainCodePoint is the code point the key produces with Shift released.
func plainCodePoint(ev key.Event) uint32 {
	cp := ev.PlainCodePoint()
	if cp == 0 || !ev.Modifiers.HasShift() {
		return cp
	}
	return uint32(unicode.ToLower(rune(cp)))
}

// DecodeRecord parses an encoded message.
func DecodeRecord(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, ErrMalformedMessage
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Message{}, ErrMalformedMessage
	}

	msg := Message{Type: doc.Get("type").String()}
	if msg.Type != TypeKeyDown && msg.Type != TypeKeyUp {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	id := doc.Get("eventId")
	if !id.Exists() {
		return Message{}, ErrMissingEventID
	}
	msg.EventID = id.Uint()

	msg.Keymap = doc.Get("keymap").String()
	msg.KeyCode = int(doc.Get("keyCode").Int())
	msg.ScanCode = uint32(doc.Get("scanCode").Uint())
	msg.MetaState = int(doc.Get("metaState").Int())
	for _, m := range doc.Get("modifiers").Array() {
		msg.Modifiers = append(msg.Modifiers, m.String())
	}
	msg.CodePoint = uint32(doc.Get("codePoint").Uint())
	msg.PlainCodePoint = uint32(doc.Get("plainCodePoint").Uint())
	for _, f := range doc.Get("flags").Array() {
		if f.String() == FlagCombining {
			msg.Combining = true
		}
	}
	msg.Character = doc.Get("character").String()
	msg.RepeatCount = int(doc.Get("repeatCount").Int())
	msg.DeviceID = int(doc.Get("deviceId").Int())
	msg.Source = doc.Get("source").String()
	msg.Key = doc.Get("key").String()
	return msg, nil
}

// EncodeReply builds the framework's answer to a message.
func EncodeReply(handled bool) []byte {
	doc, _ := sjson.SetBytes([]byte("{}"), "handled", handled)
	return doc
}

// DecodeReply reads a framework answer. An empty reply is not handled.
// A reply without a boolean "handled" is malformed.
func DecodeReply(data []byte) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}
	if !gjson.ValidBytes(data) {
		return false, ErrMalformedReply
	}
	switch handled := gjson.GetBytes(data, "handled"); handled.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.Null:
		if !handled.Exists() {
			return false, fmt.Errorf("%w: no handled field", ErrMalformedReply)
		}
		return false, fmt.Errorf("%w: handled is null", ErrMalformedReply)
	default:
		return false, fmt.Errorf("%w: handled is %s", ErrMalformedReply, handled.Raw)
	}
}
