package textinput

import (
	"sync"

	"github.com/dshills/keyrelay/internal/input/key"
)

// Connection is a single-line editable buffer.
type Connection struct {
	mu       sync.Mutex
	text     []rune
	cursor   int
	onChange func(text string, cursor int)
}

// NewConnection creates a connection holding initial text with the cursor
// at the end.
func NewConnection(initial string) *Connection {
	text := []rune(initial)
	return &Connection{text: text, cursor: len(text)}
}

// OnChange registers fn to run after every edit.
func (c *Connection) OnChange(fn func(text string, cursor int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Text returns the buffer contents.
func (c *Connection) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.text)
}

// Cursor returns the cursor position in runes.
func (c *Connection) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Consume applies ev to the buffer and reports whether it was used.
// Only presses are consumed. Enter, Escape and any key combined with
// Ctrl, Alt or Meta are declined so the framework sees them.
func (c *Connection) Consume(ev key.Event) bool {
	if !ev.IsDown() || ev.IsModified() || ev.IsCombiningAccent() {
		return false
	}

	c.mu.Lock()
	changed, ok := c.apply(ev)
	fn := c.onChange
	text, cursor := string(c.text), c.cursor
	c.mu.Unlock()

	if changed && fn != nil {
		fn(text, cursor)
	}
	return ok
}

// apply edits the buffer. Caller holds mu.
func (c *Connection) apply(ev key.Event) (changed, ok bool) {
	switch ev.Key {
	case key.KeyBackspace:
		if c.cursor == 0 {
			return false, true
		}
		c.text = append(c.text[:c.cursor-1], c.text[c.cursor:]...)
		c.cursor--
		return true, true
	case key.KeyDelete:
		if c.cursor == len(c.text) {
			return false, true
		}
		c.text = append(c.text[:c.cursor], c.text[c.cursor+1:]...)
		return true, true
	case key.KeyLeft:
		if c.cursor > 0 {
			c.cursor--
		}
		return true, true
	case key.KeyRight:
		if c.cursor < len(c.text) {
			c.cursor++
		}
		return true, true
	case key.KeyHome:
		c.cursor = 0
		return true, true
	case key.KeyEnd:
		c.cursor = len(c.text)
		return true, true
	case key.KeySpace:
		c.insert(' ')
		return true, true
	case key.KeyRune:
		if !ev.IsChar() {
			return false, false
		}
		c.insert(ev.Rune)
		return true, true
	}
	return false, false
}

func (c *Connection) insert(r rune) {
	c.text = append(c.text, 0)
	copy(c.text[c.cursor+1:], c.text[c.cursor:])
	c.text[c.cursor] = r
	c.cursor++
}
