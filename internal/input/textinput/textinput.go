// Package textinput gives an active text field first refusal on raw key
// presses before they are forwarded to the framework.
package textinput

import (
	"sync"

	"github.com/dshills/keyrelay/internal/input/key"
)

// Plugin owns the current text-input connection.
type Plugin struct {
	mu        sync.Mutex
	conn      *Connection
	accepting bool
}

// NewPlugin creates a plugin with no connection. It accepts input as soon
// as a connection is set.
func NewPlugin() *Plugin {
	return &Plugin{accepting: true}
}

// SetConnection attaches conn as the active text field.
func (p *Plugin) SetConnection(conn *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
}

// ClearConnection detaches the active text field.
func (p *Plugin) ClearConnection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = nil
}

// Connection returns the active text field, or nil.
func (p *Plugin) Connection() *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

// SetAccepting pauses or resumes raw key consumption.
func (p *Plugin) SetAccepting(accepting bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accepting = accepting
}

// TryConsumeRawKeyEvent offers ev to the active text field and reports
// whether it took the event.
func (p *Plugin) TryConsumeRawKeyEvent(ev key.Event) bool {
	p.mu.Lock()
	conn, accepting := p.conn, p.accepting
	p.mu.Unlock()

	if conn == nil || !accepting {
		return false
	}
	return conn.Consume(ev)
}
