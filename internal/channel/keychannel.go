package channel

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/keyrelay/internal/logging"
)

// Default names.
const (
	DefaultName   = "keyrelay/keyevent"
	DefaultKeymap = "terminal"
)

// Reply receives the framework's answer to one message. A non-nil err
// means the transport failed and payload is meaningless.
type Reply func(payload []byte, err error)

// Messenger sends messages to the framework.
//
// Implementations must invoke each reply exactly once, on the platform
// loop, in the order the messages were sent. A reply must never run
// before Send returns: the sender records the event only after Send, so
// an early reply acknowledges an event that is not pending yet.
type Messenger interface {
	Send(channel string, message []byte, reply Reply)
}

// ResponseHandler receives per-event verdicts.
type ResponseHandler interface {
	OnKeyEventHandled(id uint64)
	OnKeyEventNotHandled(id uint64)
}

// Stats counts channel traffic.
type Stats struct {
	Sent           uint64
	Replies        uint64
	Failures       uint64
	DroppedReplies uint64
}

// Option configures a KeyEventChannel.
type Option func(*KeyEventChannel)

// WithName sets the channel name.
func WithName(name string) Option {
	return func(c *KeyEventChannel) {
		if name != "" {
			c.name = name
		}
	}
}

// WithKeymap sets the keymap name reported in every message.
func WithKeymap(keymap string) Option {
	return func(c *KeyEventChannel) {
		if keymap != "" {
			c.keymap = keymap
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *KeyEventChannel) {
		if l != nil {
			c.logger = l
		}
	}
}

// KeyEventChannel sends key events over a Messenger.
type KeyEventChannel struct {
	messenger Messenger
	name      string
	keymap    string
	logger    *logging.Logger

	mu      sync.RWMutex
	handler ResponseHandler

	sent     atomic.Uint64
	replies  atomic.Uint64
	failures atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a key event channel over m.
func New(m Messenger, opts ...Option) *KeyEventChannel {
	c := &KeyEventChannel{
		messenger: m,
		name:      DefaultName,
		keymap:    DefaultKeymap,
		logger:    logging.Null(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("channel")
	return c
}

// Name returns the channel name.
func (c *KeyEventChannel) Name() string {
	return c.name
}

// Keymap returns the keymap name.
func (c *KeyEventChannel) Keymap() string {
	return c.keymap
}

// SetResponseHandler sets the handler that receives verdicts. Replies
// arriving while no handler is set are dropped.
func (c *KeyEventChannel) SetResponseHandler(h ResponseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// KeyDown sends a key-down record.
func (c *KeyEventChannel) KeyDown(rec Record) error {
	return c.send(TypeKeyDown, rec)
}

// KeyUp sends a key-up record.
func (c *KeyEventChannel) KeyUp(rec Record) error {
	return c.send(TypeKeyUp, rec)
}

func (c *KeyEventChannel) send(typ string, rec Record) error {
	msg, err := Encode(typ, c.keymap, rec)
	if err != nil {
		return err
	}

	id := rec.ID
	c.sent.Add(1)
	c.messenger.Send(c.name, msg, func(payload []byte, err error) {
		c.onReply(id, payload, err)
	})
	return nil
}

func (c *KeyEventChannel) onReply(id uint64, payload []byte, err error) {
	c.replies.Add(1)

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		c.dropped.Add(1)
		c.logger.Debug("dropping reply for event %d: no response handler", id)
		return
	}

	if err != nil {
		c.failures.Add(1)
		c.logger.WithField("event", id).Error("key event transport failed: %v", err)
		h.OnKeyEventNotHandled(id)
		return
	}

	handled, err := DecodeReply(payload)
	if err != nil {
		c.failures.Add(1)
		c.logger.WithField("event", id).Error("unable to read key event reply: %v", err)
	}
	if handled {
		h.OnKeyEventHandled(id)
	} else {
		h.OnKeyEventNotHandled(id)
	}
}

// Stats returns a snapshot of the counters.
func (c *KeyEventChannel) Stats() Stats {
	return Stats{
		Sent:           c.sent.Load(),
		Replies:        c.replies.Load(),
		Failures:       c.failures.Load(),
		DroppedReplies: c.dropped.Load(),
	}
}
