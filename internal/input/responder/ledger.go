package responder

import (
	"sync"

	"github.com/dshills/keyrelay/internal/input/key"
)

// PendingEvent is a raw event waiting for the framework's answer.
type PendingEvent struct {
	ID    uint64
	Event key.Event
}

// compactThreshold is how many consumed slots accumulate before the
// backing slice is compacted.
const compactThreshold = 64

// Ledger is a FIFO of pending events.
//
// The mutex makes it safe to acknowledge from a goroutine other than the
// one that enqueued. Ordering is still the caller's contract.
type Ledger struct {
	mu     sync.Mutex
	events []PendingEvent
	head   int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Push appends an event and returns the new depth.
func (l *Ledger) Push(id uint64, ev key.Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, PendingEvent{ID: id, Event: ev})
	return len(l.events) - l.head
}

// Front returns the oldest pending event.
func (l *Ledger) Front() (PendingEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head >= len(l.events) {
		return PendingEvent{}, false
	}
	return l.events[l.head], true
}

// PopFront removes and returns the head event, which must carry id.
// It panics with *OrderError when the ledger is empty or the head differs.
func (l *Ledger) PopFront(id uint64) key.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head >= len(l.events) {
		panic(&OrderError{Got: id, Empty: true})
	}
	front := l.events[l.head]
	if front.ID != id {
		panic(&OrderError{Head: front.ID, Got: id})
	}

	l.events[l.head] = PendingEvent{}
	l.head++
	l.compact()
	return front.Event
}

// compact reclaims consumed slots. Caller holds mu.
func (l *Ledger) compact() {
	switch {
	case l.head == len(l.events):
		l.events = l.events[:0]
		l.head = 0
	case l.head >= compactThreshold && l.head*2 >= len(l.events):
		n := copy(l.events, l.events[l.head:])
		l.events = l.events[:n]
		l.head = 0
	}
}

// Len returns the number of pending events.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events) - l.head
}

// IDs returns the pending ids, oldest first.
func (l *Ledger) IDs() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]uint64, 0, len(l.events)-l.head)
	for _, pe := range l.events[l.head:] {
		ids = append(ids, pe.ID)
	}
	return ids
}
