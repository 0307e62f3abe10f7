package processor

import "sync/atomic"

// IDSource hands out event ids. Ids are strictly increasing and never
// reused within one source.
type IDSource interface {
	Next() uint64
}

// Counter is an IDSource whose first id is 1.
type Counter struct {
	last atomic.Uint64
}

// NewCounter creates a counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next id.
func (c *Counter) Next() uint64 {
	return c.last.Add(1)
}
