package responder

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is the sentinel wrapped by OrderError.
var ErrOutOfOrder = errors.New("event response received out of order")

// OrderError reports an acknowledgment that does not match the head of the
// ledger. It is raised with panic, never returned.
type OrderError struct {
	// Head is the id at the front of the ledger.
	Head uint64
	// Got is the id that was acknowledged.
	Got uint64
	// Empty is set when nothing was pending.
	Empty bool
}

func (e *OrderError) Error() string {
	if e.Empty {
		return fmt.Sprintf("%v: id %d acknowledged with no pending events", ErrOutOfOrder, e.Got)
	}
	return fmt.Sprintf("%v: expected id %d, got %d", ErrOutOfOrder, e.Head, e.Got)
}

func (e *OrderError) Unwrap() error {
	return ErrOutOfOrder
}
