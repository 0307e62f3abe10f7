package framework

import (
	"context"
	"sync"

	"github.com/dshills/keyrelay/internal/logging"
)

// Poster runs functions on the host loop.
type Poster interface {
	Post(fn func()) error
}

// outbox is an unbounded FIFO of functions waiting to be posted to the
// host loop. The executor pushes without blocking; one pump goroutine
// posts in order.
type outbox struct {
	mu    sync.Mutex
	items []func()
	wake  chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

func (o *outbox) push(fn func()) {
	o.mu.Lock()
	o.items = append(o.items, fn)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) take() []func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.items
	o.items = nil
	return items
}

// pump posts queued functions until ctx is done.
func (o *outbox) pump(ctx context.Context, poster Poster, logger *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		}

		for _, fn := range o.take() {
			if err := poster.Post(fn); err != nil {
				logger.Warn("dropping framework reply: %v", err)
			}
		}
	}
}
