package platform

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultLooperQueueSize is the task buffer used when none is given.
const DefaultLooperQueueSize = 256

// Looper runs posted tasks one at a time, in post order, on the goroutine
// that calls Run. It is the host's main thread.
//
// Tasks are not recovered: a panic in a task unwinds Run. Input invariants
// that fail by panicking are meant to stop the host.
type Looper struct {
	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	running   atomic.Bool
}

// NewLooper creates a looper with the given queue size.
func NewLooper(queueSize int) *Looper {
	if queueSize <= 0 {
		queueSize = DefaultLooperQueueSize
	}
	return &Looper{
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the looper. It blocks while the queue is full
// and never drops a task; posting from inside a task with a full queue
// therefore deadlocks, so tasks should post sparingly.
func (l *Looper) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	if l.closed.Load() {
		return ErrLooperClosed
	}
	select {
	case <-l.done:
		return ErrLooperClosed
	case l.queue <- fn:
		return nil
	}
}

// Run executes tasks until ctx is cancelled or Quit is called.
func (l *Looper) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLooperRunning
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// RunPending executes every task queued right now and returns how many
// ran. It is meant for tests and for draining during shutdown.
func (l *Looper) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Quit stops Run. Tasks still queued are discarded.
func (l *Looper) Quit() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// IsClosed reports whether Quit has been called.
func (l *Looper) IsClosed() bool {
	return l.closed.Load()
}
