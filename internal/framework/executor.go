package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the executor queue used when none is given.
const DefaultQueueSize = 100

type task struct {
	fn     func() error
	result chan error
}

// Executor runs tasks one at a time on the goroutine that calls Run.
//
// Everything that touches a Lua state goes through one executor, so the
// state never sees two goroutines.
type Executor struct {
	queue     chan *task
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewExecutor creates an executor with the given queue size.
func NewExecutor(queueSize int) *Executor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Executor{
		queue: make(chan *task, queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled or Close is called. Tasks
// still queued at that point fail with the reason.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drain(ctx.Err())
			return
		case <-e.done:
			e.drain(ErrExecutorClosed)
			return
		case t := <-e.queue:
			t.result <- e.run(t)
		}
	}
}

func (e *Executor) run(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = fmt.Errorf("executor panic: %v", v)
			}
		}
	}()
	return t.fn()
}

func (e *Executor) drain(err error) {
	for {
		select {
		case t := <-e.queue:
			t.result <- err
		default:
			return
		}
	}
}

func (e *Executor) enqueue(ctx context.Context, fn func() error) (*task, error) {
	if e.closed.Load() {
		return nil, ErrExecutorClosed
	}

	t := &task{fn: fn, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrExecutorClosed
	case e.queue <- t:
		return t, nil
	}
}

// Execute runs fn on the executor and waits for it to finish.
func (e *Executor) Execute(ctx context.Context, fn func() error) error {
	t, err := e.enqueue(ctx, fn)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-t.result:
		return err
	}
}

// Submit queues fn without waiting for it. It blocks while the queue is
// full; tasks are never dropped, so submission order is execution order.
func (e *Executor) Submit(fn func() error) error {
	_, err := e.enqueue(context.Background(), fn)
	return err
}

// Close stops the executor.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
	})
}

// IsClosed reports whether Close has been called.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
