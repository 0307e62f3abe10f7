package framework

import "errors"

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutorClosed is returned when submitting to a closed executor.
	ErrExecutorClosed = errors.New("lua executor is closed")

	// ErrRuntimeClosed is returned after the runtime has been closed.
	ErrRuntimeClosed = errors.New("framework runtime is closed")

	// ErrNotStarted is returned when the runtime is used before Start.
	ErrNotStarted = errors.New("framework runtime not started")

	// ErrUnknownChannel is passed to replies for channels the runtime
	// does not serve.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNoHandler indicates the script defines no on_key function.
	ErrNoHandler = errors.New("script defines no on_key function")
)
