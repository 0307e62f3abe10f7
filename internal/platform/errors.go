package platform

import "errors"

// Errors for looper operations.
var (
	// ErrLooperClosed is returned when posting to a stopped looper.
	ErrLooperClosed = errors.New("looper is closed")

	// ErrLooperRunning is returned when Run is called twice.
	ErrLooperRunning = errors.New("looper is already running")
)
