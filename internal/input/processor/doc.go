// Package processor is the platform-facing entry point of the input
// pipeline.
//
// A KeyProcessor takes ownership of every raw key event it is offered.
// Presses go to the active text field first. Whatever the text field
// declines is resolved against any pending dead-key accent, sent to the
// framework over the key event channel, and tracked by a responder until
// the framework answers. Declined events come back through the platform
// with the responder's re-dispatch guard raised, and the processor lets
// them pass untouched.
package processor
