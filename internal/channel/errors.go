package channel

import "errors"

var (
	// ErrMalformedMessage indicates a message that is not valid JSON.
	ErrMalformedMessage = errors.New("malformed key event message")

	// ErrUnknownType indicates a message whose type is neither keydown
	// nor keyup.
	ErrUnknownType = errors.New("unknown key event type")

	// ErrMissingEventID indicates a message without an eventId.
	ErrMissingEventID = errors.New("key event message has no eventId")

	// ErrMalformedReply indicates a reply that is not valid JSON.
	ErrMalformedReply = errors.New("malformed key event reply")
)
