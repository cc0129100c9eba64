package protocol

import "errors"

// Sentinel errors for decoding panel bus traffic.
var (
	// ErrUnknownTopic is returned when a topic does not follow the panel grammar.
	ErrUnknownTopic = errors.New("protocol: unknown topic")

	// ErrInvalidButtonIndex is returned for button indices outside 0..15.
	ErrInvalidButtonIndex = errors.New("protocol: invalid button index")

	// ErrInvalidPayload is returned when a payload cannot be decoded.
	ErrInvalidPayload = errors.New("protocol: invalid payload")

	// ErrInvalidPage is returned for page commands that are neither a page
	// number nor a named command.
	ErrInvalidPage = errors.New("protocol: invalid page command")
)
