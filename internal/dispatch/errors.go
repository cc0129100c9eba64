package dispatch

import "errors"

var (
	// ErrClosed is returned when registering on a closed dispatcher.
	ErrClosed = errors.New("dispatch: dispatcher closed")

	// ErrInvalidRegistration is returned for an empty device or attribute.
	ErrInvalidRegistration = errors.New("dispatch: invalid registration")
)
