package binding

import "errors"

// Domain errors for the binding package.
var (
	// ErrConfigNotFound is returned by repositories for unknown configuration ids.
	// The Resolver never returns it; it resolves to an unbound record instead.
	ErrConfigNotFound = errors.New("binding: configuration not found")

	// ErrInvalidConfig is returned when a configuration row fails validation.
	ErrInvalidConfig = errors.New("binding: invalid configuration")

	// ErrInvalidDimDelta is returned when a dim delta is not a number.
	ErrInvalidDimDelta = errors.New("binding: invalid dim delta")
)
