package auth

import "errors"

// Domain errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrUnknownRole        = errors.New("unknown role")
	ErrForbidden          = errors.New("permission denied")
)
