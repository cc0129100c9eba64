package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrCapabilityNotSetable) {
//	    // ignore the write
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrCapabilityNotFound is returned when a device does not expose an attribute.
	ErrCapabilityNotFound = errors.New("device: capability not found")

	// ErrCapabilityNotSetable is returned when writing a read-only attribute.
	ErrCapabilityNotSetable = errors.New("device: capability not setable")

	// ErrVariableNotFound is returned when a logic variable does not exist.
	ErrVariableNotFound = errors.New("device: variable not found")

	// ErrInvalidVariable is returned when a variable name, type or value is invalid.
	ErrInvalidVariable = errors.New("device: invalid variable")
)
