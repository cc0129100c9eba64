package panel

import "errors"

var (
	// ErrCapabilityUnsupported is returned when the panel firmware is too
	// old for the requested feature.
	ErrCapabilityUnsupported = errors.New("panel: capability unsupported by firmware")

	// ErrPanelNotFound is returned by Manager lookups for unknown panels.
	ErrPanelNotFound = errors.New("panel: not found")

	// ErrInvalidPanel is returned when panel options are incomplete.
	ErrInvalidPanel = errors.New("panel: invalid options")

	// ErrNotButton is returned for gestures on a connector without buttons.
	ErrNotButton = errors.New("panel: connector has no buttons")
)
