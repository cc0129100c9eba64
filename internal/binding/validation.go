package binding

import "fmt"

const maxTextLength = 64

// ValidateButtonConfig checks both sides of a button configuration.
func ValidateButtonConfig(c *ButtonConfig) error {
	if c == nil {
		return fmt.Errorf("%w: button config is nil", ErrInvalidConfig)
	}
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidConfig)
	}
	if err := validateSide(c.Left); err != nil {
		return fmt.Errorf("button config %d left: %w", c.ID, err)
	}
	if err := validateSide(c.Right); err != nil {
		return fmt.Errorf("button config %d right: %w", c.ID, err)
	}
	return nil
}

func validateSide(s SideConfig) error {
	if _, err := NewTarget(s.TargetKind, s.Target); err != nil {
		return err
	}
	if s.TargetKind == KindDevice && s.Attribute == "" {
		return fmt.Errorf("%w: device target %q without an attribute", ErrInvalidConfig, s.Target)
	}
	if _, err := ApplyDimDelta(s.DimChange, 0); err != nil {
		return err
	}
	for _, text := range []string{s.OnText, s.OffText, s.TopText} {
		if len(text) > maxTextLength {
			return fmt.Errorf("%w: label longer than %d characters", ErrInvalidConfig, maxTextLength)
		}
	}
	return nil
}

// ValidateDisplayConfig checks a display configuration and its items.
func ValidateDisplayConfig(c *DisplayConfig) error {
	if c == nil {
		return fmt.Errorf("%w: display config is nil", ErrInvalidConfig)
	}
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidConfig)
	}
	for i, item := range c.Items {
		if item.Device == "" || item.Attribute == "" {
			return fmt.Errorf("%w: display config %d item %d needs device and attribute", ErrInvalidConfig, c.ID, i)
		}
		if item.X < 0 || item.Y < 0 || item.Width < 0 || item.Width > 100 {
			return fmt.Errorf("%w: display config %d item %d has invalid geometry", ErrInvalidConfig, c.ID, i)
		}
	}
	return nil
}
