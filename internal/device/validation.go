package device

import (
	"fmt"
	"regexp"

	"github.com/gosimple/slug"
)

const (
	maxNameLength       = 100
	maxIDLength         = 64
	maxCapabilities     = 50
	maxStringValueLen   = 1024
	capabilityPattern   = `^[a-z][a-z0-9_]*(\.[a-z0-9_]+)?$`
	deviceIDPattern     = `^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`
	variableNamePattern = `^[a-zA-Z][a-zA-Z0-9_.-]*$`
)

var (
	capabilityRegex   = regexp.MustCompile(capabilityPattern)
	deviceIDRegex     = regexp.MustCompile(deviceIDPattern)
	variableNameRegex = regexp.MustCompile(variableNamePattern)
)

// ValidateDevice checks a device before it is persisted.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidDevice)
	}
	if d.ID == "" || len(d.ID) > maxIDLength || !deviceIDRegex.MatchString(d.ID) {
		return fmt.Errorf("%w: id %q", ErrInvalidDevice, d.ID)
	}
	if d.Name == "" || len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidDevice, maxNameLength)
	}
	if len(d.Capabilities) > maxCapabilities {
		return fmt.Errorf("%w: too many capabilities (%d > %d)", ErrInvalidDevice, len(d.Capabilities), maxCapabilities)
	}
	for name := range d.Capabilities {
		if !capabilityRegex.MatchString(name) {
			return fmt.Errorf("%w: capability %q", ErrInvalidDevice, name)
		}
	}
	for name, v := range d.State {
		if _, ok := d.Capabilities[name]; !ok {
			return fmt.Errorf("%w: state for undeclared capability %q", ErrInvalidDevice, name)
		}
		if err := validateValue(v); err != nil {
			return fmt.Errorf("%w: state %q: %v", ErrInvalidDevice, name, err)
		}
	}
	return nil
}

// ValidateVariable checks a variable name, type and value.
func ValidateVariable(v *Variable) error {
	if v == nil {
		return fmt.Errorf("%w: variable is nil", ErrInvalidVariable)
	}
	if !variableNameRegex.MatchString(v.Name) || len(v.Name) > maxNameLength {
		return fmt.Errorf("%w: name %q", ErrInvalidVariable, v.Name)
	}
	if v.Value == nil {
		switch v.Type {
		case VariableBoolean, VariableNumber, VariableString:
			return nil
		default:
			return fmt.Errorf("%w: type %q", ErrInvalidVariable, v.Type)
		}
	}

	var ok bool
	switch v.Type {
	case VariableBoolean:
		_, ok = v.Value.(bool)
	case VariableNumber:
		_, ok = NormalizeValue(v.Value).(float64)
	case VariableString:
		var s string
		s, ok = v.Value.(string)
		ok = ok && len(s) <= maxStringValueLen
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidVariable, v.Type)
	}
	if !ok {
		return fmt.Errorf("%w: value %v is not a %s", ErrInvalidVariable, v.Value, v.Type)
	}
	return nil
}

// validateValue accepts the scalar types a capability can hold.
func validateValue(v any) error {
	switch val := NormalizeValue(v).(type) {
	case nil, bool, float64:
		return nil
	case string:
		if len(val) > maxStringValueLen {
			return fmt.Errorf("string value exceeds %d characters", maxStringValueLen)
		}
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

// GenerateID derives a device ID from a display name.
func GenerateID(name string) string {
	id := slug.Make(name)
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return id
}
