package device

import "time"

// Capability names the panel engine treats specially.
const (
	// CapDim is a 0..1 level. Buttons step it by their dim delta.
	CapDim = "dim"

	// CapCoverState is the window-covering motion attribute ("up", "down", "idle").
	CapCoverState = "windowcoverings_state"

	// CapOnOff is the conventional boolean switch attribute.
	CapOnOff = "onoff"

	// CapMeasureTemperature carries a temperature reading in degrees Celsius.
	CapMeasureTemperature = "measure_temperature"

	// Panel backlight levels, each 0..1.
	CapDimLarge = "dim.large"
	CapDimSmall = "dim.small"
	CapDimLED   = "dim.led"
)

// TypePanel is the device type of the panels themselves.
const TypePanel = "panel"

// Cover motion values written to CapCoverState.
const (
	CoverUp   = "up"
	CoverDown = "down"
	CoverIdle = "idle"
)

// CapabilityDef describes one attribute a device exposes.
type CapabilityDef struct {
	// Setable reports whether the attribute accepts writes.
	Setable bool `json:"setable"`
}

// State holds current attribute values keyed by capability name.
//
// Values are JSON-compatible: bool, float64, string or nil. Integer
// values are normalised to float64 on write.
type State map[string]any

// Device is one node of the automation graph.
type Device struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Type           string                   `json:"type,omitempty"`
	Capabilities   map[string]CapabilityDef `json:"capabilities"`
	State          State                    `json:"state"`
	StateUpdatedAt *time.Time               `json:"state_updated_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// HasCapability reports whether the device exposes the named attribute.
func (d *Device) HasCapability(name string) bool {
	_, ok := d.Capabilities[name]
	return ok
}

// DeepCopy creates an independent copy of the device.
// The copy can be modified without affecting the original.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Capabilities != nil {
		cpy.Capabilities = make(map[string]CapabilityDef, len(d.Capabilities))
		for k, v := range d.Capabilities {
			cpy.Capabilities[k] = v
		}
	}
	cpy.State = State(deepCopyMap(d.State))

	return &cpy
}

// Capability is the current value of one device attribute.
type Capability struct {
	Name    string `json:"name"`
	Value   any    `json:"value"`
	Setable bool   `json:"setable"`
}

// VariableType is the declared type of a logic variable.
type VariableType string

// Variable types.
const (
	VariableBoolean VariableType = "boolean"
	VariableNumber  VariableType = "number"
	VariableString  VariableType = "string"
)

// Variable is a named logic value that buttons can mirror.
type Variable struct {
	Name      string       `json:"name"`
	Type      VariableType `json:"type"`
	Value     any          `json:"value"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Origin identifies where a capability change came from.
type Origin string

const (
	// OriginLocal marks writes made by this service (panel presses, API).
	OriginLocal Origin = "local"

	// OriginSync marks values received from the core's state topics.
	OriginSync Origin = "sync"
)

// Change describes a capability value change delivered to listeners.
type Change struct {
	DeviceID   string
	Capability string
	Value      any
	Origin     Origin
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case State:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}

// NormalizeValue converts Go numeric types to float64 so that values read
// back from JSON compare equal to values written in-process.
func NormalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
