package binding

import "fmt"

// Target is what one side of a button is bound to.
//
// It is a closed set: Unbound, Variable, RawPassthrough and Device.
// Switch over it with a type switch:
//
//	switch t := rec.Target.(type) {
//	case binding.Unbound:
//	case binding.Variable:
//	    lookup(t.Name)
//	case binding.RawPassthrough:
//	case binding.Device:
//	    write(t.ID)
//	}
type Target interface {
	Kind() TargetKind
	isTarget()
}

// Unbound means no automation target; the button toggles locally.
type Unbound struct{}

// Variable mirrors a global logic variable. The variable is never written.
type Variable struct {
	Name string
}

// RawPassthrough leaves the gesture to other MQTT consumers.
type RawPassthrough struct{}

// Device drives an attribute of a device in the automation graph.
type Device struct {
	ID string
}

func (Unbound) Kind() TargetKind        { return KindNone }
func (Variable) Kind() TargetKind       { return KindVariable }
func (RawPassthrough) Kind() TargetKind { return KindRaw }
func (Device) Kind() TargetKind         { return KindDevice }

func (Unbound) isTarget()        {}
func (Variable) isTarget()       {}
func (RawPassthrough) isTarget() {}
func (Device) isTarget()         {}

// TargetKind is the stored discriminator of a Target.
type TargetKind string

const (
	KindNone     TargetKind = "none"
	KindDevice   TargetKind = "device"
	KindVariable TargetKind = "variable"
	KindRaw      TargetKind = "raw"
)

// NewTarget builds a Target from its stored form. An empty kind is KindNone.
func NewTarget(kind TargetKind, ref string) (Target, error) {
	switch kind {
	case KindNone, "":
		return Unbound{}, nil
	case KindRaw:
		return RawPassthrough{}, nil
	case KindVariable:
		if ref == "" {
			return nil, fmt.Errorf("%w: variable target without a name", ErrInvalidConfig)
		}
		return Variable{Name: ref}, nil
	case KindDevice:
		if ref == "" {
			return nil, fmt.Errorf("%w: device target without an id", ErrInvalidConfig)
		}
		return Device{ID: ref}, nil
	default:
		return nil, fmt.Errorf("%w: target kind %q", ErrInvalidConfig, kind)
	}
}

// TargetRef returns the stored reference of t: a device id, a variable
// name or the empty string.
func TargetRef(t Target) string {
	switch v := t.(type) {
	case Device:
		return v.ID
	case Variable:
		return v.Name
	default:
		return ""
	}
}
