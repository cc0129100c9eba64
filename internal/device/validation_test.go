package device

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDevice(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Device)
		wantErr bool
	}{
		{"valid", func(*Device) {}, false},
		{"empty id", func(d *Device) { d.ID = "" }, true},
		{"id with slash", func(d *Device) { d.ID = "a/b" }, true},
		{"empty name", func(d *Device) { d.Name = "" }, true},
		{"long name", func(d *Device) { d.Name = strings.Repeat("x", maxNameLength+1) }, true},
		{"bad capability", func(d *Device) { d.Capabilities["Bad Name"] = CapabilityDef{} }, true},
		{"sub capability", func(d *Device) { d.Capabilities[CapDimLarge] = CapabilityDef{Setable: true} }, false},
		{"undeclared state", func(d *Device) { d.State["volume"] = 1.0 }, true},
		{"non scalar state", func(d *Device) { d.State[CapOnOff] = map[string]any{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDevice("light-1")
			tt.mutate(d)
			err := ValidateDevice(d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDevice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDevice) {
				t.Errorf("error %v does not wrap ErrInvalidDevice", err)
			}
		})
	}
}

func TestValidateVariable(t *testing.T) {
	tests := []struct {
		name    string
		v       Variable
		wantErr bool
	}{
		{"boolean", Variable{Name: "away", Type: VariableBoolean, Value: true}, false},
		{"number from int", Variable{Name: "count", Type: VariableNumber, Value: 3}, false},
		{"string", Variable{Name: "mode", Type: VariableString, Value: "night"}, false},
		{"nil value", Variable{Name: "mode", Type: VariableString}, false},
		{"wrong type", Variable{Name: "away", Type: VariableBoolean, Value: 1.0}, true},
		{"unknown type", Variable{Name: "away", Type: "date", Value: "x"}, true},
		{"bad name", Variable{Name: "1st", Type: VariableBoolean, Value: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariable(&tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVariable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	if got := GenerateID("Living Room Lamp"); got != "living-room-lamp" {
		t.Errorf("GenerateID() = %q, want %q", got, "living-room-lamp")
	}
	if got := GenerateID(strings.Repeat("a", 100)); len(got) != maxIDLength {
		t.Errorf("GenerateID() length = %d, want %d", len(got), maxIDLength)
	}
}

func TestDeepCopy(t *testing.T) {
	d := testDevice("light-1")
	cpy := d.DeepCopy()
	cpy.Capabilities[CapOnOff] = CapabilityDef{Setable: false}
	cpy.State[CapOnOff] = true

	if !d.Capabilities[CapOnOff].Setable || d.State[CapOnOff] != false {
		t.Error("DeepCopy shares maps with the original")
	}
	if (*Device)(nil).DeepCopy() != nil {
		t.Error("DeepCopy of nil should be nil")
	}
}
