package device

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingSink struct {
	mu       sync.Mutex
	commands []Change
	err      error
}

func (s *recordingSink) SendCommand(_ context.Context, deviceID, capability string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, Change{DeviceID: deviceID, Capability: capability, Value: value})
	return s.err
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(NewMemoryRepository())
	ctx := context.Background()

	light := testDevice("light-1")
	sensor := &Device{
		ID:           "sensor-1",
		Name:         "Hall sensor",
		Capabilities: map[string]CapabilityDef{CapMeasureTemperature: {Setable: false}},
	}
	for _, d := range []*Device{light, sensor} {
		if err := r.CreateDevice(ctx, d); err != nil {
			t.Fatalf("CreateDevice(%s) error = %v", d.ID, err)
		}
	}
	return r
}

func TestRegistry_CreateDevice_GeneratesID(t *testing.T) {
	r := NewRegistry(NewMemoryRepository())
	d := &Device{Name: "Kitchen Spots", Capabilities: map[string]CapabilityDef{CapOnOff: {Setable: true}}}

	if err := r.CreateDevice(context.Background(), d); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if d.ID != "kitchen-spots" {
		t.Errorf("ID = %q, want %q", d.ID, "kitchen-spots")
	}
	if r.GetDeviceCount() != 1 {
		t.Errorf("GetDeviceCount() = %d, want 1", r.GetDeviceCount())
	}
}

func TestRegistry_GetDevice_ReturnsCopy(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	d, err := r.GetDevice(ctx, "light-1")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	d.State[CapOnOff] = true

	again, _ := r.GetDevice(ctx, "light-1")
	if again.State[CapOnOff] != false {
		t.Error("mutating a returned device must not change the cache")
	}
}

func TestRegistry_GetCapability(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	c, err := r.GetCapability(ctx, "light-1", CapOnOff)
	if err != nil {
		t.Fatalf("GetCapability() error = %v", err)
	}
	if c.Value != false || !c.Setable {
		t.Errorf("GetCapability() = %+v, want setable false", c)
	}

	if _, err := r.GetCapability(ctx, "light-1", "volume"); !errors.Is(err, ErrCapabilityNotFound) {
		t.Errorf("unknown capability error = %v, want ErrCapabilityNotFound", err)
	}
	if _, err := r.GetCapability(ctx, "missing", CapOnOff); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("unknown device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_SetCapabilityValue(t *testing.T) {
	r := newTestRegistry(t)
	sink := &recordingSink{}
	r.SetCommandSink(sink)
	ctx := context.Background()

	var got []Change
	unsubscribe := r.OnCapabilityChange("light-1", CapDim, func(c Change) { got = append(got, c) })
	defer unsubscribe()

	if err := r.SetCapabilityValue(ctx, "light-1", CapDim, 1); err != nil {
		t.Fatalf("SetCapabilityValue() error = %v", err)
	}

	c, _ := r.GetCapability(ctx, "light-1", CapDim)
	if c.Value != float64(1) {
		t.Errorf("stored value = %#v, want float64(1)", c.Value)
	}
	if len(got) != 1 || got[0].Value != float64(1) || got[0].Origin != OriginLocal {
		t.Errorf("listener calls = %+v, want one local change to 1", got)
	}
	if len(sink.commands) != 1 || sink.commands[0].Capability != CapDim {
		t.Errorf("sink commands = %+v, want one dim command", sink.commands)
	}
}

func TestRegistry_SetCapabilityValue_Errors(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		deviceID string
		cap      string
		value    any
		wantErr  error
	}{
		{"read only", "sensor-1", CapMeasureTemperature, 20.0, ErrCapabilityNotSetable},
		{"unknown capability", "light-1", "volume", 1.0, ErrCapabilityNotFound},
		{"unknown device", "missing", CapOnOff, true, ErrDeviceNotFound},
		{"unsupported value", "light-1", CapOnOff, []string{"x"}, ErrInvalidDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.SetCapabilityValue(ctx, tt.deviceID, tt.cap, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetCapabilityValue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_SinkFailureDoesNotFailWrite(t *testing.T) {
	r := newTestRegistry(t)
	r.SetCommandSink(&recordingSink{err: errors.New("broker down")})

	if err := r.SetCapabilityValue(context.Background(), "light-1", CapOnOff, true); err != nil {
		t.Errorf("SetCapabilityValue() error = %v, want nil", err)
	}
}

func TestRegistry_ApplyState(t *testing.T) {
	r := newTestRegistry(t)
	sink := &recordingSink{}
	r.SetCommandSink(sink)
	ctx := context.Background()

	var got []Change
	r.OnCapabilityChange("sensor-1", CapMeasureTemperature, func(c Change) { got = append(got, c) })

	err := r.ApplyState(ctx, "sensor-1", State{CapMeasureTemperature: 21.5, "unknown": 1}, OriginSync)
	if err != nil {
		t.Fatalf("ApplyState() error = %v", err)
	}

	if len(got) != 1 || got[0].Value != 21.5 || got[0].Origin != OriginSync {
		t.Errorf("listener calls = %+v, want one sync change to 21.5", got)
	}
	if len(sink.commands) != 0 {
		t.Errorf("ApplyState must not forward commands, got %+v", sink.commands)
	}
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	calls := 0
	unsubscribe := r.OnCapabilityChange("light-1", CapOnOff, func(Change) { calls++ })
	other := r.OnCapabilityChange("light-1", CapOnOff, func(Change) {})
	defer other()

	if r.ListenerCount() != 2 {
		t.Fatalf("ListenerCount() = %d, want 2", r.ListenerCount())
	}
	unsubscribe()
	unsubscribe()
	if r.ListenerCount() != 1 {
		t.Errorf("ListenerCount() after unsubscribe = %d, want 1", r.ListenerCount())
	}

	_ = r.SetCapabilityValue(ctx, "light-1", CapOnOff, true)
	if calls != 0 {
		t.Errorf("removed listener called %d times", calls)
	}
}

func TestRegistry_Variables(t *testing.T) {
	r := NewRegistry(NewMemoryRepository())
	ctx := context.Background()

	if _, err := r.GetVariable(ctx, "away"); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("GetVariable() error = %v, want ErrVariableNotFound", err)
	}
	if err := r.SetVariable(ctx, "away", VariableBoolean, "yes"); !errors.Is(err, ErrInvalidVariable) {
		t.Errorf("SetVariable() mismatched type error = %v, want ErrInvalidVariable", err)
	}
	if err := r.SetVariable(ctx, "away", VariableBoolean, true); err != nil {
		t.Fatalf("SetVariable() error = %v", err)
	}

	v, err := r.GetVariable(ctx, "away")
	if err != nil {
		t.Fatalf("GetVariable() error = %v", err)
	}
	if v.Type != VariableBoolean || v.Value != true {
		t.Errorf("GetVariable() = %+v, want boolean true", v)
	}
}

func TestRegistry_RefreshCache(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, testDevice("light-1"))
	_ = repo.SaveVariable(ctx, &Variable{Name: "mode", Type: VariableString, Value: "night"})

	r := NewRegistry(repo)
	if err := r.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if r.GetDeviceCount() != 1 {
		t.Errorf("GetDeviceCount() = %d, want 1", r.GetDeviceCount())
	}
	if v, err := r.GetVariable(ctx, "mode"); err != nil || v.Value != "night" {
		t.Errorf("GetVariable() = %+v, %v", v, err)
	}
}
