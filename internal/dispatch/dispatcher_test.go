package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/eventloop"
)

type observed struct {
	deviceID  string
	attribute string
	value     any
}

type recordingObserver struct {
	calls []observed
}

func (r *recordingObserver) CheckStateChange(_ context.Context, deviceID, attribute string, value any) {
	r.calls = append(r.calls, observed{deviceID, attribute, value})
}

type panickingObserver struct{}

func (panickingObserver) CheckStateChange(context.Context, string, string, any) {
	panic("observer failure")
}

func setup(t *testing.T) (*device.Registry, *eventloop.Loop, *Dispatcher) {
	t.Helper()
	ctx := context.Background()

	registry := device.NewRegistry(device.NewMemoryRepository())
	require.NoError(t, registry.CreateDevice(ctx, &device.Device{
		ID:   "light-1",
		Name: "Light",
		Capabilities: map[string]device.CapabilityDef{
			device.CapOnOff: {Setable: true},
			device.CapDim:   {Setable: true},
			"mode":          {Setable: true},
		},
	}))
	require.NoError(t, registry.CreateDevice(ctx, &device.Device{
		ID:   "panel-hall",
		Name: "Hall panel",
		Type: device.TypePanel,
		Capabilities: map[string]device.CapabilityDef{
			device.CapMeasureTemperature: {},
			device.CapDimLarge:           {Setable: true},
		},
	}))

	loop := eventloop.New()
	d := New(ctx, registry, loop)
	return registry, loop, d
}

func TestDedupLaw(t *testing.T) {
	registry, loop, d := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	d.AddObserver(obs)
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff))

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, true))
	loop.RunUntilIdle()
	require.Len(t, obs.calls, 1)

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, true))
	loop.RunUntilIdle()
	assert.Len(t, obs.calls, 1, "an equal value must not fan out")

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, false))
	loop.RunUntilIdle()
	require.Len(t, obs.calls, 2)
	assert.Equal(t, observed{"light-1", device.CapOnOff, false}, obs.calls[1])

	last, ok := d.LastValue("light-1", device.CapOnOff)
	assert.True(t, ok)
	assert.Equal(t, false, last)
}

func TestDedup_StrictTypes(t *testing.T) {
	registry, loop, d := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	d.AddObserver(obs)
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", "mode"))

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", "mode", 0))
	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", "mode", "0"))
	loop.RunUntilIdle()

	assert.Len(t, obs.calls, 2, "0 and \"0\" are different values")
}

func TestNotificationsRunOnTheLoop(t *testing.T) {
	registry, loop, d := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	d.AddObserver(obs)
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapDim))

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapDim, 0.3))
	assert.Empty(t, obs.calls, "observers are only called from the loop")
	assert.Equal(t, 1, loop.Pending())

	loop.RunUntilIdle()
	assert.Len(t, obs.calls, 1)
}

func TestRegisterDeviceCapability(t *testing.T) {
	registry, _, d := setup(t)
	ctx := context.Background()

	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff))
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff))
	assert.Equal(t, 1, d.Count())
	assert.Equal(t, 1, registry.ListenerCount(), "re-registration must not add a listener")

	require.NoError(t, d.RegisterDeviceCapability(ctx, "panel-hall", device.CapMeasureTemperature))
	assert.False(t, d.Registered("panel-hall", device.CapMeasureTemperature))

	require.NoError(t, d.RegisterDeviceCapability(ctx, "panel-hall", device.CapDimLarge))
	assert.True(t, d.Registered("panel-hall", device.CapDimLarge))

	err := d.RegisterDeviceCapability(ctx, "missing", device.CapOnOff)
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	assert.ErrorIs(t, d.RegisterDeviceCapability(ctx, "", device.CapOnOff), ErrInvalidRegistration)
}

func TestObserversAreIsolated(t *testing.T) {
	registry, loop, d := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	d.AddObserver(panickingObserver{})
	d.AddObserver(obs)
	d.AddObserver(obs)
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff))

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, true))
	loop.RunUntilIdle()
	assert.Len(t, obs.calls, 1, "a panicking observer must not stop the others")

	d.RemoveObserver(obs)
	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, false))
	loop.RunUntilIdle()
	assert.Len(t, obs.calls, 1)
}

func TestClose(t *testing.T) {
	registry, loop, d := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	d.AddObserver(obs)
	require.NoError(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff))

	require.NoError(t, registry.SetCapabilityValue(ctx, "light-1", device.CapOnOff, true))
	d.Close()
	loop.RunUntilIdle()

	assert.Empty(t, obs.calls, "queued notifications are dropped after Close")
	assert.Zero(t, registry.ListenerCount())
	assert.Zero(t, d.Count())
	_, ok := d.LastValue("light-1", device.CapOnOff)
	assert.False(t, ok)
	assert.ErrorIs(t, d.RegisterDeviceCapability(ctx, "light-1", device.CapOnOff), ErrClosed)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, false, false},
		{true, true, true},
		{0.5, 0.5, true},
		{0.0, "0", false},
		{1, 1.0, false},
		{"up", "up", true},
		{[]byte("a"), []byte("a"), true},
		{[]byte("a"), "a", false},
		{[]any{1.0}, []any{1.0}, true},
		{map[string]any{"x": 1.0}, map[string]any{"x": 2.0}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Equal(tt.a, tt.b), "Equal(%#v, %#v)", tt.a, tt.b)
	}
}
