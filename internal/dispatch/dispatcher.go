package dispatch

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/eventloop"
)

// StateObserver is implemented by anything that reacts to attribute
// changes, in practice every panel controller.
type StateObserver interface {
	CheckStateChange(ctx context.Context, deviceID, attribute string, value any)
}

// Graph is the part of the device registry the dispatcher needs.
type Graph interface {
	GetDevice(ctx context.Context, id string) (*device.Device, error)
	OnCapabilityChange(deviceID, name string, fn device.ChangeFunc) (unsubscribe func())
}

// Poster queues work on the event loop.
type Poster interface {
	Post(task eventloop.Task)
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type key struct {
	deviceID  string
	attribute string
}

func (k key) String() string { return k.deviceID + "." + k.attribute }

// Dispatcher fans attribute changes out to every StateObserver, dropping
// notifications whose value equals the last one forwarded for the same
// (device, attribute) pair.
//
// Graph callbacks may arrive on any goroutine; they only post to the loop.
// Every other method, and all state, belongs to the event loop goroutine.
type Dispatcher struct {
	ctx       context.Context //nolint:containedctx // notifications outlive the registering call
	graph     Graph
	loop      Poster
	logger    Logger
	observers []StateObserver

	// last holds the most recently forwarded value per pair. An entry is
	// created with a nil value on registration.
	last          map[key]any
	unsubscribers map[key]func()
	closed        bool
}

// New creates a dispatcher. ctx is passed to observers with each change.
func New(ctx context.Context, graph Graph, loop Poster) *Dispatcher {
	return &Dispatcher{
		ctx:           ctx,
		graph:         graph,
		loop:          loop,
		logger:        noopLogger{},
		last:          make(map[key]any),
		unsubscribers: make(map[key]func()),
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// AddObserver adds o to the fan-out set. Adding the same observer twice
// has no effect.
func (d *Dispatcher) AddObserver(o StateObserver) {
	if lo.Contains(d.observers, o) {
		return
	}
	d.observers = append(d.observers, o)
}

// RemoveObserver removes o from the fan-out set.
func (d *Dispatcher) RemoveObserver(o StateObserver) {
	d.observers = lo.Without(d.observers, o)
}

// RegisterDeviceCapability starts watching one attribute.
//
// Registering a pair twice is a no-op. A panel's own measure_temperature
// is never registered; panels push their sensor reading directly.
func (d *Dispatcher) RegisterDeviceCapability(ctx context.Context, deviceID, attribute string) error {
	if d.closed {
		return ErrClosed
	}
	if deviceID == "" || attribute == "" {
		return fmt.Errorf("%w: device %q attribute %q", ErrInvalidRegistration, deviceID, attribute)
	}

	dev, err := d.graph.GetDevice(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("registering %s.%s: %w", deviceID, attribute, err)
	}
	if dev.Type == device.TypePanel && attribute == device.CapMeasureTemperature {
		return nil
	}

	k := key{deviceID: deviceID, attribute: attribute}
	if _, ok := d.unsubscribers[k]; ok {
		d.logger.Debug("capability listener already registered", "capability", k.String())
		return nil
	}

	d.logger.Debug("registering capability listener", "capability", k.String())
	d.last[k] = nil
	d.unsubscribers[k] = d.graph.OnCapabilityChange(deviceID, attribute, func(c device.Change) {
		d.loop.Post(func() { d.handleChange(k, c.Value) })
	})
	return nil
}

// Registered reports whether the pair is being watched.
func (d *Dispatcher) Registered(deviceID, attribute string) bool {
	_, ok := d.unsubscribers[key{deviceID: deviceID, attribute: attribute}]
	return ok
}

// Count returns the number of watched pairs.
func (d *Dispatcher) Count() int {
	return len(d.unsubscribers)
}

// LastValue returns the last value forwarded for a pair.
func (d *Dispatcher) LastValue(deviceID, attribute string) (any, bool) {
	v, ok := d.last[key{deviceID: deviceID, attribute: attribute}]
	return v, ok
}

// Close removes every graph subscription and clears the value cache.
// Notifications already queued on the loop are dropped.
func (d *Dispatcher) Close() {
	for k, unsubscribe := range d.unsubscribers {
		unsubscribe()
		delete(d.unsubscribers, k)
	}
	clear(d.last)
	d.observers = nil
	d.closed = true
}

func (d *Dispatcher) handleChange(k key, value any) {
	if d.closed {
		return
	}
	if Equal(d.last[k], value) {
		d.logger.Debug("capability unchanged", "capability", k.String(), "value", value)
		return
	}

	d.logger.Debug("capability changed", "capability", k.String(), "value", value)
	d.last[k] = value

	for _, o := range d.observers {
		d.notify(o, k, value)
	}
}

// notify isolates observers from each other's panics.
func (d *Dispatcher) notify(o StateObserver, k key, value any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("state observer panicked", "capability", k.String(), "panic", fmt.Sprint(r))
		}
	}()
	o.CheckStateChange(d.ctx, k.deviceID, k.attribute, value)
}
