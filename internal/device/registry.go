package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandSink forwards locally written values to whatever drives the
// physical device, typically a protocol bridge listening on MQTT.
type CommandSink interface {
	SendCommand(ctx context.Context, deviceID, capability string, value any) error
}

// ChangeFunc receives capability change notifications.
type ChangeFunc func(Change)

type listenerKey struct {
	deviceID   string
	capability string
}

type listener struct {
	id uint64
	fn ChangeFunc
}

// Registry is the in-process view of the automation graph.
// It wraps a Repository, caches devices and variables, and notifies
// capability listeners whenever a value is written.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the write operations.
//
// All public methods are thread-safe. Listeners are invoked on the
// goroutine that performed the write, after all registry locks are
// released.
type Registry struct {
	repo      Repository
	cache     map[string]*Device
	variables map[string]*Variable
	cacheMu   sync.RWMutex

	listeners    map[listenerKey][]listener
	nextListener uint64
	listenersMu  sync.Mutex

	commands CommandSink
	logger   Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:      repo,
		cache:     make(map[string]*Device),
		variables: make(map[string]*Variable),
		listeners: make(map[listenerKey][]listener),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetCommandSink sets where local writes are forwarded. Nil disables forwarding.
func (r *Registry) SetCommandSink(sink CommandSink) {
	r.commands = sink
}

// RefreshCache reloads all devices and variables from the repository.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}
	vars, err := r.repo.ListVariables(ctx)
	if err != nil {
		return fmt.Errorf("loading variables: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		r.cache[devices[i].ID] = devices[i].DeepCopy()
	}
	r.variables = make(map[string]*Variable, len(vars))
	for i := range vars {
		v := vars[i]
		r.variables[v.Name] = &v
	}

	r.logger.Info("device cache refreshed", "devices", len(devices), "variables", len(vars))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}

	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = d.DeepCopy()
	r.cacheMu.Unlock()

	return d, nil
}

// ListDevices retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d.DeepCopy())
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// CreateDevice validates and persists a new device.
// An empty ID is derived from the device name.
func (r *Registry) CreateDevice(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = GenerateID(d.Name)
	}
	for k, v := range d.State {
		d.State[k] = NormalizeValue(v)
	}
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", d.ID, "name", d.Name)
	return nil
}

// DeleteDevice removes a device. Listeners registered for it stay in place
// and fire again if a device with the same ID is created later.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "id", id)
	return nil
}

// GetDeviceCount returns the number of cached devices.
func (r *Registry) GetDeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// GetCapability returns the current value of one attribute.
func (r *Registry) GetCapability(ctx context.Context, deviceID, name string) (Capability, error) {
	d, err := r.GetDevice(ctx, deviceID)
	if err != nil {
		return Capability{}, err
	}
	def, ok := d.Capabilities[name]
	if !ok {
		return Capability{}, fmt.Errorf("%w: %s.%s", ErrCapabilityNotFound, deviceID, name)
	}
	return Capability{Name: name, Value: d.State[name], Setable: def.Setable}, nil
}

// SetCapabilityValue writes a value on behalf of this service.
//
// The attribute must exist and be setable. The value is persisted, the
// command sink (if any) is told, and every listener for the attribute is
// notified.
func (r *Registry) SetCapabilityValue(ctx context.Context, deviceID, name string, value any) error {
	c, err := r.GetCapability(ctx, deviceID, name)
	if err != nil {
		return err
	}
	if !c.Setable {
		return fmt.Errorf("%w: %s.%s", ErrCapabilityNotSetable, deviceID, name)
	}

	value = NormalizeValue(value)
	if err := validateValue(value); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrInvalidDevice, deviceID, name, err)
	}
	if err := r.store(ctx, deviceID, State{name: value}); err != nil {
		return err
	}

	if r.commands != nil {
		if err := r.commands.SendCommand(ctx, deviceID, name, value); err != nil {
			r.logger.Warn("forwarding device command failed",
				"device_id", deviceID, "capability", name, "error", err)
		}
	}

	r.notify(Change{DeviceID: deviceID, Capability: name, Value: value, Origin: OriginLocal})
	return nil
}

// ApplyState records values reported by the rest of the system.
//
// Setable flags are not checked and nothing is forwarded to the command
// sink. Values for attributes the device does not declare are skipped.
func (r *Registry) ApplyState(ctx context.Context, deviceID string, values State, origin Origin) error {
	d, err := r.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	accepted := make(State, len(values))
	for name, v := range values {
		if !d.HasCapability(name) {
			r.logger.Debug("ignoring state for undeclared capability",
				"device_id", deviceID, "capability", name)
			continue
		}
		v = NormalizeValue(v)
		if err := validateValue(v); err != nil {
			r.logger.Warn("ignoring invalid state value",
				"device_id", deviceID, "capability", name, "error", err)
			continue
		}
		accepted[name] = v
	}
	if len(accepted) == 0 {
		return nil
	}

	if err := r.store(ctx, deviceID, accepted); err != nil {
		return err
	}
	for name, v := range accepted {
		r.notify(Change{DeviceID: deviceID, Capability: name, Value: v, Origin: origin})
	}
	return nil
}

// OnCapabilityChange registers fn for changes to one attribute.
// The returned function removes the registration; calling it twice is safe.
func (r *Registry) OnCapabilityChange(deviceID, name string, fn ChangeFunc) (unsubscribe func()) {
	key := listenerKey{deviceID: deviceID, capability: name}

	r.listenersMu.Lock()
	r.nextListener++
	id := r.nextListener
	r.listeners[key] = append(r.listeners[key], listener{id: id, fn: fn})
	r.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			defer r.listenersMu.Unlock()

			current := r.listeners[key]
			for i, l := range current {
				if l.id == id {
					r.listeners[key] = append(current[:i:i], current[i+1:]...)
					break
				}
			}
			if len(r.listeners[key]) == 0 {
				delete(r.listeners, key)
			}
		})
	}
}

// ListenerCount returns the number of registered capability listeners.
func (r *Registry) ListenerCount() int {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	n := 0
	for _, ls := range r.listeners {
		n += len(ls)
	}
	return n
}

// GetVariable returns a logic variable.
func (r *Registry) GetVariable(ctx context.Context, name string) (Variable, error) {
	r.cacheMu.RLock()
	cached, ok := r.variables[name]
	r.cacheMu.RUnlock()
	if ok {
		return *cached, nil
	}

	v, err := r.repo.GetVariable(ctx, name)
	if err != nil {
		return Variable{}, err
	}

	r.cacheMu.Lock()
	r.variables[name] = v
	r.cacheMu.Unlock()

	return *v, nil
}

// ListVariables returns every logic variable.
func (r *Registry) ListVariables(ctx context.Context) ([]Variable, error) {
	return r.repo.ListVariables(ctx)
}

// SetVariable creates or replaces a logic variable.
func (r *Registry) SetVariable(ctx context.Context, name string, typ VariableType, value any) error {
	v := &Variable{Name: name, Type: typ, Value: NormalizeValue(value)}
	if err := ValidateVariable(v); err != nil {
		return err
	}
	if err := r.repo.SaveVariable(ctx, v); err != nil {
		return err
	}

	r.cacheMu.Lock()
	cpy := *v
	r.variables[name] = &cpy
	r.cacheMu.Unlock()

	r.logger.Debug("variable set", "name", name, "type", typ)
	return nil
}

// store persists values and replaces the cached device with an updated copy.
func (r *Registry) store(ctx context.Context, deviceID string, values State) error {
	if err := r.repo.UpdateState(ctx, deviceID, values); err != nil {
		return fmt.Errorf("storing state for %s: %w", deviceID, err)
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[deviceID]; ok {
		updated := cached.DeepCopy()
		if updated.State == nil {
			updated.State = State{}
		}
		for k, v := range values {
			updated.State[k] = deepCopyValue(v)
		}
		now := time.Now().UTC()
		updated.StateUpdatedAt = &now
		r.cache[deviceID] = updated
	}
	r.cacheMu.Unlock()
	return nil
}

func (r *Registry) notify(c Change) {
	key := listenerKey{deviceID: c.DeviceID, capability: c.Capability}

	r.listenersMu.Lock()
	ls := append([]listener(nil), r.listeners[key]...)
	r.listenersMu.Unlock()

	for _, l := range ls {
		l.fn(c)
	}
}
