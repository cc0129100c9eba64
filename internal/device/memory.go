package device

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is a Repository held entirely in memory.
// It backs tests and deployments that mirror the graph from state topics
// without a database.
type MemoryRepository struct {
	mu        sync.Mutex
	devices   map[string]*Device
	variables map[string]*Variable
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		devices:   make(map[string]*Device),
		variables: make(map[string]*Variable),
	}
}

// GetByID retrieves a device by ID.
func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// List retrieves all devices ordered by name.
func (m *MemoryRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d.DeepCopy())
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// Create inserts a new device.
func (m *MemoryRepository) Create(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[device.ID]; ok {
		return ErrDeviceExists
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	m.devices[device.ID] = device.DeepCopy()
	return nil
}

// Delete removes a device by ID.
func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

// UpdateState merges values into the stored state.
func (m *MemoryRepository) UpdateState(_ context.Context, id string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	if d.State == nil {
		d.State = State{}
	}
	for k, v := range state {
		d.State[k] = deepCopyValue(v)
	}
	now := time.Now().UTC()
	d.StateUpdatedAt = &now
	d.UpdatedAt = now
	return nil
}

// GetVariable retrieves a logic variable.
func (m *MemoryRepository) GetVariable(_ context.Context, name string) (*Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.variables[name]
	if !ok {
		return nil, ErrVariableNotFound
	}
	cpy := *v
	return &cpy, nil
}

// ListVariables retrieves all logic variables ordered by name.
func (m *MemoryRepository) ListVariables(_ context.Context) ([]Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vars := make([]Variable, 0, len(m.variables))
	for _, v := range m.variables {
		vars = append(vars, *v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars, nil
}

// SaveVariable inserts or replaces a logic variable.
func (m *MemoryRepository) SaveVariable(_ context.Context, v *Variable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v.UpdatedAt = time.Now().UTC()
	cpy := *v
	m.variables[v.Name] = &cpy
	return nil
}
