package panel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-panels/internal/dispatch"
)

// Registrar is the part of the dispatcher the manager wires panels into.
type Registrar interface {
	AddObserver(o dispatch.StateObserver)
	RegisterDeviceCapability(ctx context.Context, deviceID, attribute string) error
}

// Manager holds every configured panel controller.
//
// Thread Safety: Add, Get and List are safe from any goroutine. Wire and
// ResyncAll must run on the event loop, or before it starts.
type Manager struct {
	mu     sync.RWMutex
	panels map[string]*Controller
	logger Logger
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		panels: make(map[string]*Controller),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Add registers a controller. Panel ids must be unique.
func (m *Manager) Add(c *Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.panels[c.ID()]; ok {
		return fmt.Errorf("%w: duplicate panel id %q", ErrInvalidPanel, c.ID())
	}
	m.panels[c.ID()] = c
	return nil
}

// Get returns the controller with the given topic id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.panels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, id)
	}
	return c, nil
}

// List returns all controllers ordered by id.
func (m *Manager) List() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Controller, 0, len(m.panels))
	for _, c := range m.panels {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Count returns the number of panels.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.panels)
}

// Start subscribes every panel to its inbound topics.
func (m *Manager) Start(ctx context.Context) error {
	for _, c := range m.List() {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("starting panel %s: %w", c.ID(), err)
		}
	}
	return nil
}

// Wire adds every panel as an observer and registers the pairs they are
// bound to. Registration failures for individual pairs are logged and
// joined into the returned error; the remaining pairs are still wired.
func (m *Manager) Wire(ctx context.Context, r Registrar) error {
	var errs []error
	for _, c := range m.List() {
		r.AddObserver(c)
		for _, b := range c.Bindings(ctx) {
			if err := r.RegisterDeviceCapability(ctx, b.DeviceID, b.Attribute); err != nil {
				m.logger.Warn("binding not registered",
					"panel_id", c.ID(), "device_id", b.DeviceID, "attribute", b.Attribute, "error", err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ResyncAll republishes the state of every panel.
func (m *Manager) ResyncAll(ctx context.Context) {
	for _, c := range m.List() {
		c.Resync(ctx)
	}
}
