package binding

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Resolver turns configuration ids into binding records.
//
// It never fails: unassigned ids, unknown ids and lookup errors all resolve
// to the unbound record (or a nil display binding), and errors are logged.
// Rows are cached after the first lookup; writes made through the Resolver
// invalidate the affected entry.
//
// All public methods are thread-safe.
type Resolver struct {
	repo   Repository
	logger Logger

	mu       sync.RWMutex
	buttons  map[int64]*ButtonConfig
	displays map[int64]*DisplayConfig
}

// NewResolver creates a resolver over repo.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{
		repo:     repo,
		logger:   noopLogger{},
		buttons:  make(map[int64]*ButtonConfig),
		displays: make(map[int64]*DisplayConfig),
	}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// ResolveButtonSide returns the binding for one side of a button pair.
func (r *Resolver) ResolveButtonSide(ctx context.Context, configID *int64, side protocol.Side) Record {
	if configID == nil {
		return ZeroRecord()
	}

	cfg, err := r.buttonConfig(ctx, *configID)
	if err != nil {
		r.logLookup(err, "button config lookup failed", *configID)
		return ZeroRecord()
	}

	sc := cfg.Left
	if side == protocol.Right {
		sc = cfg.Right
	}
	rec, err := sc.record()
	if err != nil {
		r.logger.Warn("button config is invalid", "config_id", *configID, "side", side.String(), "error", err)
		return ZeroRecord()
	}
	return rec
}

// ResolveDisplay returns the binding of a display connector, or nil when
// the id is unassigned or unknown.
func (r *Resolver) ResolveDisplay(ctx context.Context, configID *int64) *DisplayBinding {
	if configID == nil {
		return nil
	}

	cfg, err := r.displayConfig(ctx, *configID)
	if err != nil {
		r.logLookup(err, "display config lookup failed", *configID)
		return nil
	}

	b := &DisplayBinding{ConfigID: cfg.ID, Lines: make([]DisplayLine, len(cfg.Items))}
	for i, it := range cfg.Items {
		b.Lines[i] = DisplayLine{
			Line:      i,
			Device:    it.Device,
			Attribute: it.Attribute,
			Label:     it.Label,
			Unit:      it.Unit,
			X:         it.X,
			Y:         it.Y,
			Width:     it.Width,
			BrokerID:  it.BrokerID,
		}
	}
	return b
}

// SaveButtonConfig validates and stores c, then drops its cache entry.
func (r *Resolver) SaveButtonConfig(ctx context.Context, c *ButtonConfig) error {
	if err := ValidateButtonConfig(c); err != nil {
		return err
	}
	if err := r.repo.SaveButtonConfig(ctx, c); err != nil {
		return err
	}
	r.Invalidate(c.ID)
	return nil
}

// SaveDisplayConfig validates and stores c, then drops its cache entry.
func (r *Resolver) SaveDisplayConfig(ctx context.Context, c *DisplayConfig) error {
	if err := ValidateDisplayConfig(c); err != nil {
		return err
	}
	if err := r.repo.SaveDisplayConfig(ctx, c); err != nil {
		return err
	}
	r.Invalidate(c.ID)
	return nil
}

// Invalidate drops cached button and display rows with the given id.
func (r *Resolver) Invalidate(id int64) {
	r.mu.Lock()
	delete(r.buttons, id)
	delete(r.displays, id)
	r.mu.Unlock()
}

// InvalidateAll empties the cache.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.buttons = make(map[int64]*ButtonConfig)
	r.displays = make(map[int64]*DisplayConfig)
	r.mu.Unlock()
}

func (r *Resolver) buttonConfig(ctx context.Context, id int64) (*ButtonConfig, error) {
	r.mu.RLock()
	c, ok := r.buttons[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err := r.repo.GetButtonConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.buttons[id] = c
	r.mu.Unlock()
	return c, nil
}

func (r *Resolver) displayConfig(ctx context.Context, id int64) (*DisplayConfig, error) {
	r.mu.RLock()
	c, ok := r.displays[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err := r.repo.GetDisplayConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.displays[id] = c
	r.mu.Unlock()
	return c, nil
}

func (r *Resolver) logLookup(err error, msg string, id int64) {
	if errors.Is(err, ErrConfigNotFound) {
		r.logger.Debug(msg, "config_id", id, "error", err)
		return
	}
	r.logger.Warn(msg, "config_id", id, "error", err)
}
