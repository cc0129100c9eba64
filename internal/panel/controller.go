package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/nerrad567/gray-logic-panels/internal/automation"
	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/dispatch"
	"github.com/nerrad567/gray-logic-panels/internal/eventloop"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// Graph is the part of the device registry a panel needs.
type Graph interface {
	GetCapability(ctx context.Context, deviceID, name string) (device.Capability, error)
	SetCapabilityValue(ctx context.Context, deviceID, name string, value any) error
	ApplyState(ctx context.Context, deviceID string, values device.State, origin device.Origin) error
	GetVariable(ctx context.Context, name string) (device.Variable, error)
}

// Resolver looks up the configuration bound to a connector.
type Resolver interface {
	ResolveButtonSide(ctx context.Context, configID *int64, side protocol.Side) binding.Record
	ResolveDisplay(ctx context.Context, configID *int64) *binding.DisplayBinding
}

// Bus publishes to and subscribes on the panel's broker.
type Bus interface {
	Publish(brokerID, topic string, payload []byte) error
	Subscribe(brokerID, topic string, handler mqtt.MessageHandler) error
}

// Telemetry records panel measurements. Implementations must not block.
type Telemetry interface {
	WritePanelTemperature(panelID string, celsius float64)
	WriteButtonEvent(panelID string, connector int, left bool, gesture string)
}

// Poster queues work on the event loop.
type Poster interface {
	Post(task eventloop.Task)
}

// Logger is the logging interface used by controllers.
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

type noopTelemetry struct{}

func (noopTelemetry) WritePanelTemperature(string, float64)      {}
func (noopTelemetry) WriteButtonEvent(string, int, bool, string) {}

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Graph     Graph
	Resolver  Resolver
	Bus       Bus
	Triggers  automation.Triggers
	Loop      Poster
	Telemetry Telemetry
	Logger    Logger
}

// Controller translates between one physical panel and the automation graph.
//
// All methods except HandleMessage, Start and ID-style accessors must run on
// the event loop. Snapshot takes a read lock so the API can call it directly.
type Controller struct {
	opts   Options
	topics protocol.Topics

	pagesSupported      bool
	brightnessSupported bool

	connectors [protocol.MaxConnectors]Connector

	graph     Graph
	resolver  Resolver
	bus       Bus
	triggers  automation.Triggers
	loop      Poster
	telemetry Telemetry
	logger    Logger

	ctx context.Context

	// mu guards the fields read by Snapshot. Writers run on the loop.
	mu          sync.RWMutex
	buttons     [protocol.MaxButtonIndex + 1]bool
	longPress   map[pressKey]bool
	page        int
	temperature *float64

	displayLast    map[lineKey]any
	brightnessEcho map[protocol.Channel]float64
}

var _ dispatch.StateObserver = (*Controller)(nil)

// New creates a controller. Connectors not listed in opts are unfitted.
func New(opts Options, deps Deps) (*Controller, error) {
	if opts.ID == "" || opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace and id are required", ErrInvalidPanel)
	}
	if deps.Graph == nil || deps.Resolver == nil || deps.Bus == nil || deps.Loop == nil {
		return nil, fmt.Errorf("%w: graph, resolver, bus and loop are required", ErrInvalidPanel)
	}

	c := &Controller{
		opts:                opts,
		topics:              protocol.Topics{Namespace: opts.Namespace, PanelID: opts.ID},
		pagesSupported:      firmwareAtLeast(opts.Firmware, opts.PageMinVersion),
		brightnessSupported: firmwareAtLeast(opts.Firmware, opts.BrightnessMinVersion),
		graph:               deps.Graph,
		resolver:            deps.Resolver,
		bus:                 deps.Bus,
		triggers:            deps.Triggers,
		loop:                deps.Loop,
		telemetry:           deps.Telemetry,
		logger:              deps.Logger,
		ctx:                 context.Background(),
		longPress:           make(map[pressKey]bool),
		page:                1,
		displayLast:         make(map[lineKey]any),
		brightnessEcho:      make(map[protocol.Channel]float64),
	}
	if c.telemetry == nil {
		c.telemetry = noopTelemetry{}
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.triggers == nil {
		c.triggers = automation.NopTriggers{}
	}

	for i := range c.connectors {
		c.connectors[i] = Connector{Index: i, Type: ConnectorUnfitted}
	}
	for _, conn := range opts.Connectors {
		if conn.Index < 0 || conn.Index >= protocol.MaxConnectors {
			return nil, fmt.Errorf("%w: connector index %d out of range", ErrInvalidPanel, conn.Index)
		}
		c.connectors[conn.Index] = conn
	}
	return c, nil
}

// ID returns the panel id used in topics.
func (c *Controller) ID() string { return c.opts.ID }

// DeviceID returns the panel's own device id.
func (c *Controller) DeviceID() string { return c.opts.DeviceID }

// Topics returns the topic builder for this panel.
func (c *Controller) Topics() protocol.Topics { return c.topics }

// PagesSupported reports whether the firmware understands page commands.
func (c *Controller) PagesSupported() bool { return c.pagesSupported }

// BrightnessSupported reports whether the firmware has brightness topics.
func (c *Controller) BrightnessSupported() bool { return c.brightnessSupported }

// Start subscribes to the panel's inbound topics. Messages are handled on
// the loop with ctx.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx = ctx
	for _, topic := range c.topics.Subscriptions(c.brightnessSupported, c.pagesSupported) {
		if err := c.bus.Subscribe(c.opts.BrokerID, topic, c.HandleMessage); err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}
	c.logger.Info("panel started",
		"panel_id", c.opts.ID,
		"firmware", c.opts.Firmware,
		"pages", c.pagesSupported,
		"brightness", c.brightnessSupported,
	)
	return nil
}

// HandleMessage accepts an inbound message from any goroutine and handles
// it on the loop. It always returns nil; rejected messages are logged.
func (c *Controller) HandleMessage(topic string, payload []byte) error {
	t, err := protocol.ParseTopic(topic)
	if err != nil {
		c.logger.Debug("ignoring topic", "topic", topic, "error", err)
		return nil
	}
	if t.PanelID != c.opts.ID {
		return nil
	}
	body := append([]byte(nil), payload...)
	c.loop.Post(func() {
		if err := c.handleTopic(c.ctx, t, body); err != nil {
			c.logger.Warn("panel message rejected", "panel_id", c.opts.ID, "topic", topic, "error", err)
		}
	})
	return nil
}

func (c *Controller) handleTopic(ctx context.Context, t protocol.Topic, payload []byte) error {
	switch {
	case t.Kind.IsGesture():
		return c.HandleInboundEvent(ctx, t.Kind, t.ButtonIndex, payload)
	case t.Kind == protocol.KindBrightness:
		return c.onBrightness(ctx, t.Channel, payload)
	case t.Kind == protocol.KindCurrentPage:
		return c.onCurrentPage(payload)
	case t.Kind == protocol.KindTemperature:
		return c.onTemperature(ctx, payload)
	}
	return nil
}

// publish sends payload to the given broker, falling back to the panel's.
func (c *Controller) publish(brokerID, topic string, payload []byte) {
	if brokerID == "" {
		brokerID = c.opts.BrokerID
	}
	if err := c.bus.Publish(brokerID, topic, payload); err != nil {
		c.logger.Warn("panel publish failed", "panel_id", c.opts.ID, "topic", topic, "error", err)
	}
}

// publishButton writes the value of a button and, when the record carries
// labels, the matching label.
func (c *Controller) publishButton(index int, rec binding.Record, value any, on bool) {
	c.publish(rec.BrokerID, c.topics.Value(index), protocol.EncodeValue(value))
	if rec.HasLabels() {
		c.publish(rec.BrokerID, c.topics.Label(index), []byte(rec.Label(on)))
	}
}

func (c *Controller) setButton(index int, on bool) {
	c.mu.Lock()
	c.buttons[index] = on
	c.mu.Unlock()
}

func (c *Controller) button(index int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buttons[index]
}

// firmwareAtLeast compares dotted versions such as "1.11". An empty minimum
// is always satisfied; an unparseable firmware never satisfies a minimum.
func firmwareAtLeast(firmware, minimum string) bool {
	if minimum == "" {
		return true
	}
	fw, ok := canonicalVersion(firmware)
	if !ok {
		return false
	}
	want, ok := canonicalVersion(minimum)
	if !ok {
		return false
	}
	return semver.Compare(fw, want) >= 0
}

func canonicalVersion(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}

// toFloat reads a numeric capability value.
func toFloat(v any) (float64, bool) {
	switch n := device.NormalizeValue(v).(type) {
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// truthy reads a boolean-like capability value.
func truthy(v any) bool {
	switch val := device.NormalizeValue(v).(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s != "" && s != "false" && s != "0" && s != "off"
	}
	return false
}
