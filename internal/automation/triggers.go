package automation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/mqtt"
)

// Triggers receives the automation triggers fired by panels.
// Calls are fire-and-forget.
type Triggers interface {
	ButtonOn(panelID string, isLeft bool, connector int)
	ButtonOff(panelID string, isLeft bool, connector int)
	LongPress(panelID string, isLeft bool, connector int)
	Release(panelID string, isLeft bool, connector int)
	ConfigButton(panelID string, isLeft bool, connector int, connectorType string, configID int64, phase Phase, value any)
}

// NopTriggers discards every trigger.
type NopTriggers struct{}

func (NopTriggers) ButtonOn(string, bool, int)                                {}
func (NopTriggers) ButtonOff(string, bool, int)                               {}
func (NopTriggers) LongPress(string, bool, int)                               {}
func (NopTriggers) Release(string, bool, int)                                 {}
func (NopTriggers) ConfigButton(string, bool, int, string, int64, Phase, any) {}

// MQTTClient is the interface for publishing trigger events.
type MQTTClient interface {
	Publish(brokerID, topic string, payload []byte) error
}

// Sink receives a copy of every trigger event after it is built.
// HandleTrigger is called on the event loop and must not block.
type Sink interface {
	HandleTrigger(e Event)
}

// Logger defines the logging interface used by the Publisher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Publisher implements Triggers by publishing an Event on
// graylogic/core/panel/{panel}/trigger/{kind}, where the automation
// engine picks it up.
type Publisher struct {
	mqtt     MQTTClient
	brokerID string
	topics   mqtt.Topics
	logger   Logger
	sinks    []Sink
	now      func() time.Time
}

// NewPublisher creates a trigger publisher on brokerID (empty means default).
func NewPublisher(client MQTTClient, brokerID string) *Publisher {
	return &Publisher{
		mqtt:     client,
		brokerID: brokerID,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// AddSink registers s to receive every event this publisher fires.
// Sinks are added during setup, before any trigger fires.
func (p *Publisher) AddSink(s Sink) {
	p.sinks = append(p.sinks, s)
}

// ButtonOn fires when a button turns on.
func (p *Publisher) ButtonOn(panelID string, isLeft bool, connector int) {
	p.publish(p.event(TriggerButtonOn, panelID, isLeft, connector))
}

// ButtonOff fires when a button turns off.
func (p *Publisher) ButtonOff(panelID string, isLeft bool, connector int) {
	p.publish(p.event(TriggerButtonOff, panelID, isLeft, connector))
}

// LongPress fires for every long-press report while a button is held.
func (p *Publisher) LongPress(panelID string, isLeft bool, connector int) {
	p.publish(p.event(TriggerLongPress, panelID, isLeft, connector))
}

// Release fires when a held button is let go.
func (p *Publisher) Release(panelID string, isLeft bool, connector int) {
	p.publish(p.event(TriggerRelease, panelID, isLeft, connector))
}

// ConfigButton fires for gestures on buttons bound to a configuration.
func (p *Publisher) ConfigButton(panelID string, isLeft bool, connector int, connectorType string, configID int64, phase Phase, value any) {
	e := p.event(TriggerConfigButton, panelID, isLeft, connector)
	e.ConnectorType = connectorType
	e.ConfigID = &configID
	e.Phase = phase
	e.Value = value
	p.publish(e)
}

func (p *Publisher) event(kind TriggerKind, panelID string, isLeft bool, connector int) Event {
	side := "right"
	if isLeft {
		side = "left"
	}
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		PanelID:   panelID,
		Connector: connector,
		Side:      side,
		Timestamp: p.now().UTC(),
	}
}

func (p *Publisher) publish(e Event) {
	for _, s := range p.sinks {
		s.HandleTrigger(e)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("encoding trigger failed", "kind", e.Kind, "error", err)
		return
	}
	topic := p.topics.CorePanelTrigger(e.PanelID, string(e.Kind))
	if err := p.mqtt.Publish(p.brokerID, topic, payload); err != nil {
		p.logger.Warn("publishing trigger failed", "topic", topic, "error", err)
		return
	}
	p.logger.Debug("trigger fired", "kind", e.Kind, "panel_id", e.PanelID, "connector", e.Connector, "side", e.Side)
}
