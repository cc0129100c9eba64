package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/mqtt"
)

// Bus is the subset of the MQTT pool used by StateSync.
type Bus interface {
	Publish(brokerID, topic string, payload []byte) error
	Subscribe(brokerID, topic string, handler mqtt.MessageHandler) error
}

// commandMessage is the payload published on the device command topic.
type commandMessage struct {
	Capability string `json:"capability"`
	Value      any    `json:"value"`
	Source     string `json:"source"`
	Timestamp  string `json:"timestamp"`
}

// StateSync mirrors device state from the core's MQTT topics into the
// registry, and forwards local writes back as device commands.
//
//	sync := device.NewStateSync(registry, pool, "")
//	registry.SetCommandSink(sync)
//	if err := sync.Start(ctx); err != nil {
//	    return err
//	}
type StateSync struct {
	registry *Registry
	bus      Bus
	brokerID string
	topics   mqtt.Topics
	logger   Logger
	ctx      context.Context //nolint:containedctx // handlers outlive Start
}

// NewStateSync creates a state synchroniser for the given broker.
// An empty brokerID selects the pool's default broker.
func NewStateSync(registry *Registry, bus Bus, brokerID string) *StateSync {
	return &StateSync{
		registry: registry,
		bus:      bus,
		brokerID: brokerID,
		logger:   noopLogger{},
		ctx:      context.Background(),
	}
}

// SetLogger sets the logger for the synchroniser.
func (s *StateSync) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to every device state topic.
func (s *StateSync) Start(ctx context.Context) error {
	s.ctx = ctx
	if err := s.bus.Subscribe(s.brokerID, s.topics.AllCoreDeviceStates(), s.handleState); err != nil {
		return fmt.Errorf("subscribing to device states: %w", err)
	}
	return nil
}

// SendCommand implements CommandSink.
func (s *StateSync) SendCommand(_ context.Context, deviceID, capability string, value any) error {
	payload, err := json.Marshal(commandMessage{
		Capability: capability,
		Value:      value,
		Source:     "panels",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling command: %w", err)
	}
	return s.bus.Publish(s.brokerID, s.topics.CoreDeviceCommand(deviceID), payload)
}

// handleState applies one device state message.
// Payload: {"onoff": true, "dim": 0.4}
func (s *StateSync) handleState(topic string, payload []byte) error {
	deviceID, ok := deviceIDFromStateTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected state topic %q", topic)
	}

	var values State
	if err := json.Unmarshal(payload, &values); err != nil {
		return fmt.Errorf("decoding state for %s: %w", deviceID, err)
	}

	err := s.registry.ApplyState(s.ctx, deviceID, values, OriginSync)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		s.logger.Debug("state for unknown device ignored", "device_id", deviceID)
	case err != nil:
		return err
	}
	return nil
}

// deviceIDFromStateTopic extracts {id} from graylogic/core/device/{id}/state.
func deviceIDFromStateTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, mqtt.TopicPrefixCore+"/device/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/state")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
