package automation

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	brokerID string
	topic    string
	payload  []byte
}

// MockMQTTClient records publishes.
type MockMQTTClient struct {
	messages []publishedMessage
	err      error
}

func (m *MockMQTTClient) Publish(brokerID, topic string, payload []byte) error {
	m.messages = append(m.messages, publishedMessage{brokerID, topic, payload})
	return m.err
}

func decode(t *testing.T, msg publishedMessage) Event {
	t.Helper()
	var e Event
	require.NoError(t, json.Unmarshal(msg.payload, &e))
	return e
}

func TestPublisher_ButtonTriggers(t *testing.T) {
	client := &MockMQTTClient{}
	p := NewPublisher(client, "core")
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.ButtonOn("hall", true, 2)
	p.ButtonOff("hall", false, 2)
	p.LongPress("hall", true, 0)
	p.Release("hall", true, 0)

	require.Len(t, client.messages, 4)
	wantTopics := []string{
		"graylogic/core/panel/hall/trigger/button_on",
		"graylogic/core/panel/hall/trigger/button_off",
		"graylogic/core/panel/hall/trigger/long_press",
		"graylogic/core/panel/hall/trigger/release",
	}
	for i, msg := range client.messages {
		assert.Equal(t, "core", msg.brokerID)
		assert.Equal(t, wantTopics[i], msg.topic)
	}

	e := decode(t, client.messages[1])
	assert.Equal(t, TriggerButtonOff, e.Kind)
	assert.Equal(t, "right", e.Side)
	assert.Equal(t, 2, e.Connector)
	assert.Equal(t, fixed, e.Timestamp)
	assert.Nil(t, e.ConfigID)
	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)
}

func TestPublisher_ConfigButton(t *testing.T) {
	client := &MockMQTTClient{}
	p := NewPublisher(client, "")

	p.ConfigButton("hall", true, 3, "buttonpair", 7, PhaseClicked, false)

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "graylogic/core/panel/hall/trigger/config_button", msg.topic)

	e := decode(t, msg)
	require.NotNil(t, e.ConfigID)
	assert.Equal(t, int64(7), *e.ConfigID)
	assert.Equal(t, PhaseClicked, e.Phase)
	assert.Equal(t, "buttonpair", e.ConnectorType)
	assert.Equal(t, false, e.Value, "false values must survive omitempty")
}

func TestPublisher_UniqueIDs(t *testing.T) {
	client := &MockMQTTClient{}
	p := NewPublisher(client, "")

	p.ButtonOn("hall", true, 0)
	p.ButtonOn("hall", true, 0)

	assert.NotEqual(t, decode(t, client.messages[0]).ID, decode(t, client.messages[1]).ID)
}

func TestPublisher_PublishFailureIsSwallowed(t *testing.T) {
	client := &MockMQTTClient{err: errors.New("not connected")}
	p := NewPublisher(client, "")

	assert.NotPanics(t, func() { p.Release("hall", false, 1) })
	assert.Len(t, client.messages, 1)
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) HandleTrigger(e Event) {
	s.events = append(s.events, e)
}

func TestPublisher_SinksSeeEveryEvent(t *testing.T) {
	client := &MockMQTTClient{err: errors.New("broker down")}
	p := NewPublisher(client, "")
	sink := &recordingSink{}
	p.AddSink(sink)

	p.ButtonOn("hall", true, 1)
	p.ConfigButton("hall", false, 1, "buttonpair", 7, PhaseReleased, nil)

	require.Len(t, sink.events, 2)
	assert.Equal(t, TriggerButtonOn, sink.events[0].Kind)
	assert.Equal(t, TriggerConfigButton, sink.events[1].Kind)
	assert.Equal(t, decode(t, client.messages[1]).ID, sink.events[1].ID)
}
