package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
)

// fakeToken is a completed paho token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic    string
	payload  []byte
	retained bool
}

// fakePaho records calls made through the pahomqtt.Client interface.
type fakePaho struct {
	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []published
	handlers   map[string]pahomqtt.MessageHandler
}

func newFakePaho() *fakePaho {
	return &fakePaho{connected: true, handlers: make(map[string]pahomqtt.MessageHandler)}
}

func (f *fakePaho) IsConnected() bool      { return f.connected }
func (f *fakePaho) IsConnectionOpen() bool { return f.connected }
func (f *fakePaho) Connect() pahomqtt.Token {
	return newFakeToken(nil)
}
func (f *fakePaho) Disconnect(uint) { f.connected = false }

func (f *fakePaho) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	f.published = append(f.published, published{topic: topic, payload: b, retained: retained})
	return newFakeToken(f.publishErr)
}

func (f *fakePaho) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	f.handlers[topic] = cb
	f.mu.Unlock()
	return newFakeToken(nil)
}

func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return newFakeToken(nil)
}

func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	for _, t := range topics {
		delete(f.handlers, t)
	}
	f.mu.Unlock()
	return newFakeToken(nil)
}

func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler) {}

func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

func (f *fakePaho) deliver(topic string, payload []byte) {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	if h != nil {
		h(f, fakeMessage{topic: topic, payload: payload})
	}
}

func (f *fakePaho) publishedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.published))
	for _, p := range f.published {
		out = append(out, p.topic)
	}
	return out
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func connectedClient(t *testing.T, brokerID string) (*Client, *fakePaho) {
	t.Helper()
	fp := newFakePaho()
	c := newClient(fp, brokerID, "test-"+brokerID, 1)
	c.connected = true
	return c, fp
}

// =============================================================================
// Options
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		QoS:  1,
		Auth: config.MQTTAuthConfig{Username: "shared", Password: "pw"},
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     30,
		},
	}
	b := config.MQTTBrokerConfig{ID: "lab", Host: "10.0.0.9", Port: 8883, TLS: true}

	opts := buildClientOptions(cfg, b)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://10.0.0.9:8883" {
		t.Errorf("Servers = %v, want ssl://10.0.0.9:8883", opts.Servers)
	}
	if opts.ClientID != "graylogic-panels-lab" {
		t.Errorf("ClientID = %q, want derived from broker id", opts.ClientID)
	}
	if opts.Username != "shared" {
		t.Errorf("Username = %q, want shared credentials", opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig = nil, want TLS enabled")
	}
	statusTopic := Topics{}.SystemStatus()
	if !opts.WillEnabled || opts.WillTopic != statusTopic {
		t.Errorf("LWT not configured on %q", statusTopic)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	got := buildStatusPayload("panels-1", "offline", "graceful_shutdown")
	for _, want := range []string{`"status":"offline"`, `"client_id":"panels-1"`, `"reason":"graceful_shutdown"`} {
		if !strings.Contains(got, want) {
			t.Errorf("payload %s missing %s", got, want)
		}
	}
	if strings.Contains(buildStatusPayload("x", "online", ""), "reason") {
		t.Error("online payload should not carry a reason")
	}
}

// =============================================================================
// Client
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestClose_PublishesOffline(t *testing.T) {
	c, fp := connectedClient(t, "homey")

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	topics := fp.publishedTopics()
	statusTopic := Topics{}.SystemStatus()
	if len(topics) != 1 || topics[0] != statusTopic {
		t.Errorf("published %v, want offline status only", topics)
	}
}

func TestHealthCheck(t *testing.T) {
	c, fp := connectedClient(t, "homey")

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}

	fp.connected = false
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	c, _ := connectedClient(t, "homey")

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "a/b", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "a/b", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublish_Disconnected(t *testing.T) {
	c, fp := connectedClient(t, "homey")
	fp.connected = false

	if err := c.Publish("a/b", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.PublishAsync("a/b", nil, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishAsync() error = %v, want ErrNotConnected", err)
	}
}

func TestPublish_BrokerError(t *testing.T) {
	c, fp := connectedClient(t, "homey")
	fp.publishErr = errors.New("not authorised")

	if err := c.Publish("a/b", []byte("1"), 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishAsync_LogsBrokerError(t *testing.T) {
	c, fp := connectedClient(t, "homey")
	fp.publishErr = errors.New("not authorised")
	logger := &mockLogger{}
	c.SetLogger(logger)

	if err := c.PublishAsync("a/b", []byte("1"), false); err != nil {
		t.Fatalf("PublishAsync() error = %v, want nil", err)
	}

	deadline := time.Now().Add(time.Second)
	for logger.warnCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if logger.warnCount() != 1 {
		t.Errorf("warn count = %d, want 1", logger.warnCount())
	}
}

func TestSubscribe_TracksAndDelivers(t *testing.T) {
	c, fp := connectedClient(t, "homey")

	var got []string
	err := c.Subscribe("bp/+/+/click", 1, func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !c.HasSubscription("bp/+/+/click") || c.SubscriptionCount() != 1 {
		t.Error("subscription not tracked")
	}

	fp.deliver("bp/+/+/click", []byte("true"))
	if len(got) != 1 || got[0] != "bp/+/+/click=true" {
		t.Errorf("handler got %v", got)
	}

	if err := c.Unsubscribe("bp/+/+/click"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after unsubscribe", c.SubscriptionCount())
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c, _ := connectedClient(t, "homey")
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("a", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos error = %v", err)
	}
	if err := c.Subscribe("a", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
}

func TestWrapHandler_RecoversPanicAndLogsErrors(t *testing.T) {
	c, fp := connectedClient(t, "homey")
	logger := &mockLogger{}
	c.SetLogger(logger)

	_ = c.Subscribe("panic", 0, func(string, []byte) error { panic("boom") })
	_ = c.Subscribe("fail", 0, func(string, []byte) error { return errors.New("bad payload") })

	fp.deliver("panic", nil)
	fp.deliver("fail", nil)

	if len(logger.errors) != 1 {
		t.Errorf("errors logged = %d, want 1 (panic)", len(logger.errors))
	}
	if logger.warnCount() != 1 {
		t.Errorf("warns logged = %d, want 1 (handler error)", logger.warnCount())
	}
}

func TestHandleConnect_RestoresSubscriptions(t *testing.T) {
	c, fp := connectedClient(t, "homey")
	_ = c.Subscribe("a/b", 1, func(string, []byte) error { return nil })
	fp.handlers = make(map[string]pahomqtt.MessageHandler)

	called := false
	c.SetOnConnect(func() { called = true })
	c.handleConnect()

	if _, ok := fp.handlers["a/b"]; !ok {
		t.Error("subscription not restored on reconnect")
	}
	if !called {
		t.Error("onConnect callback not invoked")
	}
}

// =============================================================================
// Pool
// =============================================================================

func TestPool_RoutesByBroker(t *testing.T) {
	homey, homeyFake := connectedClient(t, "homey")
	lab, labFake := connectedClient(t, "lab")

	p := NewPool("homey")
	p.Add(homey)
	p.Add(lab)

	if err := p.Publish("", "bp/p/0/value", []byte("true")); err != nil {
		t.Fatalf("Publish(default) error = %v", err)
	}
	if err := p.Publish("lab", "bp/p/1/value", []byte("false")); err != nil {
		t.Fatalf("Publish(lab) error = %v", err)
	}

	if got := homeyFake.publishedTopics(); len(got) != 1 || got[0] != "bp/p/0/value" {
		t.Errorf("homey published %v", got)
	}
	if got := labFake.publishedTopics(); len(got) != 1 || got[0] != "bp/p/1/value" {
		t.Errorf("lab published %v", got)
	}

	if ids := p.BrokerIDs(); len(ids) != 2 || ids[0] != "homey" || ids[1] != "lab" {
		t.Errorf("BrokerIDs() = %v", ids)
	}
}

func TestPool_UnknownBroker(t *testing.T) {
	p := NewPool("homey")

	if err := p.Publish("nope", "a", nil); !errors.Is(err, ErrUnknownBroker) {
		t.Errorf("Publish() error = %v, want ErrUnknownBroker", err)
	}
	if err := p.Subscribe("", "a", func(string, []byte) error { return nil }); !errors.Is(err, ErrUnknownBroker) {
		t.Errorf("Subscribe() error = %v, want ErrUnknownBroker", err)
	}
}

func TestPool_HealthCheckAndClose(t *testing.T) {
	homey, _ := connectedClient(t, "homey")
	lab, labFake := connectedClient(t, "lab")
	p := NewPool("homey")
	p.Add(homey)
	p.Add(lab)

	labFake.connected = false
	if err := p.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if len(p.BrokerIDs()) != 0 {
		t.Error("pool not emptied by Close()")
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		got, want string
	}{
		{topics.CoreDeviceState("lamp-1"), "graylogic/core/device/lamp-1/state"},
		{topics.CoreDeviceCommand("lamp-1"), "graylogic/core/device/lamp-1/set"},
		{topics.CorePanelTrigger("hall", "button_on"), "graylogic/core/panel/hall/trigger/button_on"},
		{topics.SystemStatus(), "graylogic/system/panels/status"},
		{topics.AllCoreDeviceStates(), "graylogic/core/device/+/state"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}
