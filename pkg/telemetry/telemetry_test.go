package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"dk154mock/pkg/astro"
	"dk154mock/pkg/hardware"
	"dk154mock/pkg/tcpserver"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeClient struct {
	mu         sync.Mutex
	connected  bool
	published  map[string][]any
	handlers   map[string]mqtt.MessageHandler
	subscribed chan string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connected:  true,
		published:  map[string][]any{},
		handlers:   map[string]mqtt.MessageHandler{},
		subscribed: make(chan string, 1),
	}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[topic] = append(c.published[topic], payload)
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	c.handlers[topic] = callback
	c.mu.Unlock()
	c.subscribed <- topic
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	return &fakeToken{}
}

func (c *fakeClient) messages(topic string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.published[topic]...)
}

func newTestObservatory() (*hardware.Observatory, log.FieldLogger) {
	l := log.New()
	l.SetOutput(io.Discard)
	devices := hardware.NewDevices(hardware.DefaultTiming(), astro.LaSilla, hardware.DefaultPark(), l)
	return hardware.NewObservatory(devices, hardware.SystemClock{}, l), l
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.TopicRoot = "test"
	cfg.Interval = time.Hour
	return cfg
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate(), "disabled config is not checked")
	assert.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.Broker = ""
	assert.Error(t, cfg.Validate())
	cfg = testConfig()
	cfg.Interval = 0
	assert.Error(t, cfg.Validate())
}

func TestPublishStatus(t *testing.T) {
	obs, l := newTestObservatory()
	client := newFakeClient()
	p := NewPublisher(client, obs, nil, testConfig(), l)

	p.publishStatus()

	for _, device := range []string{"telescope", "dome", "flaps", "wheels", "focuser", "dfosc", "camera"} {
		require.Len(t, client.messages("test/"+device), 1, device)
	}

	var doc struct {
		Data hardware.TelescopeStatus `json:"data"`
	}
	payload, ok := client.messages("test/telescope")[0].([]byte)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Equal(t, hardware.TelescopeTracking, doc.Data.State)
	assert.True(t, doc.Data.Power)
}

func TestRunRequiresConnection(t *testing.T) {
	obs, l := newTestObservatory()
	client := newFakeClient()
	client.connected = false

	err := NewPublisher(client, obs, nil, testConfig(), l).Run(context.Background())
	assert.Error(t, err)
}

func TestRunAnswersCommands(t *testing.T) {
	obs, l := newTestObservatory()
	client := newFakeClient()
	responder := tcpserver.ResponderFunc(func(_ context.Context, frame string) string {
		return "echo " + frame
	})
	p := NewPublisher(client, obs, responder, testConfig(), l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case topic := <-client.subscribed:
		assert.Equal(t, "test/commands", topic)
	case <-time.After(time.Second):
		t.Fatal("no subscription")
	}

	client.mu.Lock()
	handler := client.handlers["test/commands"]
	client.mu.Unlock()
	handler(nil, &fakeMessage{topic: "test/commands", payload: []byte("TERS")})
	assert.Equal(t, []any{"echo TERS"}, client.messages("test/responses"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	client.mu.Lock()
	assert.Empty(t, client.handlers, "unsubscribed on exit")
	client.mu.Unlock()
	assert.NotEmpty(t, client.messages("test/dome"), "status published on start")
}
