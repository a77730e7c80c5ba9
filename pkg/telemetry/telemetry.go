// Package telemetry publishes observatory status over MQTT and optionally
// accepts ASCOL commands on a command topic.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dk154mock/pkg/hardware"
	"dk154mock/pkg/tcpserver"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Enabled   bool          `yaml:"enabled"`
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	TopicRoot string        `yaml:"topic_root"`
	Interval  time.Duration `yaml:"interval"`
	Commands  bool          `yaml:"commands"` // accept ASCOL frames on <root>/commands
}

func DefaultConfig() Config {
	return Config{
		Broker:    "tcp://localhost:1883",
		ClientID:  "dk154-mock",
		TopicRoot: "dk154",
		Interval:  5 * time.Second,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker cannot be empty")
	}
	if c.TopicRoot == "" {
		return fmt.Errorf("mqtt topic root cannot be empty")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("invalid telemetry interval: %v", c.Interval)
	}
	return nil
}

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// Connect creates a paho client for cfg and connects it.
func Connect(cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.SetClientID(cfg.ClientID)
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	return client, nil
}

// Publisher periodically publishes one JSON document per device.
type Publisher struct {
	client    Client
	obs       *hardware.Observatory
	responder tcpserver.Responder
	root      string
	interval  time.Duration
	logger    log.FieldLogger
}

// NewPublisher returns a publisher. A nil responder disables the command topic.
func NewPublisher(client Client, obs *hardware.Observatory, responder tcpserver.Responder, cfg Config, logger log.FieldLogger) *Publisher {
	return &Publisher{
		client:    client,
		obs:       obs,
		responder: responder,
		root:      cfg.TopicRoot,
		interval:  cfg.Interval,
		logger:    logger.WithField("component", "telemetry"),
	}
}

// Run publishes until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	if p.responder != nil {
		topic := p.root + "/commands"
		if token := p.client.Subscribe(topic, 0, p.commandHandler(ctx)); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to %s: %v", topic, token.Error())
		}
		defer p.client.Unsubscribe(topic)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.publishStatus()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.publishStatus()
		}
	}
}

func (p *Publisher) publishStatus() {
	s := p.obs.Status()
	docs := map[string]any{
		"telescope": s.Telescope,
		"dome":      s.Dome,
		"flaps":     s.Flaps,
		"wheels":    s.Wheels,
		"focuser":   s.Focuser,
		"dfosc":     s.DFOSC,
		"camera":    s.Camera,
	}
	for device, doc := range docs {
		payload, err := json.Marshal(struct {
			Time time.Time `json:"time"`
			Data any       `json:"data"`
		}{s.Time, doc})
		if err != nil {
			p.logger.Errorf("Failed to marshal %s status: %v", device, err)
			continue
		}
		p.publish(p.root+"/"+device, payload)
	}
}

func (p *Publisher) publish(topic string, payload any) {
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warnf("Timed out publishing to %s", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Errorf("Failed to publish to %s: %v", topic, err)
	}
}

// commandHandler answers each ASCOL frame on <root>/responses.
func (p *Publisher) commandHandler(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		frame := string(msg.Payload())
		reply := p.responder.Respond(ctx, frame)
		p.logger.Debugf("Command %q -> %q", frame, reply)
		p.publish(p.root+"/responses", reply)
	}
}
