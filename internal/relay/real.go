package relay

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"homedash/internal/models"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	prefix string
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID, prefix string) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client, prefix: prefix}, nil
}

// PublishLamp sends the lamp command, retained so a device that reconnects
// picks up the last state.
func (p *RealPublisher) PublishLamp(homeID string, cmd models.LampCommand) error {
	payload, err := FormatLampPayload(cmd)
	if err != nil {
		return fmt.Errorf("format lamp payload: %w", err)
	}
	return p.publish(LampTopic(p.prefix, homeID), payload)
}

// PublishSettings sends the logging interval, retained.
func (p *RealPublisher) PublishSettings(homeID string, logPeriodSec int) error {
	payload, err := FormatSettingsPayload(logPeriodSec, time.Now())
	if err != nil {
		return fmt.Errorf("format settings payload: %w", err)
	}
	return p.publish(SettingsTopic(p.prefix, homeID), payload)
}

func (p *RealPublisher) publish(topic string, payload []byte) error {
	// QoS 1 (at-least-once), retained
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
