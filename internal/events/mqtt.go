package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	statusQoS         byte = 1
	disconnectQuiesce      = 250
)

// ErrConnectTimeout is returned when the broker does not acknowledge the connection in time.
var ErrConnectTimeout = errors.New("mqtt connect timed out")

// MQTTClient is the part of mqtt.Client the broadcaster uses.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher broadcasts retained status events, one topic per tracking number.
type MQTTPublisher struct {
	client MQTTClient
}

// ConnectMQTT dials the broker and returns a ready publisher.
func ConnectMQTT(broker, clientID string, timeout time.Duration) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: %s", ErrConnectTimeout, broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}

	log.WithFields(log.Fields{"broker": broker, "client_id": clientID}).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client}, nil
}

// NewMQTTPublisherWithClient allows injecting a test client.
func NewMQTTPublisherWithClient(c MQTTClient) *MQTTPublisher {
	return &MQTTPublisher{client: c}
}

// Publish sends value as JSON to the status topic of the tracking number in key.
func (p *MQTTPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	topic := StatusTopic(key)
	token := p.client.Publish(topic, statusQoS, true, b)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}
