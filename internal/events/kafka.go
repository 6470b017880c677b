package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON values to a single topic.
type KafkaPublisher struct {
	writer Writer
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: w, topic: topic}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Publish marshals the value to JSON and writes a message keyed by key.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", p.topic, err)
	}
	msg := kafka.Message{Key: []byte(key), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.WithFields(log.Fields{"topic": p.topic, "key": key}).WithError(err).Warn("kafka write failed")
		return fmt.Errorf("write %s message: %w", p.topic, err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
