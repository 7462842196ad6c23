// Package messaging publishes grievance events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrTopicRequired is returned when a publisher is built without a topic.
var ErrTopicRequired = errors.New("kafka topic required")

// StatusChangedEvent announces a grievance status transition.
type StatusChangedEvent struct {
	TrackingID string    `json:"tracking_id"`
	Department string    `json:"department"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	Phone      string    `json:"phone"`
	SMS        string    `json:"sms"`
	OccurredAt time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON events keyed by tracking ID.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher builds a Kafka publisher, or nil when no brokers are configured.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	if topic == "" {
		return nil, ErrTopicRequired
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newPublisher(writer, topic, logger), nil
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// PublishStatusChanged writes one event. A nil publisher is a no-op.
func (p *Publisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.TrackingID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("grievance.status_changed")},
		},
		Time: event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
