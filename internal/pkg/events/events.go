// Package events publishes ledger events for downstream consumers
// (analytics, partner integrations). Publishing is best effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeSaleConfirmed         = "sale.confirmed"
	TypeSaleRefunded          = "sale.refunded"
	TypeSubscriptionExpired   = "subscription.expired"
	TypeSubscriptionActivated = "subscription.activated"
)

// Event is the envelope written to the topic. Key is the subscriber id so a
// subscriber's events stay ordered within one partition.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher is implemented by KafkaPublisher and LogPublisher.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
	Close() error
}

// New returns a Kafka publisher, or a log-only publisher when no brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		log.Warn().Msg("Kafka brokers not configured, ledger events will only be logged")
		return LogPublisher{}
	}
	return NewKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events with segmentio/kafka-go.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	msg, err := encode(eventType, key, payload, p.now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(eventType, key string, payload interface{}, at time.Time) (kafka.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	value, err := json.Marshal(Event{Type: eventType, Key: key, OccurredAt: at.UTC(), Payload: body})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(eventType)}},
		Time:    at,
	}, nil
}

// LogPublisher logs events at debug level instead of publishing.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	log.Debug().Str("event", eventType).Str("key", key).Interface("payload", payload).Msg("ledger event")
	return nil
}

func (LogPublisher) Close() error { return nil }
