package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
)

// ErrNoProducer is returned when a publisher is used without a producer.
var ErrNoProducer = errors.New("kafka publisher: producer not initialised")

// SyncProducer is the producer surface the publishers need.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// StatusPublisher writes notification lifecycle events to a Kafka topic, keyed
// by message ID so all events for one notification land on one partition.
type StatusPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewStatusPublisher builds a StatusPublisher. A nil producer yields nil.
func NewStatusPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *StatusPublisher {
	if prod == nil || topic == "" {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusPublisher{producer: prod, topic: topic, logger: logger}
}

// PublishStatus publishes one status event synchronously.
func (p *StatusPublisher) PublishStatus(_ context.Context, event models.StatusEvent) error {
	if p == nil || p.producer == nil {
		return ErrNoProducer
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal status event: %w", err)
	}
	if err := p.producer.PublishSync(p.topic, []byte(event.MessageID), eventHeaders(event.TraceID), payload); err != nil {
		return fmt.Errorf("kafka publisher: publish status event: %w", err)
	}
	return nil
}

// DLQPublisher writes dead-letter records for requests that could not be
// delivered.
type DLQPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDLQPublisher builds a DLQPublisher. A nil producer yields nil.
func NewDLQPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *DLQPublisher {
	if prod == nil || topic == "" {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DLQPublisher{producer: prod, topic: topic, logger: logger}
}

// PublishDLQ publishes one dead-letter record synchronously.
func (p *DLQPublisher) PublishDLQ(_ context.Context, record models.DLQRecord) error {
	if p == nil || p.producer == nil {
		return ErrNoProducer
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal dlq record: %w", err)
	}
	if err := p.producer.PublishSync(p.topic, []byte(record.MessageID), eventHeaders(record.TraceID), payload); err != nil {
		return fmt.Errorf("kafka publisher: publish dlq record: %w", err)
	}
	return nil
}

func eventHeaders(traceID string) map[string][]byte {
	headers := map[string][]byte{
		"content-type": []byte("application/json"),
	}
	if traceID != "" {
		headers["trace-id"] = []byte(traceID)
	}
	return headers
}
