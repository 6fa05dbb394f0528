package event

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
)

// SyncProducer is the subset of producer behaviour the Kafka observer needs.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// KafkaObserver publishes delivery events to a Kafka topic so downstream
// consumers (analytics pipelines, billing jobs) can react without coupling
// to the dispatcher.
type KafkaObserver struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewKafkaObserver constructs a Kafka-backed observer. Returns nil when the
// producer is missing so callers can skip attachment.
func NewKafkaObserver(producer SyncProducer, topic string, logger zerolog.Logger) *KafkaObserver {
	if producer == nil || topic == "" {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &KafkaObserver{producer: producer, topic: topic, logger: logger}
}

// Name implements Observer.
func (o *KafkaObserver) Name() string { return "kafka-events" }

// Update implements Observer. Publish failures are logged, never propagated;
// a broker outage must not turn a delivered notification into a failure.
func (o *KafkaObserver) Update(_ context.Context, ev models.NotificationEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		o.logger.Error().Err(err).Str("message_id", ev.ID).Msg("kafka observer: marshal event")
		return
	}

	if err := o.producer.PublishSync(o.topic, []byte(ev.ID), nil, payload); err != nil {
		o.logger.Error().
			Err(err).
			Str("message_id", ev.ID).
			Str("topic", o.topic).
			Msg("kafka observer: publish event")
	}
}
