package producer

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// Option customises producer construction.
type Option func(*settings)

type settings struct {
	config *sarama.Config
}

// WithConfig supplies a caller-owned Sarama config; it is cloned internally.
func WithConfig(cfg *sarama.Config) Option {
	return func(s *settings) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// Producer is a synchronous, idempotent Kafka producer. Every publish waits
// for broker acknowledgement so status events and DLQ records are never
// silently lost.
type Producer struct {
	logger zerolog.Logger
	client sarama.Client
	sync   sarama.SyncProducer
	ready  atomic.Bool
}

// New connects to the supplied brokers and builds a sync producer.
func New(brokers []string, logger zerolog.Logger, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka producer: at least one broker is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	s := &settings{config: defaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	client, err := sarama.NewClient(brokers, cloneConfig(s.config))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: create client: %w", err)
	}
	syncProd, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka producer: create sync producer: %w", err)
	}

	p := &Producer{logger: logger, client: client, sync: syncProd}
	p.ready.Store(true)
	return p, nil
}

// PublishSync publishes one message and waits for the broker to acknowledge
// it.
func (p *Producer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	if topic == "" {
		return errors.New("kafka producer: topic is required")
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(payload),
		Headers: recordHeaders(headers),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	if _, _, err := p.sync.SendMessage(msg); err != nil {
		p.ready.Store(false)
		return fmt.Errorf("kafka producer: send: %w", err)
	}
	p.ready.Store(true)
	return nil
}

// IsReady reports whether the last publish succeeded.
func (p *Producer) IsReady() bool { return p.ready.Load() }

// Close releases the sync producer and the underlying client.
func (p *Producer) Close() error {
	var errs []error
	if err := p.sync.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.client.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func recordHeaders(headers map[string][]byte) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	out := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		out = append(out, sarama.RecordHeader{Key: []byte(k), Value: v})
	}
	return out
}

func defaultConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "notification-dispatch-producer"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = true
	return cfg
}

func cloneConfig(cfg *sarama.Config) *sarama.Config {
	if cfg == nil {
		return defaultConfig()
	}
	cloned := *cfg
	return &cloned
}
