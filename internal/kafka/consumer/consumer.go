package consumer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const (
	defaultSessionTimeout = 30 * time.Second
	defaultHeartbeat      = 3 * time.Second
	defaultConsumeBackoff = time.Second
)

// Handler processes one delivered record. Returning an error only logs it;
// redelivery is governed by whether the record was committed.
type Handler func(ctx context.Context, record *Record) error

// Record is a Kafka message delivered to the handler. Offsets are committed
// manually via Commit; an unprocessed record is redelivered after a rebalance
// or restart.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	session sarama.ConsumerGroupSession
	message *sarama.ConsumerMessage

	mu        sync.Mutex
	committed bool
}

// Commit marks the record's offset as processed and flushes it. Calling
// Commit more than once is a no-op.
func (r *Record) Commit(_ context.Context) error {
	if r == nil {
		return errors.New("kafka consumer: nil record")
	}
	if r.session == nil || r.message == nil {
		return errors.New("kafka consumer: record has no session")
	}
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		return nil
	}
	r.committed = true
	r.mu.Unlock()

	r.session.MarkMessage(r.message, "")
	r.session.Commit()
	return nil
}

// Option customises consumer construction.
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

// Consumer wraps a Sarama consumer group with manual offset commits. Auto
// commit is always disabled so a crash mid-dispatch redelivers the request
// instead of dropping it.
type Consumer struct {
	logger  zerolog.Logger
	group   sarama.ConsumerGroup
	groupID string

	mu      sync.RWMutex
	handler Handler

	ready     atomic.Bool
	errDrain  chan struct{}
	closeOnce sync.Once
}

// New creates a consumer group client for the supplied brokers.
func New(brokers []string, groupID string, logger zerolog.Logger, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka consumer: at least one broker is required")
	}
	if groupID == "" {
		return nil, errors.New("kafka consumer: group id is required")
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
	cfg := cloneConfig(s.config)
	cfg.Consumer.Offsets.AutoCommit.Enable = false

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: create group: %w", err)
	}

	c := &Consumer{
		logger:   logger,
		group:    group,
		groupID:  groupID,
		errDrain: make(chan struct{}),
	}
	go c.drainErrors()
	return c, nil
}

// Consume joins the group for the given topics and invokes handler for each
// record. It blocks until ctx is cancelled or the group is closed, rejoining
// after recoverable errors with a short backoff.
func (c *Consumer) Consume(ctx context.Context, topics []string, handler Handler) error {
	if len(topics) == 0 {
		return errors.New("kafka consumer: at least one topic is required")
	}
	if handler == nil {
		return errors.New("kafka consumer: handler is required")
	}

	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.group.Consume(ctx, topics, &sessionHandler{consumer: c}); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error().Err(err).Msg("kafka consumer: consume error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(defaultConsumeBackoff):
			}
		}
	}
}

// IsReady reports whether the consumer has joined the group.
func (c *Consumer) IsReady() bool { return c.ready.Load() }

// Close shuts down the consumer group.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.group.Close()
		<-c.errDrain
	})
	return err
}

func (c *Consumer) drainErrors() {
	defer close(c.errDrain)
	for err := range c.group.Errors() {
		if err != nil {
			c.logger.Error().Err(err).Msg("kafka consumer error")
		}
	}
}

type sessionHandler struct {
	consumer *Consumer
}

func (h *sessionHandler) Setup(sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(true)
	h.consumer.logger.Info().Str("group_id", h.consumer.groupID).Msg("kafka consumer group joined")
	return nil
}

func (h *sessionHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(false)
	h.consumer.logger.Info().Str("group_id", h.consumer.groupID).Msg("kafka consumer group left")
	return nil
}

func (h *sessionHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		record := &Record{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       cloneBytes(msg.Key),
			Value:     cloneBytes(msg.Value),
			Timestamp: msg.Timestamp,
			Headers:   headerMap(msg.Headers),
			session:   session,
			message:   msg,
		}

		h.consumer.mu.RLock()
		handler := h.consumer.handler
		h.consumer.mu.RUnlock()
		if handler == nil {
			h.consumer.logger.Error().Msg("kafka consumer: record received without handler")
			continue
		}

		if err := handler(session.Context(), record); err != nil {
			h.consumer.logger.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("kafka consumer: handler error")
		}
	}
	return nil
}

func defaultConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "notification-dispatch-consumer"
	cfg.Consumer.Group.Session.Timeout = defaultSessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = defaultHeartbeat
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	// Start from the oldest offset so queued notifications written before the
	// worker first joined are still delivered.
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	return cfg
}

func cloneConfig(cfg *sarama.Config) *sarama.Config {
	if cfg == nil {
		return defaultConfig()
	}
	cloned := *cfg
	return &cloned
}

func cloneBytes(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

func headerMap(headers []*sarama.RecordHeader) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(headers))
	for _, h := range headers {
		if h == nil || len(h.Key) == 0 {
			continue
		}
		out[string(h.Key)] = cloneBytes(h.Value)
	}
	return out
}
