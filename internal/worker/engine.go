package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/util"
)

// Config carries the engine's runtime limits.
type Config struct {
	MsgMaxBytes       int
	WorkerConcurrency int
	MaxRetryBudget    int
	MetaMaxEntries    int
	MetaKeyMaxLen     int
	MetaValueMaxLen   int
}

// Dispatcher delivers one parsed request through the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.NotificationRequest) (models.DeliveryOutcome, error)
}

// StatusPublisher emits lifecycle events for a notification.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher records requests that could not be delivered.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Dependencies collects the engine's collaborators.
type Dependencies struct {
	Dispatcher      Dispatcher
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Engine turns inbound Kafka records into dispatches. Parsing and size
// failures dead-letter immediately; everything else runs through the
// dispatcher on a bounded pool of goroutines, and offsets are committed only
// after a terminal outcome so an interrupted dispatch is redelivered.
type Engine struct {
	cfg             Config
	dispatcher      Dispatcher
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	logger          zerolog.Logger
	sem             *semaphore.Weighted
	now             func() time.Time
}

// NewEngine validates configuration and collaborators and builds an engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if cfg.MaxRetryBudget < 1 {
		return nil, errors.New("worker: max retry budget must be >= 1")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("worker: dispatcher dependency is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: dlq publisher dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "worker_engine").Logger()

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		cfg:             cfg,
		dispatcher:      deps.Dispatcher,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		logger:          logger,
		sem:             semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:             now,
	}, nil
}

type inboundRequest struct {
	ID          string            `json:"id"`
	Channel     string            `json:"channel"`
	Recipient   string            `json:"recipient"`
	Message     string            `json:"message"`
	Priority    string            `json:"priority"`
	RetryBudget *int              `json:"retry_budget"`
	TraceID     string            `json:"trace_id"`
	Meta        map[string]string `json:"meta"`
}

// HandleRecord checks the payload size, parses the request and hands it to an
// async dispatch slot. It blocks only while waiting for a free slot.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if e.cfg.MsgMaxBytes > 0 && len(record.Value) > e.cfg.MsgMaxBytes {
		err := fmt.Errorf("payload is %d bytes, limit is %d", len(record.Value), e.cfg.MsgMaxBytes)
		e.rejectRecord(ctx, record, "", "", err)
		return
	}

	req, err := e.parseRequest(record)
	if err != nil {
		messageID := ""
		traceID := ""
		if req != nil {
			messageID = req.ID
			traceID = req.TraceID
		}
		if messageID == "" {
			messageID = string(record.Key)
		}
		e.rejectRecord(ctx, record, messageID, traceID, err)
		return
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.logger.Error().
			Str("message_id", req.ID).
			Err(err).
			Msg("worker: failed to acquire dispatch slot")
		return
	}

	go e.process(ctx, record.Clone(), req)
}

func (e *Engine) parseRequest(record *Record) (*models.NotificationRequest, error) {
	var in inboundRequest
	if err := json.Unmarshal(record.Value, &in); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	channel, err := models.ParseChannel(in.Channel)
	if err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	meta, err := util.ValidateMetadata(in.Meta, e.cfg.MetaMaxEntries, e.cfg.MetaKeyMaxLen, e.cfg.MetaValueMaxLen)
	if err != nil {
		return nil, err
	}

	budget := e.cfg.MaxRetryBudget
	if in.RetryBudget != nil {
		budget = *in.RetryBudget
		if budget > e.cfg.MaxRetryBudget {
			budget = e.cfg.MaxRetryBudget
		}
	}

	builder := models.NewBuilder().
		ID(in.ID).
		Channel(channel).
		Recipient(in.Recipient).
		Message(in.Message).
		Priority(priority).
		RetryBudget(budget).
		TraceID(in.TraceID).
		CreatedAt(record.Timestamp)
	for k, v := range meta {
		builder.Meta(k, v)
	}
	return builder.Build()
}

func (e *Engine) process(ctx context.Context, record *Record, req *models.NotificationRequest) {
	defer e.sem.Release(1)

	if ctx.Err() != nil {
		return
	}

	e.publishStatus(ctx, req, models.StatusEvent{EventType: models.StatusEventQueued})

	outcome, err := e.dispatcher.Dispatch(ctx, req)
	if err == nil {
		e.publishStatus(ctx, req, models.StatusEvent{
			EventType: models.StatusEventSent,
			Attempt:   outcome.AttemptsMade,
		})
		e.commitRecord(ctx, record)
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Warn().
			Str("message_id", req.ID).
			Err(err).
			Msg("worker: dispatch interrupted, leaving record uncommitted")
		return
	}

	now := e.now()
	e.publishStatus(ctx, req, models.StatusEvent{
		EventType: models.StatusEventFailed,
		Attempt:   outcome.AttemptsMade,
		Error:     err.Error(),
		Timestamp: now,
	})
	e.publishDLQ(ctx, models.DLQRecord{
		MessageID:     req.ID,
		Channel:       req.Channel,
		OriginalValue: string(record.Value),
		Attempts:      outcome.AttemptsMade,
		FailureType:   classifyFailure(err),
		LastError:     err.Error(),
		FirstFailedAt: now,
		LastAttemptAt: now,
		TraceID:       req.TraceID,
		Meta:          req.Meta,
	})
	e.commitRecord(ctx, record)
}

// rejectRecord dead-letters a record that never became a dispatchable
// request. The offset is committed; redelivering a malformed payload would
// only fail again.
func (e *Engine) rejectRecord(ctx context.Context, record *Record, messageID, traceID string, cause error) {
	e.logger.Warn().
		Str("message_id", messageID).
		Str("topic", record.Topic).
		Int64("offset", record.Offset).
		Err(cause).
		Msg("worker: rejecting record")

	now := e.now()
	e.publishStatusRaw(ctx, models.StatusEvent{
		MessageID: messageID,
		EventType: models.StatusEventFailed,
		Error:     cause.Error(),
		TraceID:   traceID,
		Timestamp: now,
	})
	e.publishDLQ(ctx, models.DLQRecord{
		MessageID:     messageID,
		OriginalValue: string(record.Value),
		FailureType:   models.FailureTypeValidation,
		LastError:     cause.Error(),
		FirstFailedAt: now,
		LastAttemptAt: now,
		TraceID:       traceID,
	})
	e.commitRecord(ctx, record)
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, models.ErrUnsupportedChannel):
		return models.FailureTypeValidation
	case errors.Is(err, common.ErrPermanent):
		return models.FailureTypePermanent
	case errors.Is(err, common.ErrTransient):
		return models.FailureTypeTransient
	default:
		return models.FailureTypeUnknown
	}
}

func (e *Engine) publishStatus(ctx context.Context, req *models.NotificationRequest, event models.StatusEvent) {
	event.MessageID = req.ID
	event.Channel = req.Channel
	event.TraceID = req.TraceID
	e.publishStatusRaw(ctx, event)
}

func (e *Engine) publishStatusRaw(ctx context.Context, event models.StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	if err := e.statusPublisher.PublishStatus(ctx, event); err != nil {
		e.logger.Error().
			Str("message_id", event.MessageID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (e *Engine) publishDLQ(ctx context.Context, record models.DLQRecord) {
	if err := e.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		e.logger.Error().
			Str("message_id", record.MessageID).
			Err(err).
			Msg("worker: failed to publish dlq record")
	}
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if record == nil || record.commit == nil {
		return
	}
	if err := record.commit(ctx); err != nil {
		e.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit offset")
	}
}
