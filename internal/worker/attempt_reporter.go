package worker

import (
	"context"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
)

// AttemptStatusReporter publishes an "attempt" status event before every send
// try. It plugs into the retry stage of the dispatch chain.
type AttemptStatusReporter struct {
	publisher StatusPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAttemptStatusReporter builds a reporter. A nil publisher yields nil,
// which the retry stage treats as "no reporting".
func NewAttemptStatusReporter(publisher StatusPublisher, logger zerolog.Logger) *AttemptStatusReporter {
	if publisher == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &AttemptStatusReporter{publisher: publisher, logger: logger, now: time.Now}
}

// ReportAttempt emits one attempt event. Publish failures are logged and
// never block the send.
func (r *AttemptStatusReporter) ReportAttempt(ctx context.Context, req *models.NotificationRequest, attempt int) {
	if r == nil || req == nil {
		return
	}
	event := models.StatusEvent{
		MessageID: req.ID,
		Channel:   req.Channel,
		EventType: models.StatusEventAttempt,
		Attempt:   attempt,
		TraceID:   req.TraceID,
		Timestamp: r.now().UTC(),
	}
	if err := r.publisher.PublishStatus(ctx, event); err != nil {
		r.logger.Error().
			Str("message_id", req.ID).
			Int("attempt", attempt).
			Err(err).
			Msg("worker: failed to publish attempt event")
	}
}
