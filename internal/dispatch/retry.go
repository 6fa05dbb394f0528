package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
)

// ErrBudgetExhausted reports that a request arrived with no send attempts
// left. The caller sees zero attempts made.
var ErrBudgetExhausted = errors.New("retry budget permits no send attempts")

// AttemptReporter is invoked before every send attempt. Implementations must
// not block for long; the retry loop waits on them synchronously.
type AttemptReporter interface {
	ReportAttempt(ctx context.Context, req *models.NotificationRequest, attempt int)
}

// RetryStage drives the send loop. Transient failures are retried with
// exponential backoff and full jitter until the request's retry budget is
// spent; validation and permanent failures abort immediately.
type RetryStage struct {
	baseBackoff time.Duration
	maxBackoff  time.Duration
	reporter    AttemptReporter
	logger      zerolog.Logger
	now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// RetryOption customises a RetryStage.
type RetryOption func(*RetryStage)

// WithAttemptReporter installs a per-attempt hook.
func WithAttemptReporter(r AttemptReporter) RetryOption {
	return func(s *RetryStage) { s.reporter = r }
}

// WithRetryClock overrides the wall clock, for tests.
func WithRetryClock(now func() time.Time) RetryOption {
	return func(s *RetryStage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRetryStage builds the stage. Zero backoff durations fall back to
// defaults of 200ms base and 5s cap.
func NewRetryStage(baseBackoff, maxBackoff time.Duration, logger zerolog.Logger, opts ...RetryOption) *RetryStage {
	if baseBackoff <= 0 {
		baseBackoff = 200 * time.Millisecond
	}
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Second
	}
	if maxBackoff < baseBackoff {
		maxBackoff = baseBackoff
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	s := &RetryStage{
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		logger:      logger,
		now:         time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RetryStage) Name() string { return "retry" }

func (s *RetryStage) Handle(ctx context.Context, dc *Context) error {
	req := dc.Request
	budget := req.RetryBudget
	if budget < 1 {
		dc.Outcome = models.DeliveryOutcome{Succeeded: false, AttemptsMade: 0}
		return ErrBudgetExhausted
	}

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			dc.Outcome = models.DeliveryOutcome{Succeeded: false, AttemptsMade: attempt - 1}
			return err
		}
		if s.reporter != nil {
			s.reporter.ReportAttempt(ctx, req, attempt)
		}

		resp, err := dc.Strategy.Send(ctx, req)
		if err == nil {
			dc.Outcome = models.DeliveryOutcome{Succeeded: true, AttemptsMade: attempt}
			dc.Response = resp
			return nil
		}
		lastErr = err
		dc.Outcome = models.DeliveryOutcome{Succeeded: false, AttemptsMade: attempt}
		dc.Response = resp

		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrPermanent) {
			return err
		}

		s.logger.Warn().
			Str("message_id", req.ID).
			Str("channel", string(req.Channel)).
			Int("attempt", attempt).
			Int("budget", budget).
			Err(err).
			Msg("send attempt failed")

		if attempt == budget {
			return err
		}
		if !s.wait(ctx, s.backoffFor(attempt)) {
			return ctx.Err()
		}
	}
	return lastErr
}

// backoffFor returns a full-jitter delay for the given attempt: a uniformly
// random duration in [0, min(maxBackoff, base*2^(attempt-1))].
func (s *RetryStage) backoffFor(attempt int) time.Duration {
	d := s.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= s.maxBackoff {
			d = s.maxBackoff
			break
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.rnd.Int63n(int64(d) + 1))
}

// wait sleeps for d or until ctx is cancelled, reporting whether the full
// delay elapsed.
func (s *RetryStage) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
