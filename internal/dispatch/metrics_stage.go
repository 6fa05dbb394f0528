package dispatch

import (
	"context"

	"github.com/example/notification-service/internal/metrics"
)

// MetricsStage is the terminal stage on the success path. Failure outcomes
// never reach it; the dispatcher records those when the chain aborts.
type MetricsStage struct {
	recorder *metrics.Recorder
}

// NewMetricsStage builds the stage. A nil recorder makes it a no-op.
func NewMetricsStage(recorder *metrics.Recorder) *MetricsStage {
	return &MetricsStage{recorder: recorder}
}

func (s *MetricsStage) Name() string { return "metrics" }

func (s *MetricsStage) Handle(_ context.Context, dc *Context) error {
	if s.recorder != nil && dc.Request != nil {
		s.recorder.ObserveDispatch(string(dc.Request.Channel), string(dc.Request.Priority), dc.Outcome.Succeeded, dc.Outcome.AttemptsMade)
	}
	return nil
}
