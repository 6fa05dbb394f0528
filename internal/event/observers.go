package event

import (
	"context"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
)

// AnalyticsObserver records delivery events for channel-level analytics.
type AnalyticsObserver struct {
	logger zerolog.Logger
}

// NewAnalyticsObserver constructs the analytics observer.
func NewAnalyticsObserver(logger zerolog.Logger) *AnalyticsObserver {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &AnalyticsObserver{logger: logger}
}

// Name implements Observer.
func (o *AnalyticsObserver) Name() string { return "analytics" }

// Update implements Observer.
func (o *AnalyticsObserver) Update(_ context.Context, ev models.NotificationEvent) {
	o.logger.Info().
		Str("message_id", ev.ID).
		Str("channel", string(ev.Channel)).
		Str("priority", string(ev.Priority)).
		Int("attempts", ev.Attempts).
		Msg("analytics: notification delivered")
}

// AuditObserver writes an audit trail entry per delivered notification.
type AuditObserver struct {
	logger zerolog.Logger
}

// NewAuditObserver constructs the audit observer.
func NewAuditObserver(logger zerolog.Logger) *AuditObserver {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &AuditObserver{logger: logger}
}

// Name implements Observer.
func (o *AuditObserver) Name() string { return "audit" }

// Update implements Observer.
func (o *AuditObserver) Update(_ context.Context, ev models.NotificationEvent) {
	o.logger.Info().
		Str("message_id", ev.ID).
		Str("channel", string(ev.Channel)).
		Str("recipient", ev.Recipient).
		Time("delivered_at", ev.Timestamp).
		Msg("audit: notification delivered")
}

// BillingObserver attributes delivery cost to the recipient's cost center.
type BillingObserver struct {
	logger zerolog.Logger
}

// NewBillingObserver constructs the billing observer.
func NewBillingObserver(logger zerolog.Logger) *BillingObserver {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &BillingObserver{logger: logger}
}

// Name implements Observer.
func (o *BillingObserver) Name() string { return "billing" }

// Update implements Observer.
func (o *BillingObserver) Update(_ context.Context, ev models.NotificationEvent) {
	o.logger.Info().
		Str("message_id", ev.ID).
		Str("channel", string(ev.Channel)).
		Str("cost_center", ev.Recipient).
		Msg("billing: delivery charged")
}
