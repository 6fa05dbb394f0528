package strategy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/util"
)

// Strategy is the per-channel send behaviour: recipient-format validation
// followed by delegation to exactly one injected adapter. Validation
// failures are reported with common.ErrValidation and never reach the
// adapter.
type Strategy interface {
	Channel() models.Channel
	Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error)
}

// Email validates that the recipient carries an @-structured address marker
// before delegating. This is a format check only, not full RFC validation;
// the provider is the final authority on deliverability.
type Email struct {
	adapter common.Adapter
	logger  zerolog.Logger
}

// NewEmail constructs the email strategy.
func NewEmail(adapter common.Adapter, logger zerolog.Logger) (*Email, error) {
	if adapter == nil {
		return nil, errors.New("email strategy: adapter dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Email{adapter: adapter, logger: logger}, nil
}

// Channel implements Strategy.
func (s *Email) Channel() models.Channel { return models.ChannelEmail }

// Send implements Strategy.
func (s *Email) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapValidation(errors.New("email strategy: request is nil"))
	}
	if !strings.Contains(req.Recipient, "@") {
		err := fmt.Errorf("email strategy: recipient %q is not an email address", req.Recipient)
		s.logger.Warn().Str("message_id", req.ID).Msg("invalid recipient for email notification")
		return nil, common.WrapValidation(err)
	}
	return s.adapter.Send(ctx, req)
}

// SMS validates that the recipient consists entirely of digit characters
// before delegating.
type SMS struct {
	adapter common.Adapter
	logger  zerolog.Logger
}

// NewSMS constructs the SMS strategy.
func NewSMS(adapter common.Adapter, logger zerolog.Logger) (*SMS, error) {
	if adapter == nil {
		return nil, errors.New("sms strategy: adapter dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &SMS{adapter: adapter, logger: logger}, nil
}

// Channel implements Strategy.
func (s *SMS) Channel() models.Channel { return models.ChannelSMS }

// Send implements Strategy.
func (s *SMS) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapValidation(errors.New("sms strategy: request is nil"))
	}
	if err := util.ValidateDigits(req.Recipient); err != nil {
		s.logger.Warn().Str("message_id", req.ID).Msg("invalid recipient for sms notification")
		return nil, common.WrapValidation(err)
	}
	return s.adapter.Send(ctx, req)
}

// Push performs no recipient-format validation; device tokens are opaque.
type Push struct {
	adapter common.Adapter
	logger  zerolog.Logger
}

// NewPush constructs the push strategy.
func NewPush(adapter common.Adapter, logger zerolog.Logger) (*Push, error) {
	if adapter == nil {
		return nil, errors.New("push strategy: adapter dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Push{adapter: adapter, logger: logger}, nil
}

// Channel implements Strategy.
func (s *Push) Channel() models.Channel { return models.ChannelPush }

// Send implements Strategy.
func (s *Push) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	if req == nil {
		return nil, common.WrapValidation(errors.New("push strategy: request is nil"))
	}
	return s.adapter.Send(ctx, req)
}
