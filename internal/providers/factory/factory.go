package factory

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
	emailprovider "github.com/example/notification-service/internal/providers/email"
	pushprovider "github.com/example/notification-service/internal/providers/push"
	smsprovider "github.com/example/notification-service/internal/providers/sms"
)

// Email constructs the configured email provider backend.
func Email(cfg config.ProviderConfig, logger zerolog.Logger) (emailprovider.Provider, error) {
	backend := normalize(cfg.EmailBackend, "mock")
	switch backend {
	case "smtp":
		provider, err := emailprovider.NewSMTPProvider(cfg.SMTP, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: smtp provider init: %w", err)
		}
		logger.Info().Str("backend", "smtp").Msg("email provider initialised")
		return provider, nil
	case "mock":
		provider := emailprovider.NewMockProvider(logger)
		logger.Info().Str("backend", "mock").Msg("email provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported email provider backend %q", cfg.EmailBackend)
	}
}

// SMS constructs the configured SMS provider backend.
func SMS(cfg config.ProviderConfig, logger zerolog.Logger) (smsprovider.Provider, error) {
	backend := normalize(cfg.SMSBackend, "mock")
	switch backend {
	case "twilio":
		provider, err := smsprovider.NewTwilioProvider(cfg.Twilio, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: twilio provider init: %w", err)
		}
		logger.Info().Str("backend", "twilio").Msg("sms provider initialised")
		return provider, nil
	case "mock":
		provider := smsprovider.NewMockProvider(logger)
		logger.Info().Str("backend", "mock").Msg("sms provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported sms provider backend %q", cfg.SMSBackend)
	}
}

// Push constructs the configured push provider backend.
func Push(cfg config.ProviderConfig, logger zerolog.Logger) (pushprovider.Provider, error) {
	backend := normalize(cfg.PushBackend, "mock")
	switch backend {
	case "fcm":
		provider, err := pushprovider.NewFCMProvider(cfg.FCM, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: fcm provider init: %w", err)
		}
		logger.Info().Str("backend", "fcm").Msg("push provider initialised")
		return provider, nil
	case "mock":
		provider := pushprovider.NewMockProvider(logger)
		logger.Info().Str("backend", "mock").Msg("push provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported push provider backend %q", cfg.PushBackend)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
