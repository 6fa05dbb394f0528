package factory

import (
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
	emailprovider "github.com/example/notification-service/internal/providers/email"
	pushprovider "github.com/example/notification-service/internal/providers/push"
	smsprovider "github.com/example/notification-service/internal/providers/sms"
)

func TestEmailDefaultsToMockBackend(t *testing.T) {
	provider, err := Email(config.ProviderConfig{}, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Email: %v", err)
	}
	if _, ok := provider.(*emailprovider.MockProvider); !ok {
		t.Fatalf("expected mock provider, got %T", provider)
	}
}

func TestEmailBuildsSMTPBackend(t *testing.T) {
	cfg := config.ProviderConfig{
		EmailBackend: "SMTP",
		SMTP: config.SMTPConfig{
			Host: "smtp.example.com",
			Port: 587,
			From: "noreply@example.com",
		},
	}
	provider, err := Email(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Email: %v", err)
	}
	if _, ok := provider.(*emailprovider.SMTPProvider); !ok {
		t.Fatalf("expected smtp provider, got %T", provider)
	}
}

func TestEmailRejectsUnknownBackend(t *testing.T) {
	if _, err := Email(config.ProviderConfig{EmailBackend: "sendgrid"}, zerolog.New(io.Discard)); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSMSBuildsTwilioBackend(t *testing.T) {
	cfg := config.ProviderConfig{
		SMSBackend: "twilio",
		Twilio: config.TwilioConfig{
			AccountSID:  "AC123",
			AuthToken:   "secret",
			PhoneNumber: "+15550001111",
		},
	}
	provider, err := SMS(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("SMS: %v", err)
	}
	if _, ok := provider.(*smsprovider.TwilioProvider); !ok {
		t.Fatalf("expected twilio provider, got %T", provider)
	}
}

func TestSMSSurfacesMisconfiguredBackend(t *testing.T) {
	if _, err := SMS(config.ProviderConfig{SMSBackend: "twilio"}, zerolog.New(io.Discard)); err == nil {
		t.Fatal("expected error for missing twilio credentials")
	}
}

func TestPushBuildsFCMBackend(t *testing.T) {
	cfg := config.ProviderConfig{
		PushBackend: "fcm",
		FCM: config.FCMConfig{
			Endpoint:  "https://fcm.googleapis.com/fcm/send",
			ServerKey: "server-key",
		},
	}
	provider, err := Push(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, ok := provider.(*pushprovider.FCMProvider); !ok {
		t.Fatalf("expected fcm provider, got %T", provider)
	}
}

func TestPushDefaultsToMockBackend(t *testing.T) {
	provider, err := Push(config.ProviderConfig{}, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, ok := provider.(*pushprovider.MockProvider); !ok {
		t.Fatalf("expected mock provider, got %T", provider)
	}
}
