package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/example/notification-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_REQUEST_TOPIC", "notifications.request")
	t.Setenv("KAFKA_STATUS_TOPIC", "notifications.status")
	t.Setenv("KAFKA_DLQ_TOPIC", "notifications.dlq")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Env != "development" {
		t.Fatalf("unexpected env: %s", cfg.App.Env)
	}
	if cfg.Retry.MaxRetryBudget != 5 {
		t.Fatalf("unexpected max retry budget: %d", cfg.Retry.MaxRetryBudget)
	}
	if cfg.Retry.BaseBackoff != time.Second {
		t.Fatalf("unexpected base backoff: %s", cfg.Retry.BaseBackoff)
	}
	if cfg.Providers.EmailBackend != "mock" {
		t.Fatalf("unexpected email backend: %s", cfg.Providers.EmailBackend)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Fatalf("unexpected metrics addr: %s", cfg.Metrics.Addr)
	}
}

func TestLoadMissingBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_REQUEST_TOPIC", "notifications.request")
	t.Setenv("KAFKA_STATUS_TOPIC", "notifications.status")
	t.Setenv("KAFKA_DLQ_TOPIC", "notifications.dlq")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error for missing brokers")
	}
	if !strings.Contains(err.Error(), "KAFKA_BROKERS") {
		t.Fatalf("error should name the missing key: %v", err)
	}
}

func TestLoadSMTPRequiredWhenSelected(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_PROVIDER", "smtp")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error for missing SMTP settings")
	}
	if !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Fatalf("error should name SMTP_HOST: %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("BASE_BACKOFF", "soon")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvertedBackoff(t *testing.T) {
	setRequired(t)
	t.Setenv("BASE_BACKOFF", "10s")
	t.Setenv("MAX_BACKOFF", "1s")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error when max backoff < base backoff")
	}
}

func TestLoadParsesBrokerList(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", " b1:9092 , b2:9092 ,")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "b1:9092" || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
}
