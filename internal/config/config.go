package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the notification service.
type Config struct {
	App        AppConfig
	Kafka      KafkaConfig
	Topics     TopicConfig
	Retry      RetryConfig
	Validation ValidationConfig
	Providers  ProviderConfig
	Metrics    MetricsConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// KafkaConfig defines broker information and the worker's consumer group.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// TopicConfig names the request, status and DLQ topics the worker uses.
type TopicConfig struct {
	Request string
	Status  string
	DLQ     string
	Events  string
}

// RetryConfig controls dispatch retry and backoff behaviour. MaxRetryBudget
// caps the per-request budget so a single record cannot demand unbounded
// attempts.
type RetryConfig struct {
	MaxRetryBudget    int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	WorkerConcurrency int
}

// ValidationConfig holds limits applied while validating inbound requests.
type ValidationConfig struct {
	MsgMaxBytes     int
	MessageMaxLen   int
	RecipientMaxLen int
	MetaMaxEntries  int
	MetaMaxKeyLen   int
	MetaMaxValueLen int
}

// SMTPConfig stores SMTP settings for email delivery.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// TwilioConfig stores Twilio credentials for SMS delivery.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// FCMConfig stores push delivery settings.
type FCMConfig struct {
	Endpoint  string
	ServerKey string
}

// ProviderConfig selects the backend per channel and wraps transport
// settings. Backends default to the deterministic mock so the service runs
// without credentials.
type ProviderConfig struct {
	EmailBackend string
	SMSBackend   string
	PushBackend  string
	Timeout      time.Duration
	SMTP         SMTPConfig
	Twilio       TwilioConfig
	FCM          FCMConfig
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Addr string
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance. A .env file is honoured
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", true)
	cfg.Kafka.ConsumerGroup = ldr.getString("KAFKA_CONSUMER_GROUP", "notification-dispatch", false)

	cfg.Topics.Request = ldr.getString("KAFKA_REQUEST_TOPIC", "", true)
	cfg.Topics.Status = ldr.getString("KAFKA_STATUS_TOPIC", "", true)
	cfg.Topics.DLQ = ldr.getString("KAFKA_DLQ_TOPIC", "", true)
	cfg.Topics.Events = ldr.getString("KAFKA_EVENTS_TOPIC", "", false)

	cfg.Retry.MaxRetryBudget = ldr.getInt("MAX_RETRY_BUDGET", 5, false)
	cfg.Retry.BaseBackoff = ldr.getDuration("BASE_BACKOFF", time.Second, false)
	cfg.Retry.MaxBackoff = ldr.getDuration("MAX_BACKOFF", 2*time.Minute, false)
	cfg.Retry.WorkerConcurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)

	cfg.Validation.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 200000, false)
	cfg.Validation.MessageMaxLen = ldr.getInt("MESSAGE_MAX_LEN", 10000, false)
	cfg.Validation.RecipientMaxLen = ldr.getInt("RECIPIENT_MAX_LEN", 320, false)
	cfg.Validation.MetaMaxEntries = ldr.getInt("META_MAX_ENTRIES", 20, false)
	cfg.Validation.MetaMaxKeyLen = ldr.getInt("META_MAX_KEY_LEN", 64, false)
	cfg.Validation.MetaMaxValueLen = ldr.getInt("META_MAX_VALUE_LEN", 256, false)

	cfg.Providers.EmailBackend = ldr.getString("EMAIL_PROVIDER", "mock", false)
	cfg.Providers.SMSBackend = ldr.getString("SMS_PROVIDER", "mock", false)
	cfg.Providers.PushBackend = ldr.getString("PUSH_PROVIDER", "mock", false)
	cfg.Providers.Timeout = ldr.getDuration("PROVIDER_TIMEOUT", 30*time.Second, false)

	smtpRequired := strings.EqualFold(cfg.Providers.EmailBackend, "smtp")
	cfg.Providers.SMTP.Host = ldr.getString("SMTP_HOST", "", smtpRequired)
	cfg.Providers.SMTP.Port = ldr.getInt("SMTP_PORT", 587, smtpRequired)
	cfg.Providers.SMTP.User = ldr.getString("SMTP_USER", "", false)
	cfg.Providers.SMTP.Pass = ldr.getString("SMTP_PASS", "", false)
	cfg.Providers.SMTP.From = ldr.getString("SMTP_FROM", "", smtpRequired)

	twilioRequired := strings.EqualFold(cfg.Providers.SMSBackend, "twilio")
	cfg.Providers.Twilio.AccountSID = ldr.getString("TWILIO_ACCOUNT_SID", "", twilioRequired)
	cfg.Providers.Twilio.AuthToken = ldr.getString("TWILIO_AUTH_TOKEN", "", twilioRequired)
	cfg.Providers.Twilio.PhoneNumber = ldr.getString("TWILIO_PHONE_NUMBER", "", twilioRequired)

	fcmRequired := strings.EqualFold(cfg.Providers.PushBackend, "fcm")
	cfg.Providers.FCM.Endpoint = ldr.getString("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send", false)
	cfg.Providers.FCM.ServerKey = ldr.getString("FCM_SERVER_KEY", "", fcmRequired)

	cfg.Metrics.Addr = ldr.getString("METRICS_ADDR", ":9102", false)

	if cfg.Retry.MaxRetryBudget < 1 {
		ldr.addError("MAX_RETRY_BUDGET must be >= 1")
	}
	if cfg.Retry.WorkerConcurrency < 1 {
		ldr.addError("WORKER_CONCURRENCY must be >= 1")
	}
	if cfg.Retry.MaxBackoff < cfg.Retry.BaseBackoff {
		ldr.addError("MAX_BACKOFF must be >= BASE_BACKOFF")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getDuration(key string, def time.Duration, required bool) time.Duration {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid duration", key))
		return def
	}
	if d < 0 {
		l.addError(fmt.Sprintf("%s must not be negative", key))
		return def
	}
	return d
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
