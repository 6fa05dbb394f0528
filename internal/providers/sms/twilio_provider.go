package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
)

// HTTPClient abstracts http.Client for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioOption customizes the Twilio provider.
type TwilioOption func(*TwilioProvider)

// WithTwilioHTTPClient swaps the HTTP client used for API calls.
func WithTwilioHTTPClient(client HTTPClient) TwilioOption {
	return func(p *TwilioProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTwilioBaseURL overrides the API base URL, used by tests.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(p *TwilioProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		}
	}
}

// WithTwilioClock replaces the clock used for timestamps.
func WithTwilioClock(now func() time.Time) TwilioOption {
	return func(p *TwilioProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// TwilioProvider delivers SMS through the Twilio Messages API.
type TwilioProvider struct {
	logger       zerolog.Logger
	accountSID   string
	authToken    string
	defaultFrom  string
	baseURL      string
	httpClient   HTTPClient
	now          func() time.Time
	maxBodyBytes int64
}

// NewTwilioProvider constructs a Twilio-backed SMS provider.
func NewTwilioProvider(cfg config.TwilioConfig, logger zerolog.Logger, opts ...TwilioOption) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("twilio sms provider: account SID is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilio sms provider: auth token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumber) == "" {
		return nil, errors.New("twilio sms provider: phone number is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &TwilioProvider{
		logger:       logger,
		accountSID:   strings.TrimSpace(cfg.AccountSID),
		authToken:    strings.TrimSpace(cfg.AuthToken),
		defaultFrom:  strings.TrimSpace(cfg.PhoneNumber),
		baseURL:      "https://api.twilio.com/2010-04-01",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: 16 * 1024,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

// Send delivers the SMS payload via Twilio.
func (p *TwilioProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("twilio sms provider: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("twilio sms provider: recipient is required")
	}

	from := strings.TrimSpace(payload.From)
	if from == "" {
		from = p.defaultFrom
	}

	params := url.Values{}
	params.Set("To", strings.TrimSpace(payload.To))
	params.Set("From", from)
	params.Set("Body", payload.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio sms provider: new request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio sms provider: http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := p.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	parsed := parseTwilioBody(body)
	raw := &RawResponse{
		ID:        parsed.SID,
		Code:      resp.StatusCode,
		Status:    parsed.Status,
		Body:      body,
		Timestamp: p.now(),
	}
	if raw.Status == "" {
		raw.Status = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if raw.ID == "" {
			raw.ID = payload.MessageID
		}
		return raw, nil
	}

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(body)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if parsed.ErrorCode > 0 {
		return raw, fmt.Errorf("twilio sms provider: error %d: %s", parsed.ErrorCode, message)
	}
	return raw, fmt.Errorf("twilio sms provider: http %d: %s", resp.StatusCode, message)
}

func (p *TwilioProvider) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}
	limit := p.maxBodyBytes
	if limit <= 0 {
		limit = 16 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", fmt.Errorf("twilio sms provider: read body: %w", err)
	}
	return string(data), nil
}

type twilioBody struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	ErrorCode int    `json:"code"`
	Message   string `json:"message"`
}

func parseTwilioBody(body string) twilioBody {
	if strings.TrimSpace(body) == "" {
		return twilioBody{}
	}
	var parsed twilioBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return twilioBody{}
	}
	return parsed
}
