package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
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

// FCMOption customizes the FCM provider.
type FCMOption func(*FCMProvider)

// WithFCMHTTPClient swaps the HTTP client used for API calls.
func WithFCMHTTPClient(client HTTPClient) FCMOption {
	return func(p *FCMProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithFCMClock replaces the clock used for timestamps.
func WithFCMClock(now func() time.Time) FCMOption {
	return func(p *FCMProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// FCMProvider delivers push messages through an FCM legacy HTTP endpoint.
type FCMProvider struct {
	logger       zerolog.Logger
	endpoint     string
	serverKey    string
	httpClient   HTTPClient
	now          func() time.Time
	maxBodyBytes int64
}

// NewFCMProvider constructs an FCM-backed push provider.
func NewFCMProvider(cfg config.FCMConfig, logger zerolog.Logger, opts ...FCMOption) (*FCMProvider, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("fcm provider: endpoint is required")
	}
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, errors.New("fcm provider: server key is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &FCMProvider{
		logger:       logger,
		endpoint:     strings.TrimSpace(cfg.Endpoint),
		serverKey:    strings.TrimSpace(cfg.ServerKey),
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

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send delivers the push payload via the configured endpoint.
func (p *FCMProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("fcm provider: payload is required")
	}
	if strings.TrimSpace(payload.Token) == "" {
		return nil, errors.New("fcm provider: device token is required")
	}

	body, err := json.Marshal(fcmRequest{
		To: payload.Token,
		Notification: fcmNotification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("fcm provider: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fcm provider: new request: %w", err)
	}
	req.Header.Set("Authorization", "key="+p.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fcm provider: http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fcm provider: read body: %w", err)
	}

	raw := &RawResponse{
		ID:        payload.MessageID,
		Code:      resp.StatusCode,
		Body:      string(respBody),
		Timestamp: p.now(),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, fmt.Errorf("fcm provider: http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed fcmResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Failure > 0 {
		reason := "unknown"
		if len(parsed.Results) > 0 && parsed.Results[0].Error != "" {
			reason = parsed.Results[0].Error
		}
		return raw, fmt.Errorf("fcm provider: delivery rejected: %s", reason)
	}
	if len(parsed.Results) > 0 && parsed.Results[0].MessageID != "" {
		raw.ID = parsed.Results[0].MessageID
	}

	return raw, nil
}
