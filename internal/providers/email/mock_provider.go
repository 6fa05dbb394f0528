package email

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scenario enumerates the supported mock behaviours. The default scenario is
// success unless overridden via headers or options.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"

	headerScenario = "X-Mock-Provider-Scenario"
	headerLatency  = "X-Mock-Provider-Latency"
)

// Option customizes the mock provider at construction time.
type Option func(*MockProvider)

// WithLatencyRange overrides the latency range simulated per send. Negative
// values are clamped to zero; max below min is coerced to min.
func WithLatencyRange(min, max time.Duration) Option {
	return func(p *MockProvider) {
		if min < 0 {
			min = 0
		}
		if max < min {
			max = min
		}
		p.minLatency = min
		p.maxLatency = max
	}
}

// WithDefaultScenario configures the behaviour used when a payload does not
// specify a scenario header.
func WithDefaultScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider is a deterministic SMTP stand-in suitable for local
// development and automated testing. Behaviour is controlled via options and
// per-request headers; no network calls are made.
type MockProvider struct {
	logger          zerolog.Logger
	minLatency      time.Duration
	maxLatency      time.Duration
	defaultScenario Scenario
	now             func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockProvider constructs a mock email provider with sensible defaults.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		now:             time.Now,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Send simulates delivering the payload. Behaviour follows the
// X-Mock-Provider-* headers, falling back to the configured scenario.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("email mock: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("email mock: recipient is required")
	}

	if latency := p.sampleLatency(payload); latency > 0 {
		if err := sleep(ctx, latency); err != nil {
			return nil, err
		}
	}

	scenario := p.resolveScenario(payload)
	p.logger.Debug().
		Str("provider", "mock_smtp").
		Str("scenario", string(scenario)).
		Str("message_id", payload.MessageID).
		Msg("mock email provider invoked")

	switch scenario {
	case ScenarioPermanent:
		resp := p.baseResponse(payload, 550, "mock: mailbox unavailable")
		return resp, fmt.Errorf("smtp %d: %s", resp.Code, resp.Body)
	case ScenarioTransient:
		resp := p.baseResponse(payload, 451, "mock: requested action aborted, try again later")
		return resp, fmt.Errorf("smtp %d: %s", resp.Code, resp.Body)
	case ScenarioTimeout:
		return nil, context.DeadlineExceeded
	default:
		resp := p.baseResponse(payload, 250, "mock: message queued")
		return resp, nil
	}
}

func (p *MockProvider) resolveScenario(payload *Payload) Scenario {
	value, ok := pickHeader(payload.Headers, headerScenario)
	if !ok || value == "" {
		return p.defaultScenario
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ScenarioPermanent):
		return ScenarioPermanent
	case string(ScenarioTransient):
		return ScenarioTransient
	case string(ScenarioTimeout):
		return ScenarioTimeout
	default:
		return ScenarioSuccess
	}
}

func (p *MockProvider) sampleLatency(payload *Payload) time.Duration {
	if value, ok := pickHeader(payload.Headers, headerLatency); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d >= 0 {
			return d
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxLatency <= p.minLatency {
		return p.minLatency
	}
	delta := p.maxLatency - p.minLatency
	return p.minLatency + time.Duration(p.rnd.Int63n(int64(delta)+1))
}

func (p *MockProvider) baseResponse(payload *Payload, code int, body string) *RawResponse {
	respID := payload.MessageID
	if respID == "" {
		p.mu.Lock()
		respID = fmt.Sprintf("mock-%08x", p.rnd.Uint32())
		p.mu.Unlock()
	}

	return &RawResponse{
		ID:        respID,
		Code:      code,
		Body:      body,
		Timestamp: p.now(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pickHeader(headers map[string]string, key string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
