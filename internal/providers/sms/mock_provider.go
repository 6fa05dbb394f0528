package sms

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

// Scenario selects the simulated outcome of a mock send. The scenario is
// resolved from the payload meta key "scenario", falling back to the
// configured default.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"

	metaScenario = "scenario"
)

// Option customizes the mock provider at construction time.
type Option func(*MockProvider)

// WithDefaultScenario sets the behaviour used when a payload carries no
// scenario hint.
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

// MockProvider is a deterministic SMS gateway stand-in.
type MockProvider struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	now             func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockProvider constructs a mock SMS provider.
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

// Send simulates delivering the payload.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("sms mock: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("sms mock: recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scenario := p.resolveScenario(payload)
	p.logger.Debug().
		Str("provider", "mock_sms").
		Str("scenario", string(scenario)).
		Str("message_id", payload.MessageID).
		Msg("mock sms provider invoked")

	switch scenario {
	case ScenarioPermanent:
		resp := p.baseResponse(payload, 400, "undeliverable", "mock: invalid destination number")
		return resp, fmt.Errorf("sms gateway %d: %s", resp.Code, resp.Body)
	case ScenarioTransient:
		resp := p.baseResponse(payload, 429, "queued", "mock: gateway busy, retry later")
		return resp, fmt.Errorf("sms gateway %d: %s", resp.Code, resp.Body)
	case ScenarioTimeout:
		return nil, context.DeadlineExceeded
	default:
		resp := p.baseResponse(payload, 200, "sent", "mock: message accepted")
		return resp, nil
	}
}

func (p *MockProvider) resolveScenario(payload *Payload) Scenario {
	value := ""
	for k, v := range payload.Meta {
		if strings.EqualFold(k, metaScenario) {
			value = v
			break
		}
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ScenarioPermanent):
		return ScenarioPermanent
	case string(ScenarioTransient):
		return ScenarioTransient
	case string(ScenarioTimeout):
		return ScenarioTimeout
	case string(ScenarioSuccess):
		return ScenarioSuccess
	default:
		return p.defaultScenario
	}
}

func (p *MockProvider) baseResponse(payload *Payload, code int, status, body string) *RawResponse {
	respID := payload.MessageID
	if respID == "" {
		p.mu.Lock()
		respID = fmt.Sprintf("mock-sms-%08x", p.rnd.Uint32())
		p.mu.Unlock()
	}

	return &RawResponse{
		ID:        respID,
		Code:      code,
		Status:    status,
		Body:      body,
		Timestamp: p.now(),
	}
}
