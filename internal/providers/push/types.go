package push

import (
	"context"
	"time"
)

// Payload is the canonical representation of an outbound push message.
// Tokens are opaque; providers impose no format rules on them.
type Payload struct {
	MessageID string
	Token     string
	Title     string
	Body      string
	Data      map[string]string
}

// RawResponse mirrors the low level provider response that adapters inspect.
type RawResponse struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by push transport backends.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
