package email

import (
	"context"
	"time"
)

// Payload is the canonical representation of an outbound email passed to the
// provider. Adapters normalize their inputs to this structure.
type Payload struct {
	MessageID string
	From      string
	To        string
	Subject   string
	Body      string
	Headers   map[string]string
}

// RawResponse mirrors the low level provider response that adapters inspect
// to derive ProviderResponse values.
type RawResponse struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by email transport backends. Providers
// enforce their own timeouts and must not block indefinitely.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
