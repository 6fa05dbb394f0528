package sms

import (
	"context"
	"time"
)

// Payload is the canonical representation of an outbound SMS passed to the
// provider.
type Payload struct {
	MessageID string
	From      string
	To        string
	Body      string
	Meta      map[string]string
}

// RawResponse mirrors the low level provider response that adapters inspect.
type RawResponse struct {
	ID        string
	Code      int
	Status    string
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by SMS transport backends.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
