package models

import "time"

// Status event constants.
const (
	StatusEventQueued  = "queued"
	StatusEventAttempt = "attempt"
	StatusEventSent    = "sent"
	StatusEventFailed  = "failed"
)

// ProviderResponse is the wire form of a normalized provider reply attached
// to status events.
type ProviderResponse struct {
	Status  string            `json:"status"`
	Code    *int              `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// StatusEvent represents a lifecycle update emitted for an outbound
// notification.
type StatusEvent struct {
	MessageID        string            `json:"message_id"`
	Channel          Channel           `json:"channel"`
	EventType        string            `json:"event_type"`
	Attempt          int               `json:"attempt,omitempty"`
	ProviderResponse *ProviderResponse `json:"provider_response,omitempty"`
	Error            string            `json:"error,omitempty"`
	TraceID          string            `json:"trace_id,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}
