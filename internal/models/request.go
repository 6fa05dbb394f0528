package models

import "time"

// Channel identifies the delivery mechanism for a notification. Each channel
// has its own recipient-format rules enforced by the matching strategy.
type Channel string

// Supported channels.
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Priority expresses the relative urgency of a notification. It travels with
// the request and is surfaced in events and metrics labels.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// NotificationRequest is the canonical dispatch request. Instances are
// assembled by the Builder and must not be mutated once handed to the
// pipeline.
type NotificationRequest struct {
	ID          string            `json:"id"`
	Channel     Channel           `json:"channel"`
	Recipient   string            `json:"recipient"`
	Message     string            `json:"message"`
	Priority    Priority          `json:"priority"`
	RetryBudget int               `json:"retry_budget"`
	TraceID     string            `json:"trace_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// MetaValue returns the metadata value for key, if present.
func (r *NotificationRequest) MetaValue(key string) (string, bool) {
	if r == nil || len(r.Meta) == 0 {
		return "", false
	}
	v, ok := r.Meta[key]
	return v, ok
}

// Event returns the immutable snapshot emitted after a successful dispatch.
// The snapshot carries no reference back to the request so observers cannot
// mutate state the pipeline still depends on.
func (r *NotificationRequest) Event(attempts int, at time.Time) NotificationEvent {
	return NotificationEvent{
		ID:        r.ID,
		Channel:   r.Channel,
		Recipient: r.Recipient,
		Priority:  r.Priority,
		Attempts:  attempts,
		Timestamp: at,
	}
}
