package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRetryBudget is applied when a request does not specify how many
// send attempts it may consume.
const DefaultRetryBudget = 1

// Builder assembles a NotificationRequest, making required versus optional
// fields explicit. Setters return the builder for chaining; Build is the
// terminal operation and reports accumulated problems as a single error.
type Builder struct {
	req    NotificationRequest
	setRB  bool
	errs   []string
	now    func() time.Time
	nextID func() string
}

// NewBuilder returns an empty request builder.
func NewBuilder() *Builder {
	return &Builder{
		now:    time.Now,
		nextID: uuid.NewString,
	}
}

// WithClock overrides the clock used for the CreatedAt default. Intended for
// tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// ID sets an explicit request identifier. When omitted a UUIDv4 is assigned.
func (b *Builder) ID(id string) *Builder {
	b.req.ID = strings.TrimSpace(id)
	return b
}

// Channel sets the delivery channel.
func (b *Builder) Channel(ch Channel) *Builder {
	b.req.Channel = ch
	return b
}

// Recipient sets the destination address, number, or device token.
func (b *Builder) Recipient(recipient string) *Builder {
	b.req.Recipient = strings.TrimSpace(recipient)
	return b
}

// Message sets the notification body.
func (b *Builder) Message(message string) *Builder {
	b.req.Message = message
	return b
}

// Priority sets the request priority. Unset requests default to normal.
func (b *Builder) Priority(p Priority) *Builder {
	b.req.Priority = p
	return b
}

// RetryBudget sets the maximum number of send attempts for the request.
func (b *Builder) RetryBudget(budget int) *Builder {
	b.req.RetryBudget = budget
	b.setRB = true
	return b
}

// TraceID attaches a trace identifier for correlation across systems.
func (b *Builder) TraceID(traceID string) *Builder {
	b.req.TraceID = strings.TrimSpace(traceID)
	return b
}

// Meta adds a single metadata entry. Empty keys are recorded as errors at
// build time.
func (b *Builder) Meta(key, value string) *Builder {
	key = strings.TrimSpace(key)
	if key == "" {
		b.errs = append(b.errs, "metadata key must not be empty")
		return b
	}
	if b.req.Meta == nil {
		b.req.Meta = make(map[string]string)
	}
	b.req.Meta[key] = value
	return b
}

// CreatedAt overrides the creation timestamp. When omitted the builder's
// clock is used.
func (b *Builder) CreatedAt(at time.Time) *Builder {
	b.req.CreatedAt = at
	return b
}

// Build validates the accumulated fields and returns the finished request.
// Channel, recipient and message are required; the returned request must be
// treated as immutable by callers.
func (b *Builder) Build() (*NotificationRequest, error) {
	var missing []string
	if b.req.Channel == "" {
		missing = append(missing, "channel")
	}
	if b.req.Recipient == "" {
		missing = append(missing, "recipient")
	}
	if b.req.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteRequest, strings.Join(missing, ", "))
	}

	if b.req.Channel != "" {
		ch, err := ParseChannel(string(b.req.Channel))
		if err != nil {
			return nil, err
		}
		b.req.Channel = ch
	}

	priority, err := ParsePriority(string(b.req.Priority))
	if err != nil {
		return nil, err
	}
	b.req.Priority = priority

	if !b.setRB {
		b.req.RetryBudget = DefaultRetryBudget
	}
	if b.req.RetryBudget < 0 {
		return nil, fmt.Errorf("%w: retry budget must not be negative", ErrIncompleteRequest)
	}

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteRequest, strings.Join(b.errs, "; "))
	}

	if b.req.ID == "" {
		b.req.ID = b.nextID()
	}
	if b.req.CreatedAt.IsZero() {
		b.req.CreatedAt = b.now()
	}
	b.req.CreatedAt = b.req.CreatedAt.UTC()

	req := b.req
	if len(b.req.Meta) > 0 {
		req.Meta = make(map[string]string, len(b.req.Meta))
		for k, v := range b.req.Meta {
			req.Meta[k] = v
		}
	}

	return &req, nil
}
