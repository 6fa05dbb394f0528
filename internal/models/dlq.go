package models

import "time"

// Failure classifications for DLQ records.
const (
	FailureTypePermanent  = "permanent"
	FailureTypeTransient  = "transient"
	FailureTypeValidation = "validation"
	FailureTypeUnknown    = "unknown"
)

// DLQRecord is written to the dead-letter topic when a request fails
// validation or exhausts its retry budget.
type DLQRecord struct {
	MessageID     string            `json:"message_id"`
	Channel       Channel           `json:"channel"`
	OriginalValue string            `json:"original_value"`
	Attempts      int               `json:"attempts"`
	FailureType   string            `json:"failure_type"`
	LastError     string            `json:"last_error,omitempty"`
	FirstFailedAt time.Time         `json:"first_failed_at"`
	LastAttemptAt time.Time         `json:"last_attempt_at"`
	TraceID       string            `json:"trace_id,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}
