package models

import "time"

// DeliveryOutcome summarizes one pipeline run. A partially failed dispatch
// whose final attempt succeeded is still a success; AttemptsMade is retained
// for observability.
type DeliveryOutcome struct {
	Succeeded    bool `json:"succeeded"`
	AttemptsMade int  `json:"attempts_made"`
}

// NotificationEvent is the value snapshot fanned out to observers after a
// successful dispatch. Exactly one event is emitted per successfully
// dispatched request.
type NotificationEvent struct {
	ID        string    `json:"id"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Priority  Priority  `json:"priority"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}
