// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Actions carried by a ReservationEvent.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
)

// ReservationEvent is published whenever a reservation is created or
// moves to a new status. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReservationEvent struct {
	Action        string `json:"action"`
	ReservationID uint64 `json:"reservation_id"`
	ResourceID    uint64 `json:"resource_id"`
	UserID        uint64 `json:"user_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
