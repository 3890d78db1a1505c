package model

import "time"

// Reservation statuses. The set is closed: the scheduler rejects any
// other value as a transition target. A reservation is created in
// "pending"; "confirmed" and "rejected" are assigned by admins, and
// "cancelled" by the owner or an admin.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the four reservation
// statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Reservation records a time-boxed booking of a resource by a user.
// Date is a calendar day with no timezone conversion; StartTime and
// EndTime are wall-clock values at minute precision on that same day,
// forming the half-open interval [StartTime, EndTime).
//
// Fields:
//  ID           – primary key identifier.
//  ResourceID   – resource being booked.
//  UserID       – user who owns the reservation.
//  Date         – calendar day, "YYYY-MM-DD".
//  StartTime    – wall-clock start, "HH:MM".
//  EndTime      – wall-clock end, "HH:MM" (strictly after StartTime).
//  Purpose      – non-empty reason for the booking.
//  Notes        – optional free text (nullable).
//  Status       – one of the four reservation statuses.
//  CreatedAt    – creation timestamp.
//  ResourceName – joined from resources on list queries, empty otherwise.
//  UserName     – joined from users on list queries, empty otherwise.
type Reservation struct {
	ID           uint64    // reservations.id
	ResourceID   uint64    // reservations.resource_id
	UserID       uint64    // reservations.user_id
	Date         string    // reservations.date
	StartTime    string    // reservations.start_time
	EndTime      string    // reservations.end_time
	Purpose      string    // reservations.purpose
	Notes        *string   // reservations.notes (nullable)
	Status       string    // reservations.status
	CreatedAt    time.Time // reservations.created_at
	ResourceName string    // resources.name (joined)
	UserName     string    // users.name (joined)
}
