// Package scheduler implements the reservation core: the rules that
// decide whether a booking may be created, how overlapping windows are
// detected, and who may move a reservation between statuses. It holds
// no state of its own; all shared state lives behind the ResourceLookup
// and ReservationStore collaborators injected at construction time.
package scheduler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ceniit/resource-booking/internal/model"
)

// Domain error taxonomy. All of these are expected, recoverable
// outcomes that the HTTP layer translates to status codes; anything
// else returned by the scheduler is an opaque infrastructure failure.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceUnavailable = errors.New("resource not available")
	ErrOverlapConflict     = errors.New("reservation overlaps an existing reservation")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidStatus       = errors.New("invalid reservation status")
)

// Actor identifies the authenticated caller of an operation. It is
// supplied per request by the auth middleware and never persisted here.
type Actor struct {
	ID   uint64
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ResourceLookup is the read-side collaborator for resources. The
// scheduler only consumes the status flag; resource CRUD belongs to
// the administrative handlers. Implementations signal an absent
// resource with sql.ErrNoRows.
type ResourceLookup interface {
	FindByID(ctx context.Context, id uint64) (*model.Resource, error)
}

// ReservationStore is the persistence collaborator for reservations.
// Implementations signal absent rows with sql.ErrNoRows.
//
// Create must make the overlap check atomic with respect to other
// concurrent inserts for the same resource and date: the scheduler's
// own check-then-insert sequence is not enough on its own, so an
// implementation that loses the race reports ErrOverlapConflict.
type ReservationStore interface {
	// FindOverlapping returns reservations on the given resource and
	// date whose status is neither cancelled nor rejected and whose
	// window touches [start, end). Returning a superset of the
	// conflicting rows is acceptable; the scheduler re-applies the
	// overlap predicate to every row.
	FindOverlapping(ctx context.Context, resourceID uint64, date, start, end string) ([]model.Reservation, error)
	Create(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// ListAll and ListByOwner return reservations ordered by date
	// descending, then start time descending.
	ListAll(ctx context.Context) ([]model.Reservation, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error)
}

// CreateRequest carries a validated reservation creation request into
// the core. Input-format validation (date and time shape, non-empty
// purpose) happens at the HTTP boundary before this type is built.
type CreateRequest struct {
	ResourceID uint64
	Date       string // "YYYY-MM-DD"
	StartTime  string // "HH:MM"
	EndTime    string // "HH:MM"
	Purpose    string
	Notes      *string
	OwnerID    uint64
}

// Scheduler is the reservation scheduling core. Construct it with New;
// the zero value is not usable.
type Scheduler struct {
	resources    ResourceLookup
	reservations ReservationStore
}

// New builds a Scheduler from its collaborators. Both must be non-nil.
func New(resources ResourceLookup, reservations ReservationStore) *Scheduler {
	if resources == nil || reservations == nil {
		panic("nil collaborator passed to scheduler.New")
	}
	return &Scheduler{resources: resources, reservations: reservations}
}

// Create validates a creation request against the booking rules and
// persists it. The resource must exist and carry the "available"
// status flag; the gate is deliberately coarse and does not derive
// availability from other bookings. The requested window must not
// overlap any pending or confirmed reservation on the same resource
// and date. The stored reservation is always pending, regardless of
// anything the caller supplied.
func (s *Scheduler) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	win, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	resource, err := s.resources.FindByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if resource.Status != model.ResourceAvailable {
		return nil, ErrResourceUnavailable
	}

	existing, err := s.reservations.FindOverlapping(ctx, req.ResourceID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		otherWin, err := parseWindow(other.StartTime, other.EndTime)
		if err != nil {
			return nil, err
		}
		if Overlaps(win.start, win.end, otherWin.start, otherWin.end) {
			return nil, ErrOverlapConflict
		}
	}

	res := &model.Reservation{
		ResourceID: req.ResourceID,
		UserID:     req.OwnerID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    req.Purpose,
		Notes:      req.Notes,
		Status:     model.StatusPending,
	}
	// The store repeats the overlap check inside its insert transaction
	// and returns ErrOverlapConflict when a concurrent request won the
	// slot between our check and the insert.
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateStatus moves a reservation to the target status on behalf of
// the actor. Admins may set any of the four statuses, including moving
// a reservation out of a terminal state; no overlap re-validation is
// performed on such a reactivation, matching the booking policy that
// admins override the calendar. Non-admins may only cancel their own
// reservations.
func (s *Scheduler) UpdateStatus(ctx context.Context, id uint64, target string, actor Actor) (*model.Reservation, error) {
	if !model.ValidStatus(target) {
		return nil, ErrInvalidStatus
	}

	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	if !actor.IsAdmin() {
		if target != model.StatusCancelled || res.UserID != actor.ID {
			return nil, ErrForbidden
		}
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return updated, nil
}

// List returns the reservations visible to the actor: everything for
// admins, only their own rows for everyone else. Ordering (date
// descending, then start time descending) is supplied by the store.
func (s *Scheduler) List(ctx context.Context, actor Actor) ([]model.Reservation, error) {
	if actor.IsAdmin() {
		return s.reservations.ListAll(ctx)
	}
	return s.reservations.ListByOwner(ctx, actor.ID)
}
