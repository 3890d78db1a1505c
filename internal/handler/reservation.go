package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/model"
	"github.com/ceniit/resource-booking/internal/queue"
	"github.com/ceniit/resource-booking/internal/scheduler"
)

// EventPublisher pushes reservation lifecycle events to the message
// broker. A nil publisher disables eventing; publish failures never
// fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationHandler exposes the scheduling core over HTTP. It owns no
// business rules itself: input-format validation happens here, every
// decision is delegated to the scheduler, and domain errors are
// translated to status codes.
type ReservationHandler struct {
	Sched     *scheduler.Scheduler
	Publisher EventPublisher
}

// NewReservationHandler constructs a ReservationHandler. The scheduler
// must be non-nil; the publisher may be nil.
func NewReservationHandler(sched *scheduler.Scheduler, pub EventPublisher) *ReservationHandler {
	if sched == nil {
		panic("nil scheduler passed to NewReservationHandler")
	}
	return &ReservationHandler{Sched: sched, Publisher: pub}
}

type createReservationReq struct {
	ResourceID uint64  `json:"resource_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Purpose    string  `json:"purpose"`
	Notes      *string `json:"notes"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

type reservationResp struct {
	ID           uint64    `json:"id"`
	ResourceID   uint64    `json:"resource_id"`
	UserID       uint64    `json:"user_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Purpose      string    `json:"purpose"`
	Notes        *string   `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ResourceName string    `json:"resource_name,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:           r.ID,
		ResourceID:   r.ResourceID,
		UserID:       r.UserID,
		Date:         r.Date,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Purpose:      r.Purpose,
		Notes:        r.Notes,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		ResourceName: r.ResourceName,
		UserName:     r.UserName,
	}
}

// List handles GET /v1/reservations. Admins see every reservation;
// other users only their own. Rows come back ordered by date
// descending, then start time descending.
func (h *ReservationHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.Sched.List(c.Request().Context(), actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	items := make([]reservationResp, 0, len(rows))
	for i := range rows {
		items = append(items, toReservationResp(&rows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Create handles POST /v1/reservations. The request must name an
// existing, available resource and a free same-day window; the stored
// reservation is always pending.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := validateCreate(&req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	res, err := h.Sched.Create(c.Request().Context(), scheduler.CreateRequest{
		ResourceID: req.ResourceID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    req.Purpose,
		Notes:      req.Notes,
		OwnerID:    actor.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrResourceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		case errors.Is(err, scheduler.ErrResourceUnavailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource not available"})
		case errors.Is(err, scheduler.ErrOverlapConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation overlaps an existing reservation"})
		case errors.Is(err, scheduler.ErrInvalidTimeRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be before end_time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}

	h.publish(c, queue.ActionCreated, res)
	return c.JSON(http.StatusCreated, echo.Map{"message": "reservation created", "reservation": toReservationResp(res)})
}

// UpdateStatus handles PUT /v1/reservations/:id. Admins may set any
// status; other users may only cancel their own reservations.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Sched.UpdateStatus(c.Request().Context(), id, strings.ToLower(strings.TrimSpace(req.Status)), actor)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		case errors.Is(err, scheduler.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, scheduler.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}

	h.publish(c, queue.ActionStatusChanged, res)
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation updated", "reservation": toReservationResp(res)})
}

// validateCreate enforces the request shape before the core runs:
// positive resource id, ISO calendar date, HH:MM times and a non-empty
// purpose.
func validateCreate(req *createReservationReq) (string, bool) {
	if req.ResourceID == 0 {
		return "resource_id is required", false
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return "date must be YYYY-MM-DD", false
	}
	if _, err := scheduler.MinuteOfDay(req.StartTime); err != nil {
		return "start_time must be HH:MM", false
	}
	if _, err := scheduler.MinuteOfDay(req.EndTime); err != nil {
		return "end_time must be HH:MM", false
	}
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.Purpose == "" {
		return "purpose is required", false
	}
	return "", true
}

func (h *ReservationHandler) publish(c echo.Context, action string, res *model.Reservation) {
	if h.Publisher == nil {
		return
	}
	// Best effort: the reservation is already persisted, so a broker
	// outage must not turn the response into an error.
	_ = h.Publisher.Publish(c.Request().Context(), queue.ReservationEvent{
		Action:        action,
		ReservationID: res.ID,
		ResourceID:    res.ResourceID,
		UserID:        res.UserID,
		Date:          res.Date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Status:        res.Status,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
}
