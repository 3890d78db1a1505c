package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/handler"
	"github.com/ceniit/resource-booking/internal/middleware"
)

// RegisterReservations registers the reservation endpoints. Every
// route requires authentication; the scheduler decides per-operation
// what each role may do, so both roles are admitted here.
//
// Reservation responses are scoped to the caller, so no response cache
// is attached to this group.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("admin", "user"))

	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.UpdateStatus)
}
