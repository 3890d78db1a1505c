// Package handler defines the HTTP handlers of the booking API. All
// protected handlers assume JWT authentication and role validation
// already ran in middleware; they read the caller's identity back out
// of the Echo context.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/scheduler"
)

// getUserID extracts the user_id claim from the context and converts
// it to uint64. JWT numeric claims arrive as float64 after JSON
// decoding, but tests and other middleware may store native ints.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the scheduler's Actor from the authenticated
// request context.
func actorFrom(c echo.Context) (scheduler.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return scheduler.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return scheduler.Actor{ID: id, Role: role}, nil
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
