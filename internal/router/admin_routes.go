package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/handler"
	"github.com/ceniit/resource-booking/internal/middleware"
)

// RegisterResources registers the resource catalogue. Reads are open to
// any authenticated user and may be cached; writes are admin only.
// cache may be a pass-through middleware when Redis is absent.
func RegisterResources(e *echo.Echo, h *handler.ResourceHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/resources")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("admin", "user"))

	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)

	admin := g.Group("")
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

// RegisterProjects registers project tracking with the same access
// split as resources.
func RegisterProjects(e *echo.Echo, h *handler.ProjectHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/projects")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("admin", "user"))

	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)

	admin := g.Group("")
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

// RegisterUsers registers user administration. Listing and deletion
// are admin only; get and update enforce admin-or-self inside the
// handler.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string) {
	g := e.Group("/v1/users")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("admin", "user"))

	g.GET("", h.List, middleware.RequireRole("admin"))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete, middleware.RequireRole("admin"))
}
