package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/model"
	"github.com/ceniit/resource-booking/internal/repository"
)

// ProjectHandler implements project tracking. Reads are open to any
// authenticated user; writes are restricted to admins by the router.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

var projectStatuses = map[string]bool{
	"planning": true,
	"active":   true,
	"paused":   true,
	"finished": true,
}

type projectReq struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      *float64   `json:"budget"`
	Leader      *string    `json:"leader"`
	Progress    *uint8     `json:"progress"`
}

type projectResp struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	Leader      *string    `json:"leader,omitempty"`
	Progress    uint8      `json:"progress"`
	CreatedBy   uint64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatorName *string    `json:"creator_name,omitempty"`
}

func toProjectResp(p *model.Project, creator *string) projectResp {
	return projectResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Budget:      p.Budget,
		Leader:      p.Leader,
		Progress:    p.Progress,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		CreatorName: creator,
	}
}

func validateProject(req *projectReq) (string, bool) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required", false
	}
	if req.Status == "" {
		req.Status = "planning"
	}
	if !projectStatuses[req.Status] {
		return "invalid status", false
	}
	if req.Progress != nil && *req.Progress > 100 {
		return "progress must be between 0 and 100", false
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "end_date must not precede start_date", false
	}
	if req.Budget != nil && *req.Budget < 0 {
		return "budget must not be negative", false
	}
	return "", true
}

// List handles GET /v1/projects.
func (h *ProjectHandler) List(c echo.Context) error {
	items, err := h.Projects.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load projects"})
	}
	out := make([]projectResp, 0, len(items))
	for i := range items {
		out = append(out, toProjectResp(&items[i].Project, items[i].CreatorName))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get handles GET /v1/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	p, err := h.Projects.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load project"})
	}
	return c.JSON(http.StatusOK, echo.Map{"project": toProjectResp(p, nil)})
}

// Create handles POST /v1/projects (admin).
func (h *ProjectHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := validateProject(&req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	p := model.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Leader:      req.Leader,
		CreatedBy:   actor.ID,
	}
	if req.Progress != nil {
		p.Progress = *req.Progress
	}
	if err := h.Projects.Create(c.Request().Context(), &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create project"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "project created", "project": toProjectResp(&p, nil)})
}

// Update handles PUT /v1/projects/:id (admin).
func (h *ProjectHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := validateProject(&req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	p := model.Project{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Leader:      req.Leader,
	}
	if req.Progress != nil {
		p.Progress = *req.Progress
	}
	fresh, err := h.Projects.Update(c.Request().Context(), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update project"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project updated", "project": toProjectResp(fresh, nil)})
}

// Delete handles DELETE /v1/projects/:id (admin).
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	if err := h.Projects.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete project"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
