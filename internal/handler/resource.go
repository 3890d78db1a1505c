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

// ResourceHandler implements the resource catalogue. Reads are open to
// any authenticated user; writes are restricted to admins by the
// router.
type ResourceHandler struct {
	Resources *repository.ResourceRepo
}

func NewResourceHandler(resources *repository.ResourceRepo) *ResourceHandler {
	return &ResourceHandler{Resources: resources}
}

type resourceReq struct {
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Capacity          *uint32    `json:"capacity"`
	Location          *string    `json:"location"`
	Description       *string    `json:"description"`
	MaintenanceStart  *time.Time `json:"maintenance_start"`
	MaintenanceEnd    *time.Time `json:"maintenance_end"`
	MaintenanceReason *string    `json:"maintenance_reason"`
}

type resourceResp struct {
	ID                uint64     `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Capacity          *uint32    `json:"capacity,omitempty"`
	Location          *string    `json:"location,omitempty"`
	Description       *string    `json:"description,omitempty"`
	MaintenanceStart  *time.Time `json:"maintenance_start,omitempty"`
	MaintenanceEnd    *time.Time `json:"maintenance_end,omitempty"`
	MaintenanceReason *string    `json:"maintenance_reason,omitempty"`
	CreatedBy         uint64     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	CreatorName       *string    `json:"creator_name,omitempty"`
}

func toResourceResp(res *model.Resource, creator *string) resourceResp {
	return resourceResp{
		ID:                res.ID,
		Name:              res.Name,
		Type:              res.Type,
		Status:            res.Status,
		Capacity:          res.Capacity,
		Location:          res.Location,
		Description:       res.Description,
		MaintenanceStart:  res.MaintenanceStart,
		MaintenanceEnd:    res.MaintenanceEnd,
		MaintenanceReason: res.MaintenanceReason,
		CreatedBy:         res.CreatedBy,
		CreatedAt:         res.CreatedAt,
		CreatorName:       creator,
	}
}

func validResourceType(t string) bool {
	return t == model.ResourceRoom || t == model.ResourceEquipment
}

func validResourceStatus(s string) bool {
	return s == model.ResourceAvailable || s == model.ResourceOccupied || s == model.ResourceMaintenance
}

// List handles GET /v1/resources.
func (h *ResourceHandler) List(c echo.Context) error {
	items, err := h.Resources.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resources"})
	}
	out := make([]resourceResp, 0, len(items))
	for i := range items {
		out = append(out, toResourceResp(&items[i].Resource, items[i].CreatorName))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get handles GET /v1/resources/:id.
func (h *ResourceHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	res, err := h.Resources.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}
	return c.JSON(http.StatusOK, echo.Map{"resource": toResourceResp(res, nil)})
}

// Create handles POST /v1/resources (admin). Status defaults to
// available when omitted.
func (h *ResourceHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req resourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !validResourceType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be room or equipment"})
	}
	if req.Status == "" {
		req.Status = model.ResourceAvailable
	}
	if !validResourceStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	res := model.Resource{
		Name:        req.Name,
		Type:        req.Type,
		Status:      req.Status,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Description: req.Description,
		CreatedBy:   actor.ID,
	}
	if err := h.Resources.Create(c.Request().Context(), &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create resource"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "resource created", "resource": toResourceResp(&res, nil)})
}

// Update handles PUT /v1/resources/:id (admin). A status of
// maintenance should come with a window and reason, but that is left to
// the caller; the fields are stored as given.
func (h *ResourceHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	var req resourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !validResourceType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be room or equipment"})
	}
	if !validResourceStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.MaintenanceStart != nil && req.MaintenanceEnd != nil && !req.MaintenanceStart.Before(*req.MaintenanceEnd) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "maintenance_start must be before maintenance_end"})
	}

	res, err := h.Resources.Update(c.Request().Context(), &model.Resource{
		ID:                id,
		Name:              req.Name,
		Type:              req.Type,
		Status:            req.Status,
		Capacity:          req.Capacity,
		Location:          req.Location,
		Description:       req.Description,
		MaintenanceStart:  req.MaintenanceStart,
		MaintenanceEnd:    req.MaintenanceEnd,
		MaintenanceReason: req.MaintenanceReason,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update resource"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "resource updated", "resource": toResourceResp(res, nil)})
}

// Delete handles DELETE /v1/resources/:id (admin). Resources with
// reservations cannot be deleted.
func (h *ResourceHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	if err := h.Resources.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "resource still has reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete resource"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "resource deleted"})
}
