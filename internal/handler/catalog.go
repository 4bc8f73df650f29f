package handler

import (
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves the service catalog and the mechanic roster.
type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req dto.ServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateService(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	var filter dto.CatalogFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListServices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetService(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) SetServiceActive(c *gin.Context) {
	setActive(c, func(id uuid.UUID, active bool) error {
		return h.svc.SetServiceActive(c.Request.Context(), id, active)
	})
}

func (h *CatalogHandler) DeleteService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteService(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Mechanics ────────────────────────────────────────────────────────────────

func (h *CatalogHandler) CreateMechanic(c *gin.Context) {
	var req dto.MechanicRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateMechanic(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListMechanics(c *gin.Context) {
	var filter dto.CatalogFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMechanics(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetMechanic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetMechanic(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) UpdateMechanic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MechanicRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateMechanic(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) SetMechanicActive(c *gin.Context) {
	setActive(c, func(id uuid.UUID, active bool) error {
		return h.svc.SetMechanicActive(c.Request.Context(), id, active)
	})
}

func (h *CatalogHandler) DeleteMechanic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMechanic(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
