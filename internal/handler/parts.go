package handler

import (
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PartsHandler struct{ svc service.InventoryService }

func NewPartsHandler(svc service.InventoryService) *PartsHandler {
	return &PartsHandler{svc: svc}
}

func (h *PartsHandler) Create(c *gin.Context) {
	var req dto.CreatePartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePart(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PartsHandler) List(c *gin.Context) {
	var filter dto.PartFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListParts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetPart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) Stock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	stock, err := h.svc.GetStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{PartID: id.String(), Stock: stock})
}

// Update never changes stock; see RecordMovement.
func (h *PartsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePart(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) SetActive(c *gin.Context) {
	setActive(c, func(id uuid.UUID, active bool) error {
		return h.svc.SetActive(c.Request.Context(), id, active)
	})
}

func (h *PartsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePart(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PartsHandler) ListMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Movimiento manual de stock (IN/OUT)
// @Tags parts
// @Accept json
// @Produce json
// @Param id path string true "ID del repuesto"
// @Param body body dto.MovementRequest true "Movimiento"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError "INSUFFICIENT_STOCK"
// @Security BearerAuth
// @Router /api/parts/{id}/movements [post]
func (h *PartsHandler) RecordMovement(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
