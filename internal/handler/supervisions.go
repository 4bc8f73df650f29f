package handler

import (
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SupervisionsHandler struct{ svc service.SupervisionService }

func NewSupervisionsHandler(svc service.SupervisionService) *SupervisionsHandler {
	return &SupervisionsHandler{svc: svc}
}

func (h *SupervisionsHandler) List(c *gin.Context) {
	var filter dto.SupervisionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListByOrderPage(c.Request.Context(), uuid.MustParse(filter.OrderID), filter.PageQuery)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Registro de supervision entre mecanicos
// @Tags supervisions
// @Accept json
// @Produce json
// @Param body body dto.CreateSupervisionRequest true "Supervision"
// @Success 201 {object} dto.SupervisionResponse
// @Failure 409 {object} apierror.APIError "SELF_SUPERVISION o DUPLICATE_SUPERVISION"
// @Security BearerAuth
// @Router /api/supervisions [post]
func (h *SupervisionsHandler) Create(c *gin.Context) {
	var req dto.CreateSupervisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete answers 204 whether or not the triple existed.
func (h *SupervisionsHandler) Delete(c *gin.Context) {
	var q dto.SupervisionKey
	if !bindQuery(c, &q) {
		return
	}
	key, err := service.ParseSupervisionKey(q)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), key); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
