package handler

import (
	"net/http"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
)

// OrdersHandler serves repair orders and their composition: items,
// mechanic assignments and part usages.
type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

// Create godoc
// @Summary Alta de orden de reparacion
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.CreateOrderRequest true "Orden"
// @Success 201 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /api/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Listado paginado de ordenes
// @Tags orders
// @Produce json
// @Param status query string false "DRAFT, SCHEDULED, IN_PROGRESS, COMPLETED o CANCELLED"
// @Param licensePlate query string false "Patente"
// @Param page query int false "Pagina (desde 0)"
// @Param size query int false "Tamano de pagina"
// @Success 200 {object} dto.Page[dto.OrderResponse]
// @Security BearerAuth
// @Router /api/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeStatus godoc
// @Summary Transicion de estado de la orden
// @Tags orders
// @Produce json
// @Param id path string true "ID de la orden"
// @Param status query string true "Estado destino"
// @Success 200 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /api/orders/{id}/status [post]
func (h *OrdersHandler) ChangeStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	status := c.Query("status")
	if status == "" {
		respondError(c, apierror.Invalid("el parametro status es obligatorio"))
		return
	}
	resp, err := h.svc.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Items ────────────────────────────────────────────────────────────────────

func (h *OrdersHandler) ListItems(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListItems(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) AddItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) GetItem(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) UpdateItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) RemoveItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Assignments ──────────────────────────────────────────────────────────────

func (h *OrdersHandler) ListAssignments(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListAssignments(c.Request.Context(), id, itemID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) AddAssignment(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	var req dto.AddAssignmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddAssignment(c.Request.Context(), id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) UpdateAssignment(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	mechanicID, ok := paramID(c, "mechanicId")
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateAssignment(c.Request.Context(), id, itemID, mechanicID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) RemoveAssignment(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	mechanicID, ok := paramID(c, "mechanicId")
	if !ok {
		return
	}
	if err := h.svc.RemoveAssignment(c.Request.Context(), id, itemID, mechanicID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Part usages ──────────────────────────────────────────────────────────────

func (h *OrdersHandler) ListPartUsages(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListPartUsages(c.Request.Context(), id, itemID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddPartUsage godoc
// @Summary Consumo de repuesto en un item
// @Description Reserva stock y registra el uso en una sola transaccion.
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.AddPartUsageRequest true "Repuesto y cantidad"
// @Success 201 {object} dto.PartUsageResponse
// @Failure 409 {object} apierror.APIError "INSUFFICIENT_STOCK o INVALID_STATE"
// @Security BearerAuth
// @Router /api/orders/{id}/items/{itemId}/parts [post]
func (h *OrdersHandler) AddPartUsage(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	var req dto.AddPartUsageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddPartUsage(c.Request.Context(), id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) UpdatePartUsage(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	partID, ok := paramID(c, "partId")
	if !ok {
		return
	}
	var req dto.UpdatePartUsageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePartUsage(c.Request.Context(), id, itemID, partID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) RemovePartUsage(c *gin.Context) {
	id, itemID, ok := orderItem(c)
	if !ok {
		return
	}
	partID, ok := paramID(c, "partId")
	if !ok {
		return
	}
	if err := h.svc.RemovePartUsage(c.Request.Context(), id, itemID, partID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
