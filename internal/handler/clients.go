package handler

import (
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
)

// ClientsHandler serves clients and vehicles. Vehicles are addressed by
// license plate.
type ClientsHandler struct{ svc service.ClientService }

func NewClientsHandler(svc service.ClientService) *ClientsHandler {
	return &ClientsHandler{svc: svc}
}

func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.ClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateClient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientsHandler) List(c *gin.Context) {
	var filter dto.ClientFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListClients(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateClient(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientsHandler) ListVehicles(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListClientVehicles(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) AddVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.VehicleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddClientVehicle(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ── Vehicles ─────────────────────────────────────────────────────────────────

func (h *ClientsHandler) CreateVehicle(c *gin.Context) {
	var req dto.VehicleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientsHandler) ListAllVehicles(c *gin.Context) {
	var filter dto.VehicleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListVehicles(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) GetVehicle(c *gin.Context) {
	resp, err := h.svc.GetVehicle(c.Request.Context(), c.Param("plate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VehicleHistory godoc
// @Summary Historial de ordenes de un vehiculo con sus items
// @Tags vehicles
// @Produce json
// @Param plate path string true "Patente"
// @Success 200 {array} dto.VehicleHistoryEntry
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /api/vehicles/{plate}/history [get]
func (h *ClientsHandler) VehicleHistory(c *gin.Context) {
	resp, err := h.svc.VehicleHistory(c.Request.Context(), c.Param("plate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) UpdateVehicle(c *gin.Context) {
	var req dto.VehicleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateVehicle(c.Request.Context(), c.Param("plate"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) DeleteVehicle(c *gin.Context) {
	if err := h.svc.DeleteVehicle(c.Request.Context(), c.Param("plate")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientsHandler) VehicleOrders(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.OrdersByPlate(c.Request.Context(), c.Param("plate"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
