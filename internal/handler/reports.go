package handler

import (
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Kinds lists the report kinds the server can render.
func (h *ReportsHandler) Kinds(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ReportKinds)
}

// Render godoc
// @Summary Reporte por tipo
// @Tags reports
// @Produce json
// @Param kind path string true "vehicle-history, mechanic-performance, part-traceability, part-stock-status, service-popularity, pending-invoices o client-activity"
// @Param plate query string false "Patente (vehicle-history)"
// @Param partId query string false "Repuesto (part-traceability)"
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Success 200 {object} any
// @Failure 400 {object} apierror.APIError
// @Security BearerAuth
// @Router /api/reports/{kind} [get]
func (h *ReportsHandler) Render(c *gin.Context) {
	var q dto.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	out, err := h.svc.Render(c.Request.Context(), dto.ReportKind(c.Param("kind")), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
