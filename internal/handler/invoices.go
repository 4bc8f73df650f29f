package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"motorplus/internal/dto"
	"motorplus/internal/infra"
	"motorplus/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoicesHandler struct {
	svc      service.BillingService
	workshop string
}

func NewInvoicesHandler(svc service.BillingService, workshop string) *InvoicesHandler {
	return &InvoicesHandler{svc: svc, workshop: workshop}
}

// FromOrder godoc
// @Summary Genera la factura de una orden COMPLETED
// @Tags invoices
// @Produce json
// @Param orderId path string true "ID de la orden"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 409 {object} apierror.APIError "INVALID_STATE o DUPLICATE_INVOICE"
// @Security BearerAuth
// @Router /api/invoices/from-order/{orderId} [post]
func (h *InvoicesHandler) FromOrder(c *gin.Context) {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return
	}
	resp, err := h.svc.GenerateFromOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteInvoice(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InvoicesHandler) Lines(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.GetLines(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) ListPayments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListPayments(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// invoiceLine reads the :id, :type and :refId path params.
func invoiceLine(c *gin.Context) (id uuid.UUID, lineType string, refID uuid.UUID, ok bool) {
	if id, ok = paramID(c, "id"); !ok {
		return
	}
	refID, ok = paramID(c, "refId")
	return id, c.Param("type"), refID, ok
}

// AddLine godoc
// @Summary Agrega una linea a una factura DRAFT
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "ID de la factura"
// @Param body body dto.AddInvoiceLineRequest true "Linea"
// @Success 201 {object} dto.InvoiceLineResponse
// @Failure 409 {object} apierror.APIError "INVALID_STATE"
// @Security BearerAuth
// @Router /api/invoices/{id}/lines [post]
func (h *InvoicesHandler) AddLine(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AddInvoiceLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddLine(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoicesHandler) UpdateLine(c *gin.Context) {
	id, lineType, refID, ok := invoiceLine(c)
	if !ok {
		return
	}
	var req dto.UpdateInvoiceLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateLine(c.Request.Context(), id, lineType, refID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) RemoveLine(c *gin.Context) {
	id, lineType, refID, ok := invoiceLine(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveLine(c.Request.Context(), id, lineType, refID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InvoicesHandler) AddPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AddPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddPayment(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoicesHandler) RemovePayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := paramID(c, "paymentId")
	if !ok {
		return
	}
	if err := h.svc.RemovePayment(c.Request.Context(), id, paymentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PDF godoc
// @Summary Descarga la factura en PDF
// @Tags invoices
// @Produce application/pdf
// @Param id path string true "ID de la factura"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /api/invoices/{id}/pdf [get]
func (h *InvoicesHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Document(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := infra.WriteInvoicePDF(&buf, h.workshop, doc); err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, doc.Invoice.Number))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
