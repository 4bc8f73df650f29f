package infra

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"motorplus/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteInvoicePDF(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	doc := &dto.InvoiceDocument{
		Client: "Ana Muñoz",
		Invoice: dto.InvoiceResponse{
			Number:    "INV-000007",
			Status:    "ISSUED",
			Total:     decimal.RequireFromString("66"),
			Balance:   decimal.RequireFromString("16"),
			IssueDate: now,
			DueDate:   now.AddDate(0, 0, 30),
		},
		Lines: []dto.InvoiceLineResponse{
			{Type: "SERVICE", Description: "Cambio de aceite y filtro", Quantity: 1, UnitPrice: decimal.RequireFromString("50"), Subtotal: decimal.RequireFromString("50")},
			{Type: "PART", Description: strings.Repeat("Pastilla ", 20), Quantity: 2, UnitPrice: decimal.RequireFromString("8"), Subtotal: decimal.RequireFromString("16")},
		},
		Payments: []dto.PaymentResponse{{Amount: decimal.RequireFromString("50"), Method: "CASH", PaidAt: now}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInvoicePDF(&buf, "Taller Norte", doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 10))
	assert.Equal(t, "señ...", truncate("señalizacion", 4))
}
