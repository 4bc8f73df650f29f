package infra

import (
	"fmt"
	"io"
	"unicode/utf8"

	"motorplus/internal/dto"

	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 15.0
	pdfDescWidth = 48
)

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "..."
}

// WriteInvoicePDF renders doc as an A4 invoice into w under the workshop
// letterhead.
func WriteInvoicePDF(w io.Writer, workshop string, doc *dto.InvoiceDocument) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetTitle("Factura "+doc.Invoice.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW/2, 9, tr(workshop), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 9, "Factura "+doc.Invoice.Number, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	info := [][2]string{
		{"Cliente", doc.Client},
		{"Estado", doc.Invoice.Status},
		{"Emision", doc.Invoice.IssueDate.Format("02/01/2006")},
		{"Vencimiento", doc.Invoice.DueDate.Format("02/01/2006")},
	}
	for _, kv := range info {
		pdf.CellFormat(30, 5, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-30, 5, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{contentW * 0.16, contentW * 0.44, contentW * 0.1, contentW * 0.15, contentW * 0.15}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Tipo", "Descripcion", "Cant", "Unitario", "Subtotal"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 6, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range doc.Lines {
		pdf.CellFormat(widths[0], 6, l.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(truncate(l.Description, pdfDescWidth)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", l.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, "$"+l.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, "$"+l.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(pdfMargin, pdf.GetY(), pageW-pdfMargin, pdf.GetY())
	pdf.Ln(2)

	labelW := contentW - widths[4]
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 7, "TOTAL", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, "$"+doc.Invoice.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if len(doc.Payments) > 0 {
		pdf.SetFont("Helvetica", "", 9)
		for _, p := range doc.Payments {
			label := fmt.Sprintf("Pago %s %s", p.Method, p.PaidAt.Format("02/01/2006"))
			pdf.CellFormat(labelW, 5, label, "", 0, "R", false, 0, "")
			pdf.CellFormat(widths[4], 5, "-$"+p.Amount.StringFixed(2), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelW, 6, "SALDO", "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, "$"+doc.Invoice.Balance.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "write invoice pdf")
	}
	return nil
}
