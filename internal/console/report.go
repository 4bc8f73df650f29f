package console

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ReportParams are the inputs a report kind may need. Each builder reads
// only its own fields.
type ReportParams struct {
	Plate  string
	PartID uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
}

// reportBuilder encodes a kind's query and decodes its typed result.
type reportBuilder struct {
	query  func(ReportParams) (url.Values, error)
	decode func(json.RawMessage) (any, error)
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	return out, nil
}

func noParams(ReportParams) (url.Values, error) { return url.Values{}, nil }

func rangeParams(p ReportParams) (url.Values, error) {
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return nil, apierror.Invalid("el rango de fechas es invalido")
	}
	q := url.Values{}
	if p.From != nil {
		q.Set("from", p.From.Format(time.DateOnly))
	}
	if p.To != nil {
		q.Set("to", p.To.Format(time.DateOnly))
	}
	return q, nil
}

var reportBuilders = map[dto.ReportKind]reportBuilder{
	dto.ReportVehicleHistory: {
		query: func(p ReportParams) (url.Values, error) {
			if strings.TrimSpace(p.Plate) == "" {
				return nil, apierror.Invalid("la patente es obligatoria")
			}
			return url.Values{"plate": {p.Plate}}, nil
		},
		decode: decodeAs[[]dto.VehicleHistoryEntry],
	},
	dto.ReportMechanicPerformance: {query: rangeParams, decode: decodeAs[[]dto.MechanicPerformanceRow]},
	dto.ReportPartTraceability: {
		query: func(p ReportParams) (url.Values, error) {
			if p.PartID == uuid.Nil {
				return nil, apierror.Invalid("el repuesto es obligatorio")
			}
			return url.Values{"partId": {p.PartID.String()}}, nil
		},
		decode: decodeAs[dto.PartTraceability],
	},
	dto.ReportPartStockStatus: {query: noParams, decode: decodeAs[[]dto.PartStockRow]},
	dto.ReportServicePopularity: {
		query: func(p ReportParams) (url.Values, error) {
			q, err := rangeParams(p)
			if err != nil {
				return nil, err
			}
			if p.Limit > 0 {
				q.Set("limit", strconv.Itoa(p.Limit))
			}
			return q, nil
		},
		decode: decodeAs[[]dto.ServicePopularityRow],
	},
	dto.ReportPendingInvoices: {query: noParams, decode: decodeAs[[]dto.InvoiceResponse]},
	dto.ReportClientActivity:  {query: rangeParams, decode: decodeAs[[]dto.ClientActivityRow]},

	dto.ReportOrderMargin:          {query: rangeParams, decode: decodeAs[[]dto.OrderMarginRow]},
	dto.ReportClientProfitability:  {query: rangeParams, decode: decodeAs[[]dto.ClientProfitabilityRow]},
	dto.ReportMechanicProductivity: {query: rangeParams, decode: decodeAs[[]dto.MechanicProductivityRow]},
}

// Report fetches one report and returns its typed rows, for example
// []dto.PartStockRow for ReportPartStockStatus. Parameters are checked
// before any remote call.
func (o *Orchestrator) Report(ctx context.Context, kind dto.ReportKind, p ReportParams) (any, error) {
	b, ok := reportBuilders[kind]
	if !ok {
		return nil, apierror.Invalid("reporte desconocido: %q", kind)
	}
	q, err := b.query(p)
	if err != nil {
		return nil, err
	}
	raw, err := o.client.report(ctx, kind, q)
	if err != nil {
		return nil, errors.Wrapf(err, "report %s", kind)
	}
	return b.decode(raw)
}
