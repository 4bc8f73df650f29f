package service

import (
	"cmp"
	"context"
	"slices"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ReportRenderer builds the data of one report kind.
type ReportRenderer interface {
	Render(ctx context.Context, q dto.ReportQuery) (any, error)
}

type ReportService interface {
	Render(ctx context.Context, kind dto.ReportKind, q dto.ReportQuery) (any, error)
}

type reportService struct {
	renderers map[dto.ReportKind]ReportRenderer
}

func NewReportService(
	reports repository.ReportRepository,
	orders repository.OrderRepository,
	parts repository.PartRepository,
	invoices repository.InvoiceRepository,
	lowStockThreshold int,
	laborHourCost decimal.Decimal,
) ReportService {
	return &reportService{renderers: map[dto.ReportKind]ReportRenderer{
		dto.ReportVehicleHistory:      vehicleHistoryReport{orders: orders},
		dto.ReportMechanicPerformance: mechanicPerformanceReport{reports: reports},
		dto.ReportPartTraceability:    partTraceabilityReport{parts: parts, orders: orders},
		dto.ReportPartStockStatus:     partStockReport{reports: reports, threshold: lowStockThreshold},
		dto.ReportServicePopularity:   servicePopularityReport{reports: reports},
		dto.ReportPendingInvoices:     pendingInvoicesReport{invoices: invoices},
		dto.ReportClientActivity:      clientActivityReport{reports: reports},

		dto.ReportOrderMargin:          orderMarginReport{reports: reports, hourCost: laborHourCost},
		dto.ReportClientProfitability:  clientProfitabilityReport{reports: reports, hourCost: laborHourCost},
		dto.ReportMechanicProductivity: mechanicProductivityReport{reports: reports, hourCost: laborHourCost},
	}}
}

func (s *reportService) Render(ctx context.Context, kind dto.ReportKind, q dto.ReportQuery) (any, error) {
	r, ok := s.renderers[kind]
	if !ok {
		return nil, apierror.Invalid("reporte desconocido: %q", kind)
	}
	return r.Render(ctx, q)
}

func dateRange(q dto.ReportQuery) (repository.DateRange, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repository.DateRange{}, apierror.Invalid("el rango de fechas es invalido")
	}
	return repository.DateRange{From: q.From, To: q.To}, nil
}

type vehicleHistoryReport struct{ orders repository.OrderRepository }

func (r vehicleHistoryReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	plate := normalizePlate(q.Plate)
	if plate == "" {
		return nil, apierror.Invalid("la patente es obligatoria")
	}
	orders, err := r.orders.ListByPlate(ctx, plate)
	if err != nil {
		return nil, errors.Wrap(err, "vehicle history")
	}
	return mapSlice(orders, historyEntry), nil
}

type mechanicPerformanceReport struct{ reports repository.ReportRepository }

func (r mechanicPerformanceReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.MechanicPerformance(ctx, dr)
	if err != nil {
		return nil, errors.Wrap(err, "mechanic performance")
	}
	return mapSlice(rows, func(row *repository.MechanicPerformanceRow) dto.MechanicPerformanceRow {
		return dto.MechanicPerformanceRow{
			MechanicID:  row.MechanicID.String(),
			Name:        row.FirstName + " " + row.LastName,
			Assignments: row.Assignments,
			Orders:      row.Orders,
			Hours:       row.Hours,
		}
	}), nil
}

type partTraceabilityReport struct {
	parts  repository.PartRepository
	orders repository.OrderRepository
}

func (r partTraceabilityReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	partID, err := parseID("partId", q.PartID)
	if err != nil {
		return nil, err
	}
	part, err := r.parts.FindByID(ctx, partID)
	if err != nil {
		return nil, lookup(err, "repuesto", partID)
	}
	moves, err := r.parts.AllMovements(ctx, partID)
	if err != nil {
		return nil, errors.Wrap(err, "part movements")
	}
	usages, err := r.orders.ListPartUsagesByPart(ctx, partID)
	if err != nil {
		return nil, errors.Wrap(err, "part usages")
	}
	return dto.PartTraceability{
		Part:      partToResponse(part),
		Movements: mapSlice(moves, movementToResponse),
		Usages:    mapSlice(usages, partUsageToResponse),
	}, nil
}

type partStockReport struct {
	reports   repository.ReportRepository
	threshold int
}

func (r partStockReport) Render(ctx context.Context, _ dto.ReportQuery) (any, error) {
	parts, err := r.reports.StockStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "stock status")
	}
	out := make([]dto.PartStockRow, len(parts))
	for i, p := range parts {
		out[i] = dto.PartStockRow{
			PartID:    p.ID.String(),
			Name:      p.Name,
			SKU:       p.SKU,
			Stock:     p.Stock,
			Threshold: r.threshold,
			Low:       p.Stock <= r.threshold,
		}
	}
	return out, nil
}

type servicePopularityReport struct{ reports repository.ReportRepository }

func (r servicePopularityReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.ServicePopularity(ctx, dr, q.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "service popularity")
	}
	return mapSlice(rows, func(row *repository.ServicePopularityRow) dto.ServicePopularityRow {
		return dto.ServicePopularityRow{
			ServiceID: row.ServiceID.String(),
			Name:      row.Name,
			Items:     row.Items,
			Quantity:  row.Quantity,
			Revenue:   row.Revenue,
		}
	}), nil
}

type pendingInvoicesReport struct{ invoices repository.InvoiceRepository }

func (r pendingInvoicesReport) Render(ctx context.Context, _ dto.ReportQuery) (any, error) {
	rows, err := r.invoices.ListPending(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "pending invoices")
	}
	return mapSlice(rows, invoiceToResponse), nil
}

type clientActivityReport struct{ reports repository.ReportRepository }

func (r clientActivityReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.ClientActivity(ctx, dr)
	if err != nil {
		return nil, errors.Wrap(err, "client activity")
	}
	return mapSlice(rows, func(row *repository.ClientActivityRow) dto.ClientActivityRow {
		return dto.ClientActivityRow{
			ClientID: row.ClientID.String(),
			Name:     row.FirstName + " " + row.LastName,
			Orders:   row.Orders,
			Spent:    row.Spent,
		}
	}), nil
}

// costs accumulates the money side of the margin reports.
type costs struct {
	revenue decimal.Decimal
	parts   decimal.Decimal
	labor   decimal.Decimal
}

func orderCosts(row *repository.OrderCostRow, hourCost decimal.Decimal) costs {
	return costs{
		revenue: row.Revenue.Round(2),
		parts:   row.PartsCost.Round(2),
		labor:   hourCost.Mul(decimal.NewFromInt(row.LaborHours)).Round(2),
	}
}

func (c costs) add(o costs) costs {
	return costs{revenue: c.revenue.Add(o.revenue), parts: c.parts.Add(o.parts), labor: c.labor.Add(o.labor)}
}

func (c costs) margin() decimal.Decimal { return c.revenue.Sub(c.parts).Sub(c.labor) }

// percent is part over whole in percent with two decimals, zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).Round(2)
}

type orderMarginReport struct {
	reports  repository.ReportRepository
	hourCost decimal.Decimal
}

func (r orderMarginReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.OrderCosts(ctx, dr)
	if err != nil {
		return nil, errors.Wrap(err, "order margin")
	}
	return mapSlice(rows, func(row *repository.OrderCostRow) dto.OrderMarginRow {
		c := orderCosts(row, r.hourCost)
		return dto.OrderMarginRow{
			OrderID:      row.OrderID.String(),
			ClientName:   row.FirstName + " " + row.LastName,
			LicensePlate: row.LicensePlate,
			CreatedAt:    row.CreatedAt,
			Revenue:      c.revenue,
			PartsCost:    c.parts,
			LaborCost:    c.labor,
			Margin:       c.margin(),
			MarginPct:    percent(c.margin(), c.revenue),
		}
	}), nil
}

type clientProfitabilityReport struct {
	reports  repository.ReportRepository
	hourCost decimal.Decimal
}

// Render folds the completed orders per client, highest margin first.
func (r clientProfitabilityReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.OrderCosts(ctx, dr)
	if err != nil {
		return nil, errors.Wrap(err, "client profitability")
	}
	type acc struct {
		row    dto.ClientProfitabilityRow
		totals costs
	}
	byClient := map[string]*acc{}
	var order []string
	for i := range rows {
		row := &rows[i]
		id := row.ClientID.String()
		a, ok := byClient[id]
		if !ok {
			a = &acc{row: dto.ClientProfitabilityRow{ClientID: id, Name: row.FirstName + " " + row.LastName}}
			byClient[id] = a
			order = append(order, id)
		}
		a.row.Orders++
		a.totals = a.totals.add(orderCosts(row, r.hourCost))
	}
	out := make([]dto.ClientProfitabilityRow, 0, len(order))
	for _, id := range order {
		a := byClient[id]
		a.row.Revenue = a.totals.revenue
		a.row.PartsCost = a.totals.parts
		a.row.LaborCost = a.totals.labor
		a.row.Margin = a.totals.margin()
		a.row.MarginPct = percent(a.row.Margin, a.row.Revenue)
		out = append(out, a.row)
	}
	slices.SortStableFunc(out, func(a, b dto.ClientProfitabilityRow) int {
		return b.Margin.Cmp(a.Margin)
	})
	return out, nil
}

type mechanicProductivityReport struct {
	reports  repository.ReportRepository
	hourCost decimal.Decimal
}

func (r mechanicProductivityReport) Render(ctx context.Context, q dto.ReportQuery) (any, error) {
	dr, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.reports.MechanicProductivity(ctx, dr)
	if err != nil {
		return nil, errors.Wrap(err, "mechanic productivity")
	}
	out := mapSlice(rows, func(row *repository.MechanicProductivityRow) dto.MechanicProductivityRow {
		revenue := row.Revenue.Round(2)
		labor := r.hourCost.Mul(decimal.NewFromInt(row.Hours)).Round(2)
		return dto.MechanicProductivityRow{
			MechanicID:      row.MechanicID.String(),
			Name:            row.FirstName + " " + row.LastName,
			Specialization:  row.Specialization,
			AssignedOrders:  row.AssignedOrders,
			CompletedOrders: row.CompletedOrders,
			CompletionPct:   percent(decimal.NewFromInt(row.CompletedOrders), decimal.NewFromInt(row.AssignedOrders)),
			Hours:           row.Hours,
			Revenue:         revenue,
			LaborCost:       labor,
			Margin:          revenue.Sub(labor),
		}
	})
	slices.SortStableFunc(out, func(a, b dto.MechanicProductivityRow) int {
		return cmp.Compare(b.CompletedOrders, a.CompletedOrders)
	})
	return out, nil
}
