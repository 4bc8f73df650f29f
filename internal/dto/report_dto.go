package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportQuery carries the optional parameters of every report kind. Each
// kind reads only the fields it needs.
type ReportQuery struct {
	Plate  string     `form:"plate"`
	PartID string     `form:"partId"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to"   time_format:"2006-01-02"`
	Limit  int        `form:"limit"`
}

type VehicleHistoryEntry struct {
	OrderID     string              `json:"orderId"`
	Status      string              `json:"status"`
	Description string              `json:"description"`
	Total       decimal.Decimal     `json:"total"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []OrderItemResponse `json:"items"`
}

type MechanicPerformanceRow struct {
	MechanicID  string `json:"mechanicId"`
	Name        string `json:"name"`
	Assignments int64  `json:"assignments"`
	Orders      int64  `json:"orders"`
	Hours       int64  `json:"estimatedHours"`
}

type PartTraceability struct {
	Part      PartResponse        `json:"part"`
	Movements []MovementResponse  `json:"movements"`
	Usages    []PartUsageResponse `json:"usages"`
}

type PartStockRow struct {
	PartID    string `json:"partId"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
	Low       bool   `json:"low"`
}

type ServicePopularityRow struct {
	ServiceID string          `json:"serviceId"`
	Name      string          `json:"name"`
	Items     int64           `json:"items"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ClientActivityRow struct {
	ClientID string          `json:"clientId"`
	Name     string          `json:"name"`
	Orders   int64           `json:"orders"`
	Spent    decimal.Decimal `json:"spent"`
}

// OrderMarginRow is one completed order. MarginPct is the margin over
// revenue in percent, zero when there is no revenue.
type OrderMarginRow struct {
	OrderID      string          `json:"orderId"`
	ClientName   string          `json:"clientName"`
	LicensePlate string          `json:"licensePlate"`
	CreatedAt    time.Time       `json:"createdAt"`
	Revenue      decimal.Decimal `json:"revenue"`
	PartsCost    decimal.Decimal `json:"partsCost"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	Margin       decimal.Decimal `json:"margin"`
	MarginPct    decimal.Decimal `json:"marginPct"`
}

type ClientProfitabilityRow struct {
	ClientID  string          `json:"clientId"`
	Name      string          `json:"name"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	PartsCost decimal.Decimal `json:"partsCost"`
	LaborCost decimal.Decimal `json:"laborCost"`
	Margin    decimal.Decimal `json:"margin"`
	MarginPct decimal.Decimal `json:"marginPct"`
}

type MechanicProductivityRow struct {
	MechanicID      string          `json:"mechanicId"`
	Name            string          `json:"name"`
	Specialization  string          `json:"specialization"`
	AssignedOrders  int64           `json:"assignedOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	CompletionPct   decimal.Decimal `json:"completionPct"`
	Hours           int64           `json:"estimatedHours"`
	Revenue         decimal.Decimal `json:"revenue"`
	LaborCost       decimal.Decimal `json:"laborCost"`
	Margin          decimal.Decimal `json:"margin"`
}

// ReportKind names a report. Every kind has exactly one renderer on the
// server and one request builder in the console client.
type ReportKind string

const (
	ReportVehicleHistory       ReportKind = "vehicle-history"
	ReportMechanicPerformance  ReportKind = "mechanic-performance"
	ReportPartTraceability     ReportKind = "part-traceability"
	ReportPartStockStatus      ReportKind = "part-stock-status"
	ReportServicePopularity    ReportKind = "service-popularity"
	ReportPendingInvoices      ReportKind = "pending-invoices"
	ReportClientActivity       ReportKind = "client-activity"
	ReportOrderMargin          ReportKind = "order-margin"
	ReportClientProfitability  ReportKind = "client-profitability"
	ReportMechanicProductivity ReportKind = "mechanic-productivity"
)

// ReportKinds lists every kind in display order.
var ReportKinds = []ReportKind{
	ReportVehicleHistory,
	ReportMechanicPerformance,
	ReportPartTraceability,
	ReportPartStockStatus,
	ReportServicePopularity,
	ReportPendingInvoices,
	ReportClientActivity,
	ReportOrderMargin,
	ReportClientProfitability,
	ReportMechanicProductivity,
}

// ParseReportKind reports whether s names a known kind.
func ParseReportKind(s string) (ReportKind, bool) {
	for _, k := range ReportKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
