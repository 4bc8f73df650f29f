package repository

import (
	"context"
	"time"

	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateRange bounds report queries. Zero values are open ends.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

type MechanicPerformanceRow struct {
	MechanicID  uuid.UUID `gorm:"column:mechanic_id"`
	FirstName   string    `gorm:"column:first_name"`
	LastName    string    `gorm:"column:last_name"`
	Assignments int64     `gorm:"column:assignments"`
	Orders      int64     `gorm:"column:orders"`
	Hours       int64     `gorm:"column:hours"`
}

type ServicePopularityRow struct {
	ServiceID uuid.UUID       `gorm:"column:service_id"`
	Name      string          `gorm:"column:name"`
	Items     int64           `gorm:"column:items"`
	Quantity  int64           `gorm:"column:quantity"`
	Revenue   decimal.Decimal `gorm:"column:revenue"`
}

type ClientActivityRow struct {
	ClientID  uuid.UUID       `gorm:"column:client_id"`
	FirstName string          `gorm:"column:first_name"`
	LastName  string          `gorm:"column:last_name"`
	Orders    int64           `gorm:"column:orders"`
	Spent     decimal.Decimal `gorm:"column:spent"`
}

// OrderCostRow is one completed order with what it earned and what it
// consumed. PartsCost prices each usage at the cheapest supplier cost for
// the part, or at its sale price when no supplier lists it.
type OrderCostRow struct {
	OrderID      uuid.UUID       `gorm:"column:order_id"`
	ClientID     uuid.UUID       `gorm:"column:client_id"`
	FirstName    string          `gorm:"column:first_name"`
	LastName     string          `gorm:"column:last_name"`
	LicensePlate string          `gorm:"column:license_plate"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	Revenue      decimal.Decimal `gorm:"column:revenue"`
	PartsCost    decimal.Decimal `gorm:"column:parts_cost"`
	LaborHours   int64           `gorm:"column:labor_hours"`
}

type MechanicProductivityRow struct {
	MechanicID      uuid.UUID       `gorm:"column:mechanic_id"`
	FirstName       string          `gorm:"column:first_name"`
	LastName        string          `gorm:"column:last_name"`
	Specialization  string          `gorm:"column:specialization"`
	AssignedOrders  int64           `gorm:"column:assigned_orders"`
	CompletedOrders int64           `gorm:"column:completed_orders"`
	Hours           int64           `gorm:"column:hours"`
	Revenue         decimal.Decimal `gorm:"column:revenue"`
}

// ReportRepository runs the read-only aggregate queries behind reports.
// The SQL sticks to constructs shared by Postgres and SQLite.
type ReportRepository interface {
	MechanicPerformance(ctx context.Context, r DateRange) ([]MechanicPerformanceRow, error)
	ServicePopularity(ctx context.Context, r DateRange, limit int) ([]ServicePopularityRow, error)
	ClientActivity(ctx context.Context, r DateRange) ([]ClientActivityRow, error)
	// OrderCosts lists completed orders created in the range, oldest first.
	OrderCosts(ctx context.Context, r DateRange) ([]OrderCostRow, error)
	MechanicProductivity(ctx context.Context, r DateRange) ([]MechanicProductivityRow, error)
	// StockStatus lists active parts, lowest stock first.
	StockStatus(ctx context.Context) ([]model.Part, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

// rangeOn renders the date filter as extra JOIN conditions so LEFT JOIN
// rows without matches survive.
func rangeOn(col string, r DateRange) (string, []any) {
	cond, args := "", []any{}
	if r.From != nil {
		cond += " AND " + col + " >= ?"
		args = append(args, *r.From)
	}
	if r.To != nil {
		cond += " AND " + col + " < ?"
		args = append(args, r.To.AddDate(0, 0, 1))
	}
	return cond, args
}

func (r *reportRepo) MechanicPerformance(ctx context.Context, dr DateRange) ([]MechanicPerformanceRow, error) {
	cond, args := rangeOn("a.created_at", dr)
	var rows []MechanicPerformanceRow
	err := r.db.WithContext(ctx).Raw(`
SELECT m.id AS mechanic_id, m.first_name, m.last_name,
       COUNT(a.id) AS assignments,
       COUNT(DISTINCT oi.order_id) AS orders,
       COALESCE(SUM(a.estimated_hours), 0) AS hours
FROM mechanics m
LEFT JOIN assignments a ON a.mechanic_id = m.id`+cond+`
LEFT JOIN order_items oi ON oi.id = a.order_item_id
GROUP BY m.id, m.first_name, m.last_name
ORDER BY assignments DESC, m.last_name ASC`, args...).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) ServicePopularity(ctx context.Context, dr DateRange, limit int) ([]ServicePopularityRow, error) {
	cond, args := rangeOn("oi.created_at", dr)
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	var rows []ServicePopularityRow
	err := r.db.WithContext(ctx).Raw(`
SELECT s.id AS service_id, s.name,
       COUNT(oi.id) AS items,
       COALESCE(SUM(oi.quantity), 0) AS quantity,
       COALESCE(SUM(oi.subtotal), 0) AS revenue
FROM services s
LEFT JOIN order_items oi ON oi.service_id = s.id`+cond+`
GROUP BY s.id, s.name
ORDER BY quantity DESC, s.name ASC
LIMIT ?`, args...).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) ClientActivity(ctx context.Context, dr DateRange) ([]ClientActivityRow, error) {
	cond, args := rangeOn("o.created_at", dr)
	var rows []ClientActivityRow
	err := r.db.WithContext(ctx).Raw(`
SELECT c.id AS client_id, c.first_name, c.last_name,
       COUNT(o.id) AS orders,
       COALESCE(SUM(CASE WHEN o.status = 'COMPLETED' THEN o.total ELSE 0 END), 0) AS spent
FROM clients c
LEFT JOIN orders o ON o.client_id = c.id`+cond+`
GROUP BY c.id, c.first_name, c.last_name
ORDER BY orders DESC, c.last_name ASC`, args...).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) OrderCosts(ctx context.Context, dr DateRange) ([]OrderCostRow, error) {
	cond, args := rangeOn("o.created_at", dr)
	var rows []OrderCostRow
	err := r.db.WithContext(ctx).Raw(`
SELECT o.id AS order_id, o.client_id, c.first_name, c.last_name, o.license_plate, o.created_at,
       o.total AS revenue,
       COALESCE((
         SELECT SUM(pu.quantity * COALESCE(
                  (SELECT MIN(sp.cost) FROM supplier_parts sp WHERE sp.part_id = pu.part_id),
                  pu.unit_price))
         FROM part_usages pu
         JOIN order_items oi ON oi.id = pu.order_item_id
         WHERE oi.order_id = o.id), 0) AS parts_cost,
       COALESCE((
         SELECT SUM(a.estimated_hours)
         FROM assignments a
         JOIN order_items oi ON oi.id = a.order_item_id
         WHERE oi.order_id = o.id), 0) AS labor_hours
FROM orders o
JOIN clients c ON c.id = o.client_id
WHERE o.status = 'COMPLETED'`+cond+`
ORDER BY o.created_at ASC, o.id ASC`, args...).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) MechanicProductivity(ctx context.Context, dr DateRange) ([]MechanicProductivityRow, error) {
	cond, args := rangeOn("a.created_at", dr)
	var rows []MechanicProductivityRow
	err := r.db.WithContext(ctx).Raw(`
SELECT m.id AS mechanic_id, m.first_name, m.last_name, m.specialization,
       COUNT(DISTINCT oi.order_id) AS assigned_orders,
       COUNT(DISTINCT CASE WHEN o.status = 'COMPLETED' THEN o.id END) AS completed_orders,
       COALESCE(SUM(a.estimated_hours), 0) AS hours,
       COALESCE(SUM(CASE WHEN o.status = 'COMPLETED' THEN oi.subtotal ELSE 0 END), 0) AS revenue
FROM mechanics m
LEFT JOIN assignments a ON a.mechanic_id = m.id`+cond+`
LEFT JOIN order_items oi ON oi.id = a.order_item_id
LEFT JOIN orders o ON o.id = oi.order_id
GROUP BY m.id, m.first_name, m.last_name, m.specialization
ORDER BY completed_orders DESC, hours DESC, m.last_name ASC`, args...).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) StockStatus(ctx context.Context) ([]model.Part, error) {
	var out []model.Part
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("stock ASC, name ASC").Find(&out).Error
	return out, err
}
