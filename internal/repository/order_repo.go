package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository persists the order aggregate: orders, their items, and
// each item's assignments and part usages. Methods with a Tx suffix run on
// the caller's transaction.
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindForUpdateTx row-locks the order on Postgres so concurrent
	// composition changes to the same order serialize.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	ListByPlate(ctx context.Context, plate string) ([]model.Order, error)
	UpdateTx(tx *gorm.DB, o *model.Order) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	ListItemsTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderItem, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*model.OrderItem, error)
	FindItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) (*model.OrderItem, error)
	CreateItemTx(tx *gorm.DB, item *model.OrderItem) error
	UpdateItemTx(tx *gorm.DB, item *model.OrderItem) error
	DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error

	ListAssignments(ctx context.Context, itemID uuid.UUID) ([]model.Assignment, error)
	FindAssignmentTx(tx *gorm.DB, itemID, mechanicID uuid.UUID) (*model.Assignment, error)
	CreateAssignmentTx(tx *gorm.DB, a *model.Assignment) error
	UpdateAssignmentTx(tx *gorm.DB, a *model.Assignment) error
	DeleteAssignmentTx(tx *gorm.DB, id uuid.UUID) error
	DeleteAssignmentsByItemTx(tx *gorm.DB, itemID uuid.UUID) error

	ListPartUsages(ctx context.Context, itemID uuid.UUID) ([]model.PartUsage, error)
	ListPartUsagesTx(tx *gorm.DB, itemID uuid.UUID) ([]model.PartUsage, error)
	ListPartUsagesByOrderTx(tx *gorm.DB, orderID uuid.UUID) ([]model.PartUsage, error)
	ListPartUsagesByPart(ctx context.Context, partID uuid.UUID) ([]model.PartUsage, error)
	FindPartUsageTx(tx *gorm.DB, itemID, partID uuid.UUID) (*model.PartUsage, error)
	CreatePartUsageTx(tx *gorm.DB, pu *model.PartUsage) error
	UpdatePartUsageTx(tx *gorm.DB, pu *model.PartUsage) error
	DeletePartUsageTx(tx *gorm.DB, id uuid.UUID) error

	DeleteSupervisionsTx(tx *gorm.DB, orderID uuid.UUID) error
	HasInvoiceTx(tx *gorm.DB, orderID uuid.UUID) (bool, error)
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	return &o, err
}

func (r *orderRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&o).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.LicensePlate != "" {
		q = q.Where("license_plate = ?", filter.LicensePlate)
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Scopes(paginate(filter.PageQuery)).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ListByPlate(ctx context.Context, plate string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Where("license_plate = ?", plate).
		Order("created_at DESC").Preload("Items.Service").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Model(o).Select("client_id", "license_plate", "status", "description").Updates(o).Error
}

func (r *orderRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Update("total", total).Error
}

func (r *orderRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.Order{}).Error
}

// ── Items ────────────────────────────────────────────────────────────────────

func (r *orderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	return r.ListItemsTx(r.db.WithContext(ctx), orderID)
}

func (r *orderRepo) ListItemsTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := tx.Where("order_id = ?", orderID).Preload("Service").Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *orderRepo) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.WithContext(ctx).Preload("Service").Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error
	return &item, err
}

func (r *orderRepo) FindItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	var item model.OrderItem
	err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error
	return &item, err
}

func (r *orderRepo) CreateItemTx(tx *gorm.DB, item *model.OrderItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

func (r *orderRepo) UpdateItemTx(tx *gorm.DB, item *model.OrderItem) error {
	return tx.Model(item).Select("description", "quantity", "unit_price", "subtotal").Updates(item).Error
}

func (r *orderRepo) DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error {
	return tx.Where("id = ?", itemID).Delete(&model.OrderItem{}).Error
}

// ── Assignments ──────────────────────────────────────────────────────────────

func (r *orderRepo) ListAssignments(ctx context.Context, itemID uuid.UUID) ([]model.Assignment, error) {
	var out []model.Assignment
	err := r.db.WithContext(ctx).Where("order_item_id = ?", itemID).
		Preload("Mechanic").Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *orderRepo) FindAssignmentTx(tx *gorm.DB, itemID, mechanicID uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	err := tx.Where("order_item_id = ? AND mechanic_id = ?", itemID, mechanicID).First(&a).Error
	return &a, err
}

func (r *orderRepo) CreateAssignmentTx(tx *gorm.DB, a *model.Assignment) error {
	return tx.Omit(clause.Associations).Create(a).Error
}

func (r *orderRepo) UpdateAssignmentTx(tx *gorm.DB, a *model.Assignment) error {
	return tx.Model(a).Select("estimated_hours").Updates(a).Error
}

func (r *orderRepo) DeleteAssignmentTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.Assignment{}).Error
}

func (r *orderRepo) DeleteAssignmentsByItemTx(tx *gorm.DB, itemID uuid.UUID) error {
	return tx.Where("order_item_id = ?", itemID).Delete(&model.Assignment{}).Error
}

// ── Part usages ──────────────────────────────────────────────────────────────

func (r *orderRepo) ListPartUsages(ctx context.Context, itemID uuid.UUID) ([]model.PartUsage, error) {
	var out []model.PartUsage
	err := r.db.WithContext(ctx).Where("order_item_id = ?", itemID).
		Preload("Part").Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *orderRepo) ListPartUsagesTx(tx *gorm.DB, itemID uuid.UUID) ([]model.PartUsage, error) {
	var out []model.PartUsage
	err := tx.Where("order_item_id = ?", itemID).Find(&out).Error
	return out, err
}

func (r *orderRepo) ListPartUsagesByOrderTx(tx *gorm.DB, orderID uuid.UUID) ([]model.PartUsage, error) {
	var out []model.PartUsage
	err := tx.Joins("JOIN order_items ON order_items.id = part_usages.order_item_id").
		Where("order_items.order_id = ?", orderID).
		Preload("Part").Order("part_usages.created_at ASC").Find(&out).Error
	return out, err
}

func (r *orderRepo) ListPartUsagesByPart(ctx context.Context, partID uuid.UUID) ([]model.PartUsage, error) {
	var out []model.PartUsage
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *orderRepo) FindPartUsageTx(tx *gorm.DB, itemID, partID uuid.UUID) (*model.PartUsage, error) {
	var pu model.PartUsage
	err := tx.Where("order_item_id = ? AND part_id = ?", itemID, partID).First(&pu).Error
	return &pu, err
}

func (r *orderRepo) CreatePartUsageTx(tx *gorm.DB, pu *model.PartUsage) error {
	return tx.Omit(clause.Associations).Create(pu).Error
}

func (r *orderRepo) UpdatePartUsageTx(tx *gorm.DB, pu *model.PartUsage) error {
	return tx.Model(pu).Select("quantity", "unit_price", "subtotal").Updates(pu).Error
}

func (r *orderRepo) DeletePartUsageTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.PartUsage{}).Error
}

func (r *orderRepo) DeleteSupervisionsTx(tx *gorm.DB, orderID uuid.UUID) error {
	return tx.Where("order_id = ?", orderID).Delete(&model.Supervision{}).Error
}

func (r *orderRepo) HasInvoiceTx(tx *gorm.DB, orderID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.Invoice{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}
