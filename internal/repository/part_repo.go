package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartRepository interface {
	Create(ctx context.Context, p *model.Part) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Part, error)
	List(ctx context.Context, filter dto.PartFilter) ([]model.Part, int64, error)
	Update(ctx context.Context, p *model.Part) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUsages(ctx context.Context, id uuid.UUID) (int64, error)

	// DecrementStockTx subtracts qty only when stock >= qty, as one statement.
	// It reports false when no row qualified.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error
	ListMovements(ctx context.Context, partID uuid.UUID, q dto.PageQuery) ([]model.StockMovement, int64, error)
	AllMovements(ctx context.Context, partID uuid.UUID) ([]model.StockMovement, error)
	DB() *gorm.DB
}

type partRepo struct{ db *gorm.DB }

func NewPartRepository(db *gorm.DB) PartRepository { return &partRepo{db: db} }

func (r *partRepo) DB() *gorm.DB { return r.db }

func (r *partRepo) Create(ctx context.Context, p *model.Part) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *partRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Part, error) {
	var p model.Part
	err := tx.Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *partRepo) List(ctx context.Context, filter dto.PartFilter) ([]model.Part, int64, error) {
	var parts []model.Part
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Part{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Search != "" {
		pat := likePattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pat, pat)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("name ASC").Scopes(paginate(filter.PageQuery)).Find(&parts).Error
	return parts, total, err
}

func (r *partRepo) Update(ctx context.Context, p *model.Part) error {
	// stock is owned by the ledger statements below and never saved wholesale
	return r.db.WithContext(ctx).Model(p).
		Select("name", "sku", "description", "unit_price", "supplier_id", "active").
		Updates(p).Error
}

func (r *partRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return setActive(r.db.WithContext(ctx), &model.Part{}, id, active)
}

func (r *partRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("part_id = ?", id).Delete(&model.SupplierPart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("part_id = ?", id).Delete(&model.StockMovement{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Part{})
		if res.Error == nil && res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return res.Error
	})
}

func (r *partRepo) CountUsages(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PartUsage{}).Where("part_id = ?", id).Count(&n).Error
	return n, err
}

func (r *partRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.Part{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *partRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.Part{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *partRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *partRepo) ListMovements(ctx context.Context, partID uuid.UUID, q dto.PageQuery) ([]model.StockMovement, int64, error) {
	var moves []model.StockMovement
	var total int64
	base := r.db.WithContext(ctx).Model(&model.StockMovement{}).Where("part_id = ?", partID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Scopes(paginate(q)).Find(&moves).Error
	return moves, total, err
}

func (r *partRepo) AllMovements(ctx context.Context, partID uuid.UUID) ([]model.StockMovement, error) {
	var moves []model.StockMovement
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).Order("created_at ASC").Find(&moves).Error
	return moves, err
}
