package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, filter dto.CatalogFilter) ([]model.Supplier, int64, error)
	Update(ctx context.Context, s *model.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListParts(ctx context.Context, supplierID uuid.UUID, q dto.PageQuery) ([]model.SupplierPart, int64, error)
	FindPart(ctx context.Context, supplierID, partID uuid.UUID) (*model.SupplierPart, error)
	AddPart(ctx context.Context, sp *model.SupplierPart) error
	UpdatePartCost(ctx context.Context, sp *model.SupplierPart) error
	RemovePart(ctx context.Context, supplierID, partID uuid.UUID) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, filter dto.CatalogFilter) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Supplier{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("name ASC").Scopes(paginate(filter.PageQuery)).Find(&out).Error
	return out, total, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Model(s).Select("name", "email", "phone", "active").Updates(s).Error
}

// Delete drops the supplier's catalog links and clears it from parts.
func (r *supplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("supplier_id = ?", id).Delete(&model.SupplierPart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Part{}).Where("supplier_id = ?", id).Update("supplier_id", nil).Error; err != nil {
			return err
		}
		return deleteByID(tx, &model.Supplier{}, id)
	})
}

func (r *supplierRepo) ListParts(ctx context.Context, supplierID uuid.UUID, q dto.PageQuery) ([]model.SupplierPart, int64, error) {
	var out []model.SupplierPart
	var total int64
	base := r.db.WithContext(ctx).Model(&model.SupplierPart{}).Where("supplier_id = ?", supplierID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Preload("Part").Order("created_at ASC").Scopes(paginate(q)).Find(&out).Error
	return out, total, err
}

func (r *supplierRepo) FindPart(ctx context.Context, supplierID, partID uuid.UUID) (*model.SupplierPart, error) {
	var sp model.SupplierPart
	err := r.db.WithContext(ctx).Where("supplier_id = ? AND part_id = ?", supplierID, partID).
		Preload("Part").First(&sp).Error
	return &sp, err
}

func (r *supplierRepo) AddPart(ctx context.Context, sp *model.SupplierPart) error {
	return r.db.WithContext(ctx).Omit("Part").Create(sp).Error
}

func (r *supplierRepo) UpdatePartCost(ctx context.Context, sp *model.SupplierPart) error {
	res := r.db.WithContext(ctx).Model(&model.SupplierPart{}).
		Where("supplier_id = ? AND part_id = ?", sp.SupplierID, sp.PartID).
		Update("cost", sp.Cost)
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}

func (r *supplierRepo) RemovePart(ctx context.Context, supplierID, partID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("supplier_id = ? AND part_id = ?", supplierID, partID).
		Delete(&model.SupplierPart{})
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}
