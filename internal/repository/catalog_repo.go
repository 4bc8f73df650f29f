package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceRepository reads and writes the service catalog.
type ServiceRepository interface {
	Create(ctx context.Context, s *model.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Service, error)
	List(ctx context.Context, filter dto.CatalogFilter) ([]model.Service, int64, error)
	Update(ctx context.Context, s *model.Service) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type serviceRepo struct{ db *gorm.DB }

func NewServiceRepository(db *gorm.DB) ServiceRepository { return &serviceRepo{db: db} }

func (r *serviceRepo) Create(ctx context.Context, s *model.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *serviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *serviceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	err := tx.Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *serviceRepo) List(ctx context.Context, filter dto.CatalogFilter) ([]model.Service, int64, error) {
	var out []model.Service
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Service{})
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

func (r *serviceRepo) Update(ctx context.Context, s *model.Service) error {
	return r.db.WithContext(ctx).Model(s).Select("name", "description", "price", "active").Updates(s).Error
}

func (r *serviceRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return setActive(r.db.WithContext(ctx), &model.Service{}, id, active)
}

func (r *serviceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &model.Service{}, id)
}

func (r *serviceRepo) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).Where("service_id = ?", id).Count(&n).Error
	return n, err
}

// MechanicRepository reads and writes the mechanic roster.
type MechanicRepository interface {
	Create(ctx context.Context, m *model.Mechanic) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Mechanic, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Mechanic, error)
	List(ctx context.Context, filter dto.CatalogFilter) ([]model.Mechanic, int64, error)
	Update(ctx context.Context, m *model.Mechanic) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type mechanicRepo struct{ db *gorm.DB }

func NewMechanicRepository(db *gorm.DB) MechanicRepository { return &mechanicRepo{db: db} }

func (r *mechanicRepo) Create(ctx context.Context, m *model.Mechanic) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mechanicRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Mechanic, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *mechanicRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Mechanic, error) {
	var m model.Mechanic
	err := tx.Where("id = ?", id).First(&m).Error
	return &m, err
}

func (r *mechanicRepo) List(ctx context.Context, filter dto.CatalogFilter) ([]model.Mechanic, int64, error) {
	var out []model.Mechanic
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Mechanic{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Search != "" {
		pat := likePattern(filter.Search)
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(specialization) LIKE ?", pat, pat, pat)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("last_name ASC, first_name ASC").Scopes(paginate(filter.PageQuery)).Find(&out).Error
	return out, total, err
}

func (r *mechanicRepo) Update(ctx context.Context, m *model.Mechanic) error {
	return r.db.WithContext(ctx).Model(m).
		Select("first_name", "last_name", "phone", "specialization", "active").Updates(m).Error
}

func (r *mechanicRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return setActive(r.db.WithContext(ctx), &model.Mechanic{}, id, active)
}

func (r *mechanicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &model.Mechanic{}, id)
}

func (r *mechanicRepo) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var assignments, supervisions int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Assignment{}).Where("mechanic_id = ?", id).Count(&assignments).Error; err != nil {
		return 0, err
	}
	err := db.Model(&model.Supervision{}).
		Where("supervisor_id = ? OR supervised_id = ?", id, id).Count(&supervisions).Error
	return assignments + supervisions, err
}

func setActive(db *gorm.DB, m any, id uuid.UUID, active bool) error {
	res := db.Model(m).Where("id = ?", id).Update("active", active)
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}

func deleteByID(db *gorm.DB, m any, id uuid.UUID) error {
	res := db.Where("id = ?", id).Delete(m)
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}
