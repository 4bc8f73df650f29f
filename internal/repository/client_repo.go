package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	var out []model.Client
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Client{})
	if filter.Search != "" {
		pat := likePattern(filter.Search)
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pat, pat, pat)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("last_name ASC, first_name ASC").Scopes(paginate(filter.PageQuery)).Find(&out).Error
	return out, total, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Model(c).Select("first_name", "last_name", "email", "phone").Updates(c).Error
}

// Delete detaches the client's vehicles before removing the client.
func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Vehicle{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return err
		}
		return deleteByID(tx, &model.Client{}, id)
	})
}

func (r *clientRepo) CountOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("client_id = ?", id).Count(&n).Error
	return n, err
}

type VehicleRepository interface {
	Create(ctx context.Context, v *model.Vehicle) error
	FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	List(ctx context.Context, filter dto.VehicleFilter) ([]model.Vehicle, int64, error)
	Update(ctx context.Context, v *model.Vehicle) error
	Delete(ctx context.Context, plate string) error
}

type vehicleRepo struct{ db *gorm.DB }

func NewVehicleRepository(db *gorm.DB) VehicleRepository { return &vehicleRepo{db: db} }

func (r *vehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehicleRepo) FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).Where("license_plate = ?", plate).First(&v).Error
	return &v, err
}

func (r *vehicleRepo) List(ctx context.Context, filter dto.VehicleFilter) ([]model.Vehicle, int64, error) {
	var out []model.Vehicle
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Vehicle{})
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Search != "" {
		pat := likePattern(filter.Search)
		q = q.Where("LOWER(license_plate) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ?", pat, pat, pat)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("license_plate ASC").Scopes(paginate(filter.PageQuery)).Find(&out).Error
	return out, total, err
}

func (r *vehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	return r.db.WithContext(ctx).Model(v).Select("brand", "model", "model_year", "client_id").Updates(v).Error
}

func (r *vehicleRepo) Delete(ctx context.Context, plate string) error {
	res := r.db.WithContext(ctx).Where("license_plate = ?", plate).Delete(&model.Vehicle{})
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}
