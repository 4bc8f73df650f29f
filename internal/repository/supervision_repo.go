package repository

import (
	"context"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupervisionKey is the composite identity of a supervision.
type SupervisionKey struct {
	SupervisorID uuid.UUID
	SupervisedID uuid.UUID
	OrderID      uuid.UUID
}

type SupervisionRepository interface {
	CreateTx(tx *gorm.DB, s *model.Supervision) error
	ExistsTx(tx *gorm.DB, key SupervisionKey) (bool, error)
	NextSeqTx(tx *gorm.DB) (int64, error)
	Delete(ctx context.Context, key SupervisionKey) (int64, error)
	// ListAfter returns up to limit rows of an order with seq > afterSeq, in
	// insertion order. It backs lazy iteration.
	ListAfter(ctx context.Context, orderID uuid.UUID, afterSeq int64, limit int) ([]model.Supervision, error)
	ListPage(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) ([]model.Supervision, int64, error)
	DB() *gorm.DB
}

type supervisionRepo struct{ db *gorm.DB }

func NewSupervisionRepository(db *gorm.DB) SupervisionRepository { return &supervisionRepo{db: db} }

func (r *supervisionRepo) DB() *gorm.DB { return r.db }

func keyWhere(db *gorm.DB, key SupervisionKey) *gorm.DB {
	return db.Where("supervisor_id = ? AND supervised_id = ? AND order_id = ?",
		key.SupervisorID, key.SupervisedID, key.OrderID)
}

func (r *supervisionRepo) CreateTx(tx *gorm.DB, s *model.Supervision) error {
	return tx.Create(s).Error
}

func (r *supervisionRepo) ExistsTx(tx *gorm.DB, key SupervisionKey) (bool, error) {
	var n int64
	err := keyWhere(tx.Model(&model.Supervision{}), key).Count(&n).Error
	return n > 0, err
}

func (r *supervisionRepo) NextSeqTx(tx *gorm.DB) (int64, error) {
	var maxSeq int64
	err := tx.Model(&model.Supervision{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error
	return maxSeq + 1, err
}

func (r *supervisionRepo) Delete(ctx context.Context, key SupervisionKey) (int64, error) {
	res := keyWhere(r.db.WithContext(ctx), key).Delete(&model.Supervision{})
	return res.RowsAffected, res.Error
}

func (r *supervisionRepo) ListAfter(ctx context.Context, orderID uuid.UUID, afterSeq int64, limit int) ([]model.Supervision, error) {
	var out []model.Supervision
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND seq > ?", orderID, afterSeq).
		Order("seq ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *supervisionRepo) ListPage(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) ([]model.Supervision, int64, error) {
	var out []model.Supervision
	var total int64
	base := r.db.WithContext(ctx).Model(&model.Supervision{}).Where("order_id = ?", orderID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Order("seq ASC").Scopes(paginate(q)).Find(&out).Error
	return out, total, err
}
