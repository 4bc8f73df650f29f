package service

import (
	"context"
	"iter"
	"strings"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// supervisionBatch is how many rows ListByOrder fetches per round trip.
const supervisionBatch = 50

type SupervisionService interface {
	Create(ctx context.Context, req dto.CreateSupervisionRequest) (*dto.SupervisionResponse, error)
	// Delete removes a supervision. Deleting a missing triple is a no-op.
	Delete(ctx context.Context, key repository.SupervisionKey) error
	// ListByOrder yields an order's supervisions in insertion order, loading
	// them in batches as the sequence is ranged. Every range starts over.
	ListByOrder(ctx context.Context, orderID uuid.UUID) iter.Seq2[model.Supervision, error]
	ListByOrderPage(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) (dto.Page[dto.SupervisionResponse], error)
}

type supervisionService struct {
	repo      repository.SupervisionRepository
	orders    repository.OrderRepository
	mechanics repository.MechanicRepository
	pageSize  int
}

func NewSupervisionService(
	repo repository.SupervisionRepository,
	orders repository.OrderRepository,
	mechanics repository.MechanicRepository,
	pageSize int,
) SupervisionService {
	return &supervisionService{repo: repo, orders: orders, mechanics: mechanics, pageSize: pageSize}
}

func (s *supervisionService) Create(ctx context.Context, req dto.CreateSupervisionRequest) (*dto.SupervisionResponse, error) {
	key, err := parseSupervisionKey(req.SupervisorID, req.Supervised(), req.OrderID)
	if err != nil {
		return nil, err
	}
	if key.SupervisorID == key.SupervisedID {
		return nil, apierror.E(apierror.KindSelfSupervision, "un mecanico no puede supervisarse a si mismo")
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, apierror.Invalid("las notas son obligatorias")
	}

	var sup *model.Supervision
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.orders.FindForUpdateTx(tx, key.OrderID); err != nil {
			return lookup(err, "orden", key.OrderID)
		}
		if _, err := s.mechanics.FindByIDTx(tx, key.SupervisorID); err != nil {
			return lookup(err, "mecanico supervisor", key.SupervisorID)
		}
		if _, err := s.mechanics.FindByIDTx(tx, key.SupervisedID); err != nil {
			return lookup(err, "mecanico supervisado", key.SupervisedID)
		}
		exists, err := s.repo.ExistsTx(tx, key)
		if err != nil {
			return errors.Wrap(err, "check supervision")
		}
		if exists {
			return duplicateSupervision()
		}
		seq, err := s.repo.NextSeqTx(tx)
		if err != nil {
			return errors.Wrap(err, "next supervision seq")
		}
		sup = &model.Supervision{
			SupervisorID: key.SupervisorID,
			SupervisedID: key.SupervisedID,
			OrderID:      key.OrderID,
			Notes:        notes,
			Seq:          seq,
		}
		if err := s.repo.CreateTx(tx, sup); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateSupervision()
			}
			return errors.Wrap(err, "create supervision")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := supervisionToResponse(sup)
	return &resp, nil
}

func duplicateSupervision() error {
	return apierror.E(apierror.KindDuplicateSupervision, "la supervision ya existe para esta orden")
}

func (s *supervisionService) Delete(ctx context.Context, key repository.SupervisionKey) error {
	if _, err := s.repo.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "delete supervision")
	}
	return nil
}

func (s *supervisionService) ListByOrder(ctx context.Context, orderID uuid.UUID) iter.Seq2[model.Supervision, error] {
	return func(yield func(model.Supervision, error) bool) {
		var after int64
		for {
			batch, err := s.repo.ListAfter(ctx, orderID, after, supervisionBatch)
			if err != nil {
				yield(model.Supervision{}, errors.Wrap(err, "list supervisions"))
				return
			}
			for _, sup := range batch {
				if !yield(sup, nil) {
					return
				}
				after = sup.Seq
			}
			if len(batch) < supervisionBatch {
				return
			}
		}
	}
}

func (s *supervisionService) ListByOrderPage(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) (dto.Page[dto.SupervisionResponse], error) {
	q = q.Normalize(s.pageSize)
	rows, total, err := s.repo.ListPage(ctx, orderID, q)
	if err != nil {
		return dto.Page[dto.SupervisionResponse]{}, errors.Wrap(err, "list supervisions")
	}
	return dto.NewPage(mapSlice(rows, supervisionToResponse), total, q), nil
}

// ParseSupervisionKey parses the triple carried by HTTP query params.
func ParseSupervisionKey(k dto.SupervisionKey) (repository.SupervisionKey, error) {
	return parseSupervisionKey(k.SupervisorID, k.Supervised(), k.OrderID)
}

func parseSupervisionKey(supervisor, supervised, order string) (repository.SupervisionKey, error) {
	var key repository.SupervisionKey
	var err error
	if key.SupervisorID, err = parseID("supervisorId", supervisor); err != nil {
		return key, err
	}
	if key.SupervisedID, err = parseID("supervisedId", supervised); err != nil {
		return key, err
	}
	if key.OrderID, err = parseID("orderId", order); err != nil {
		return key, err
	}
	return key, nil
}
