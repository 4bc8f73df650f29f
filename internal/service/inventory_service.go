package service

import (
	"context"
	"strings"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventoryService is the stock ledger. It owns part stock and records
// every stock-affecting movement. Reserve and OUT movements are a single
// conditional decrement, so concurrent callers can never drive stock
// below zero.
type InventoryService interface {
	CreatePart(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error)
	GetPart(ctx context.Context, id uuid.UUID) (*dto.PartResponse, error)
	ListParts(ctx context.Context, filter dto.PartFilter) (dto.Page[dto.PartResponse], error)
	UpdatePart(ctx context.Context, id uuid.UUID, req dto.UpdatePartRequest) (*dto.PartResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	DeletePart(ctx context.Context, id uuid.UUID) error

	GetStock(ctx context.Context, partID uuid.UUID) (int, error)
	Reserve(ctx context.Context, partID uuid.UUID, qty int, ref *uuid.UUID) error
	Release(ctx context.Context, partID uuid.UUID, qty int, ref *uuid.UUID) error
	RecordMovement(ctx context.Context, partID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, partID uuid.UUID, q dto.PageQuery) (dto.Page[dto.MovementResponse], error)

	// ReserveTx and ReleaseTx join the caller's transaction so a part usage
	// and its stock change commit or roll back together.
	ReserveTx(tx *gorm.DB, partID uuid.UUID, qty int, ref *uuid.UUID) (*model.Part, error)
	ReleaseTx(tx *gorm.DB, partID uuid.UUID, qty int, ref *uuid.UUID) (*model.Part, error)
	// CheckLowStock enqueues an alert when the part is at or below the
	// threshold. Call it after commit; failures are logged, not returned.
	CheckLowStock(ctx context.Context, partID uuid.UUID)
}

type inventoryService struct {
	repo      repository.PartRepository
	notifier  Notifier
	threshold int
	pageSize  int
}

func NewInventoryService(repo repository.PartRepository, notifier Notifier, lowStockThreshold, pageSize int) InventoryService {
	return &inventoryService{repo: repo, notifier: notifier, threshold: lowStockThreshold, pageSize: pageSize}
}

// ── Parts ────────────────────────────────────────────────────────────────────

func (s *inventoryService) CreatePart(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.SKU) == "" {
		return nil, apierror.Invalid("nombre y sku son obligatorios")
	}
	if req.Stock < 0 || req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("stock y precio no pueden ser negativos")
	}
	p := &model.Part{
		Name:        strings.TrimSpace(req.Name),
		SKU:         strings.TrimSpace(req.SKU),
		Description: req.Description,
		UnitPrice:   req.UnitPrice.Round(2),
		Active:      true,
	}
	if req.SupplierID != nil {
		sid, err := parseID("supplierId", *req.SupplierID)
		if err != nil {
			return nil, err
		}
		p.SupplierID = &sid
	}

	// Opening stock goes through the ledger so it shows up as an IN movement.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Invalid("ya existe un repuesto con sku %s", p.SKU)
			}
			return errors.Wrap(err, "create part")
		}
		if req.Stock > 0 {
			after, _, err := s.moveTx(tx, p.ID, model.MovementIn, req.Stock, "stock inicial", nil)
			if err != nil {
				return err
			}
			p.Stock = after.Stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := partToResponse(p)
	return &resp, nil
}

func (s *inventoryService) GetPart(ctx context.Context, id uuid.UUID) (*dto.PartResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "repuesto", id)
	}
	resp := partToResponse(p)
	return &resp, nil
}

func (s *inventoryService) ListParts(ctx context.Context, filter dto.PartFilter) (dto.Page[dto.PartResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	parts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.PartResponse]{}, errors.Wrap(err, "list parts")
	}
	return dto.NewPage(mapSlice(parts, partToResponse), total, filter.PageQuery), nil
}

func (s *inventoryService) UpdatePart(ctx context.Context, id uuid.UUID, req dto.UpdatePartRequest) (*dto.PartResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "repuesto", id)
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		p.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, apierror.Invalid("el precio no puede ser negativo")
		}
		p.UnitPrice = req.UnitPrice.Round(2)
	}
	if req.SupplierID != nil {
		sid, err := parseID("supplierId", *req.SupplierID)
		if err != nil {
			return nil, err
		}
		p.SupplierID = &sid
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Invalid("ya existe un repuesto con sku %s", p.SKU)
		}
		return nil, errors.Wrap(err, "update part")
	}
	resp := partToResponse(p)
	return &resp, nil
}

func (s *inventoryService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return lookup(s.repo.SetActive(ctx, id, active), "repuesto", id)
}

func (s *inventoryService) DeletePart(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountUsages(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count part usages")
	}
	if n > 0 {
		return apierror.E(apierror.KindInvalidState, "el repuesto %s esta usado en %d ordenes; desactivelo en su lugar", id, n)
	}
	return lookup(s.repo.Delete(ctx, id), "repuesto", id)
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (s *inventoryService) GetStock(ctx context.Context, partID uuid.UUID) (int, error) {
	p, err := s.repo.FindByID(ctx, partID)
	if err != nil {
		return 0, lookup(err, "repuesto", partID)
	}
	return p.Stock, nil
}

func (s *inventoryService) Reserve(ctx context.Context, partID uuid.UUID, qty int, ref *uuid.UUID) error {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		_, err := s.ReserveTx(tx, partID, qty, ref)
		return err
	})
	if err != nil {
		return err
	}
	s.CheckLowStock(ctx, partID)
	return nil
}

func (s *inventoryService) Release(ctx context.Context, partID uuid.UUID, qty int, ref *uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		_, err := s.ReleaseTx(tx, partID, qty, ref)
		return err
	})
}

func (s *inventoryService) ReserveTx(tx *gorm.DB, partID uuid.UUID, qty int, ref *uuid.UUID) (*model.Part, error) {
	p, _, err := s.moveTx(tx, partID, model.MovementReserve, qty, "", ref)
	return p, err
}

func (s *inventoryService) ReleaseTx(tx *gorm.DB, partID uuid.UUID, qty int, ref *uuid.UUID) (*model.Part, error) {
	p, _, err := s.moveTx(tx, partID, model.MovementRelease, qty, "", ref)
	return p, err
}

// moveTx applies one stock change and writes its movement row. Decrements
// use the conditional statement; when it matches nothing the part is either
// missing or short.
func (s *inventoryService) moveTx(tx *gorm.DB, partID uuid.UUID, typ model.MovementType, qty int, notes string, ref *uuid.UUID) (*model.Part, *model.StockMovement, error) {
	if qty <= 0 {
		return nil, nil, apierror.Invalid("la cantidad debe ser positiva, recibido %d", qty)
	}

	var ok bool
	var err error
	if typ == model.MovementOut || typ == model.MovementReserve {
		ok, err = s.repo.DecrementStockTx(tx, partID, qty)
	} else {
		ok, err = s.repo.IncrementStockTx(tx, partID, qty)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "apply %s to part %s", typ, partID)
	}

	p, findErr := s.repo.FindByIDTx(tx, partID)
	if findErr != nil {
		return nil, nil, lookup(findErr, "repuesto", partID)
	}
	if !ok {
		return nil, nil, apierror.E(apierror.KindInsufficientStock,
			"stock insuficiente para %s: disponible %d, solicitado %d", p.Name, p.Stock, qty)
	}

	before := p.Stock + qty
	if typ == model.MovementIn || typ == model.MovementRelease {
		before = p.Stock - qty
	}
	mov := &model.StockMovement{
		PartID:      partID,
		Type:        typ,
		Quantity:    qty,
		StockBefore: before,
		StockAfter:  p.Stock,
		Notes:       notes,
		ReferenceID: ref,
	}
	if err := s.repo.CreateMovementTx(tx, mov); err != nil {
		return nil, nil, errors.Wrap(err, "record stock movement")
	}
	return p, mov, nil
}

func (s *inventoryService) RecordMovement(ctx context.Context, partID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	typ := model.MovementType(strings.ToUpper(req.Type))
	if typ != model.MovementIn && typ != model.MovementOut {
		return nil, apierror.Invalid("tipo de movimiento invalido: %q", req.Type)
	}

	var mov *model.StockMovement
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		_, mov, err = s.moveTx(tx, partID, typ, req.Quantity, req.Notes, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if typ == model.MovementOut {
		s.CheckLowStock(ctx, partID)
	}
	resp := movementToResponse(mov)
	return &resp, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, partID uuid.UUID, q dto.PageQuery) (dto.Page[dto.MovementResponse], error) {
	if _, err := s.repo.FindByID(ctx, partID); err != nil {
		return dto.Page[dto.MovementResponse]{}, lookup(err, "repuesto", partID)
	}
	q = q.Normalize(s.pageSize)
	moves, total, err := s.repo.ListMovements(ctx, partID, q)
	if err != nil {
		return dto.Page[dto.MovementResponse]{}, errors.Wrap(err, "list movements")
	}
	return dto.NewPage(mapSlice(moves, movementToResponse), total, q), nil
}

func (s *inventoryService) CheckLowStock(ctx context.Context, partID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	p, err := s.repo.FindByID(ctx, partID)
	if err != nil || p.Stock > s.threshold {
		return
	}
	if err := s.notifier.LowStock(ctx, *p, s.threshold); err != nil {
		log.Warn().Err(err).Str("part_id", partID.String()).Msg("inventory: low stock alert not enqueued")
	}
}
