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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierService interface {
	Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.SupplierResponse], error)
	Update(ctx context.Context, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListParts(ctx context.Context, supplierID uuid.UUID, q dto.PageQuery) (dto.Page[dto.SupplierPartResponse], error)
	AddPart(ctx context.Context, supplierID uuid.UUID, req dto.SupplierPartRequest) (*dto.SupplierPartResponse, error)
	UpdatePartCost(ctx context.Context, supplierID, partID uuid.UUID, cost decimal.Decimal) (*dto.SupplierPartResponse, error)
	RemovePart(ctx context.Context, supplierID, partID uuid.UUID) error
}

type supplierService struct {
	repo     repository.SupplierRepository
	parts    repository.PartRepository
	pageSize int
}

func NewSupplierService(repo repository.SupplierRepository, parts repository.PartRepository, pageSize int) SupplierService {
	return &supplierService{repo: repo, parts: parts, pageSize: pageSize}
}

func (s *supplierService) Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apierror.Invalid("el nombre es obligatorio")
	}
	sup := &model.Supplier{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  req.Phone,
		Active: activeOr(req.Active, true),
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, errors.Wrap(err, "create supplier")
	}
	resp := supplierToResponse(sup)
	return &resp, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "proveedor", id)
	}
	resp := supplierToResponse(sup)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.SupplierResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.SupplierResponse]{}, errors.Wrap(err, "list suppliers")
	}
	return dto.NewPage(mapSlice(rows, supplierToResponse), total, filter.PageQuery), nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "proveedor", id)
	}
	sup.Name = strings.TrimSpace(req.Name)
	sup.Email = strings.ToLower(strings.TrimSpace(req.Email))
	sup.Phone = req.Phone
	sup.Active = activeOr(req.Active, sup.Active)
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, errors.Wrap(err, "update supplier")
	}
	resp := supplierToResponse(sup)
	return &resp, nil
}

func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return lookup(s.repo.Delete(ctx, id), "proveedor", id)
}

func (s *supplierService) ListParts(ctx context.Context, supplierID uuid.UUID, q dto.PageQuery) (dto.Page[dto.SupplierPartResponse], error) {
	if _, err := s.repo.FindByID(ctx, supplierID); err != nil {
		return dto.Page[dto.SupplierPartResponse]{}, lookup(err, "proveedor", supplierID)
	}
	q = q.Normalize(s.pageSize)
	rows, total, err := s.repo.ListParts(ctx, supplierID, q)
	if err != nil {
		return dto.Page[dto.SupplierPartResponse]{}, errors.Wrap(err, "list supplier parts")
	}
	return dto.NewPage(mapSlice(rows, supplierPartToResponse), total, q), nil
}

func (s *supplierService) AddPart(ctx context.Context, supplierID uuid.UUID, req dto.SupplierPartRequest) (*dto.SupplierPartResponse, error) {
	partID, err := parseID("partId", req.PartID)
	if err != nil {
		return nil, err
	}
	if req.Cost.IsNegative() {
		return nil, apierror.Invalid("el costo no puede ser negativo")
	}
	if _, err := s.repo.FindByID(ctx, supplierID); err != nil {
		return nil, lookup(err, "proveedor", supplierID)
	}
	part, err := s.parts.FindByID(ctx, partID)
	if err != nil {
		return nil, lookup(err, "repuesto", partID)
	}
	sp := &model.SupplierPart{SupplierID: supplierID, PartID: partID, Cost: req.Cost.Round(2)}
	if err := s.repo.AddPart(ctx, sp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Invalid("el proveedor ya ofrece el repuesto %s", part.SKU)
		}
		return nil, errors.Wrap(err, "add supplier part")
	}
	sp.Part = part
	resp := supplierPartToResponse(sp)
	return &resp, nil
}

func (s *supplierService) UpdatePartCost(ctx context.Context, supplierID, partID uuid.UUID, cost decimal.Decimal) (*dto.SupplierPartResponse, error) {
	if cost.IsNegative() {
		return nil, apierror.Invalid("el costo no puede ser negativo")
	}
	sp := &model.SupplierPart{SupplierID: supplierID, PartID: partID, Cost: cost.Round(2)}
	if err := s.repo.UpdatePartCost(ctx, sp); err != nil {
		return nil, lookup(err, "repuesto del proveedor", partID)
	}
	found, err := s.repo.FindPart(ctx, supplierID, partID)
	if err != nil {
		return nil, lookup(err, "repuesto del proveedor", partID)
	}
	resp := supplierPartToResponse(found)
	return &resp, nil
}

func (s *supplierService) RemovePart(ctx context.Context, supplierID, partID uuid.UUID) error {
	return lookup(s.repo.RemovePart(ctx, supplierID, partID), "repuesto del proveedor", partID)
}
