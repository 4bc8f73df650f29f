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
)

// CatalogService keeps the reference data orders are composed from: the
// service catalog and the mechanic roster.
type CatalogService interface {
	CreateService(ctx context.Context, req dto.ServiceRequest) (*dto.ServiceResponse, error)
	GetService(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error)
	ListServices(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.ServiceResponse], error)
	UpdateService(ctx context.Context, id uuid.UUID, req dto.ServiceRequest) (*dto.ServiceResponse, error)
	SetServiceActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteService(ctx context.Context, id uuid.UUID) error

	CreateMechanic(ctx context.Context, req dto.MechanicRequest) (*dto.MechanicResponse, error)
	GetMechanic(ctx context.Context, id uuid.UUID) (*dto.MechanicResponse, error)
	ListMechanics(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.MechanicResponse], error)
	UpdateMechanic(ctx context.Context, id uuid.UUID, req dto.MechanicRequest) (*dto.MechanicResponse, error)
	SetMechanicActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteMechanic(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	services  repository.ServiceRepository
	mechanics repository.MechanicRepository
	pageSize  int
}

func NewCatalogService(services repository.ServiceRepository, mechanics repository.MechanicRepository, pageSize int) CatalogService {
	return &catalogService{services: services, mechanics: mechanics, pageSize: pageSize}
}

func activeOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ── Services ─────────────────────────────────────────────────────────────────

func (s *catalogService) CreateService(ctx context.Context, req dto.ServiceRequest) (*dto.ServiceResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apierror.Invalid("el nombre es obligatorio")
	}
	if req.Price.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}
	svc := &model.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Active:      activeOr(req.Active, true),
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, errors.Wrap(err, "create service")
	}
	resp := serviceToResponse(svc)
	return &resp, nil
}

func (s *catalogService) GetService(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "servicio", id)
	}
	resp := serviceToResponse(svc)
	return &resp, nil
}

func (s *catalogService) ListServices(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.ServiceResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	rows, total, err := s.services.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.ServiceResponse]{}, errors.Wrap(err, "list services")
	}
	return dto.NewPage(mapSlice(rows, serviceToResponse), total, filter.PageQuery), nil
}

// UpdateService changes the live catalog price only; existing order items
// keep the price they captured.
func (s *catalogService) UpdateService(ctx context.Context, id uuid.UUID, req dto.ServiceRequest) (*dto.ServiceResponse, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "servicio", id)
	}
	if req.Price.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}
	svc.Name = strings.TrimSpace(req.Name)
	svc.Description = req.Description
	svc.Price = req.Price.Round(2)
	svc.Active = activeOr(req.Active, svc.Active)
	if err := s.services.Update(ctx, svc); err != nil {
		return nil, errors.Wrap(err, "update service")
	}
	resp := serviceToResponse(svc)
	return &resp, nil
}

func (s *catalogService) SetServiceActive(ctx context.Context, id uuid.UUID, active bool) error {
	return lookup(s.services.SetActive(ctx, id, active), "servicio", id)
}

func (s *catalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	n, err := s.services.CountReferences(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count service references")
	}
	if n > 0 {
		return apierror.E(apierror.KindInvalidState, "el servicio %s esta usado en %d items; desactivelo en su lugar", id, n)
	}
	return lookup(s.services.Delete(ctx, id), "servicio", id)
}

// ── Mechanics ────────────────────────────────────────────────────────────────

func (s *catalogService) CreateMechanic(ctx context.Context, req dto.MechanicRequest) (*dto.MechanicResponse, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apierror.Invalid("nombre y apellido son obligatorios")
	}
	m := &model.Mechanic{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Phone:          req.Phone,
		Specialization: req.Specialization,
		Active:         activeOr(req.Active, true),
	}
	if err := s.mechanics.Create(ctx, m); err != nil {
		return nil, errors.Wrap(err, "create mechanic")
	}
	resp := mechanicToResponse(m)
	return &resp, nil
}

func (s *catalogService) GetMechanic(ctx context.Context, id uuid.UUID) (*dto.MechanicResponse, error) {
	m, err := s.mechanics.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "mecanico", id)
	}
	resp := mechanicToResponse(m)
	return &resp, nil
}

func (s *catalogService) ListMechanics(ctx context.Context, filter dto.CatalogFilter) (dto.Page[dto.MechanicResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	rows, total, err := s.mechanics.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.MechanicResponse]{}, errors.Wrap(err, "list mechanics")
	}
	return dto.NewPage(mapSlice(rows, mechanicToResponse), total, filter.PageQuery), nil
}

func (s *catalogService) UpdateMechanic(ctx context.Context, id uuid.UUID, req dto.MechanicRequest) (*dto.MechanicResponse, error) {
	m, err := s.mechanics.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "mecanico", id)
	}
	m.FirstName = strings.TrimSpace(req.FirstName)
	m.LastName = strings.TrimSpace(req.LastName)
	m.Phone = req.Phone
	m.Specialization = req.Specialization
	m.Active = activeOr(req.Active, m.Active)
	if err := s.mechanics.Update(ctx, m); err != nil {
		return nil, errors.Wrap(err, "update mechanic")
	}
	resp := mechanicToResponse(m)
	return &resp, nil
}

func (s *catalogService) SetMechanicActive(ctx context.Context, id uuid.UUID, active bool) error {
	return lookup(s.mechanics.SetActive(ctx, id, active), "mecanico", id)
}

func (s *catalogService) DeleteMechanic(ctx context.Context, id uuid.UUID) error {
	n, err := s.mechanics.CountReferences(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count mechanic references")
	}
	if n > 0 {
		return apierror.E(apierror.KindInvalidState, "el mecanico %s tiene %d asignaciones o supervisiones; desactivelo en su lugar", id, n)
	}
	return lookup(s.mechanics.Delete(ctx, id), "mecanico", id)
}
