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
	"gorm.io/gorm"
)

type ClientService interface {
	CreateClient(ctx context.Context, req dto.ClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, filter dto.ClientFilter) (dto.Page[dto.ClientResponse], error)
	UpdateClient(ctx context.Context, id uuid.UUID, req dto.ClientRequest) (*dto.ClientResponse, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error

	ListClientVehicles(ctx context.Context, clientID uuid.UUID, q dto.PageQuery) (dto.Page[dto.VehicleResponse], error)
	AddClientVehicle(ctx context.Context, clientID uuid.UUID, req dto.VehicleRequest) (*dto.VehicleResponse, error)

	CreateVehicle(ctx context.Context, req dto.VehicleRequest) (*dto.VehicleResponse, error)
	GetVehicle(ctx context.Context, plate string) (*dto.VehicleResponse, error)
	ListVehicles(ctx context.Context, filter dto.VehicleFilter) (dto.Page[dto.VehicleResponse], error)
	UpdateVehicle(ctx context.Context, plate string, req dto.VehicleRequest) (*dto.VehicleResponse, error)
	DeleteVehicle(ctx context.Context, plate string) error
	OrdersByPlate(ctx context.Context, plate string, q dto.PageQuery) (dto.Page[dto.OrderResponse], error)
	// VehicleHistory lists every order of a registered vehicle with its
	// items, newest first.
	VehicleHistory(ctx context.Context, plate string) ([]dto.VehicleHistoryEntry, error)
}

type clientService struct {
	clients  repository.ClientRepository
	vehicles repository.VehicleRepository
	orders   repository.OrderRepository
	pageSize int
}

func NewClientService(
	clients repository.ClientRepository,
	vehicles repository.VehicleRepository,
	orders repository.OrderRepository,
	pageSize int,
) ClientService {
	return &clientService{clients: clients, vehicles: vehicles, orders: orders, pageSize: pageSize}
}

func (s *clientService) CreateClient(ctx context.Context, req dto.ClientRequest) (*dto.ClientResponse, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apierror.Invalid("nombre y apellido son obligatorios")
	}
	c := &model.Client{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create client")
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func (s *clientService) GetClient(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "cliente", id)
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func (s *clientService) ListClients(ctx context.Context, filter dto.ClientFilter) (dto.Page[dto.ClientResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	rows, total, err := s.clients.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.ClientResponse]{}, errors.Wrap(err, "list clients")
	}
	return dto.NewPage(mapSlice(rows, clientToResponse), total, filter.PageQuery), nil
}

func (s *clientService) UpdateClient(ctx context.Context, id uuid.UUID, req dto.ClientRequest) (*dto.ClientResponse, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "cliente", id)
	}
	c.FirstName = strings.TrimSpace(req.FirstName)
	c.LastName = strings.TrimSpace(req.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Phone = req.Phone
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update client")
	}
	resp := clientToResponse(c)
	return &resp, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	n, err := s.clients.CountOrders(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count client orders")
	}
	if n > 0 {
		return apierror.E(apierror.KindInvalidState, "el cliente %s tiene %d ordenes", id, n)
	}
	return lookup(s.clients.Delete(ctx, id), "cliente", id)
}

func (s *clientService) ListClientVehicles(ctx context.Context, clientID uuid.UUID, q dto.PageQuery) (dto.Page[dto.VehicleResponse], error) {
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return dto.Page[dto.VehicleResponse]{}, lookup(err, "cliente", clientID)
	}
	return s.ListVehicles(ctx, dto.VehicleFilter{ClientID: clientID.String(), PageQuery: q})
}

func (s *clientService) AddClientVehicle(ctx context.Context, clientID uuid.UUID, req dto.VehicleRequest) (*dto.VehicleResponse, error) {
	id := clientID.String()
	req.ClientID = &id
	return s.CreateVehicle(ctx, req)
}

// ── Vehicles ─────────────────────────────────────────────────────────────────

func (s *clientService) ownerOf(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID("clientId", *raw)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.FindByID(ctx, id); err != nil {
		return nil, lookup(err, "cliente", id)
	}
	return &id, nil
}

func (s *clientService) CreateVehicle(ctx context.Context, req dto.VehicleRequest) (*dto.VehicleResponse, error) {
	plate := normalizePlate(req.LicensePlate)
	if plate == "" {
		return nil, apierror.Invalid("la patente es obligatoria")
	}
	owner, err := s.ownerOf(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	v := &model.Vehicle{LicensePlate: plate, Brand: req.Brand, Model: req.Model, ModelYear: req.ModelYear, ClientID: owner}
	if err := s.vehicles.Create(ctx, v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Invalid("ya existe un vehiculo con patente %s", plate)
		}
		return nil, errors.Wrap(err, "create vehicle")
	}
	resp := vehicleToResponse(v)
	return &resp, nil
}

func (s *clientService) GetVehicle(ctx context.Context, plate string) (*dto.VehicleResponse, error) {
	plate = normalizePlate(plate)
	v, err := s.vehicles.FindByPlate(ctx, plate)
	if err != nil {
		return nil, lookup(err, "vehiculo", plate)
	}
	resp := vehicleToResponse(v)
	return &resp, nil
}

func (s *clientService) ListVehicles(ctx context.Context, filter dto.VehicleFilter) (dto.Page[dto.VehicleResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	rows, total, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.VehicleResponse]{}, errors.Wrap(err, "list vehicles")
	}
	return dto.NewPage(mapSlice(rows, vehicleToResponse), total, filter.PageQuery), nil
}

// UpdateVehicle never renames the plate; it is the vehicle's identity.
func (s *clientService) UpdateVehicle(ctx context.Context, plate string, req dto.VehicleRequest) (*dto.VehicleResponse, error) {
	plate = normalizePlate(plate)
	v, err := s.vehicles.FindByPlate(ctx, plate)
	if err != nil {
		return nil, lookup(err, "vehiculo", plate)
	}
	owner, err := s.ownerOf(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	v.Brand, v.Model, v.ModelYear, v.ClientID = req.Brand, req.Model, req.ModelYear, owner
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, errors.Wrap(err, "update vehicle")
	}
	resp := vehicleToResponse(v)
	return &resp, nil
}

func (s *clientService) DeleteVehicle(ctx context.Context, plate string) error {
	plate = normalizePlate(plate)
	return lookup(s.vehicles.Delete(ctx, plate), "vehiculo", plate)
}

func (s *clientService) OrdersByPlate(ctx context.Context, plate string, q dto.PageQuery) (dto.Page[dto.OrderResponse], error) {
	filter := dto.OrderFilter{LicensePlate: normalizePlate(plate), PageQuery: q.Normalize(s.pageSize)}
	rows, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.OrderResponse]{}, errors.Wrap(err, "list vehicle orders")
	}
	return dto.NewPage(mapSlice(rows, orderToResponse), total, filter.PageQuery), nil
}

func (s *clientService) VehicleHistory(ctx context.Context, plate string) ([]dto.VehicleHistoryEntry, error) {
	plate = normalizePlate(plate)
	if _, err := s.vehicles.FindByPlate(ctx, plate); err != nil {
		return nil, lookup(err, "vehiculo", plate)
	}
	orders, err := s.orders.ListByPlate(ctx, plate)
	if err != nil {
		return nil, errors.Wrap(err, "vehicle history")
	}
	return mapSlice(orders, historyEntry), nil
}
