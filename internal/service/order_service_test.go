package service

import (
	"context"
	"testing"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	*env
	ctx    context.Context
	order  uuid.UUID
	item   uuid.UUID
	client *model.Client
}

// newOrderFixture creates a DRAFT order holding one item of a 50.00 service.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	e := newEnv(t)
	ctx := context.Background()
	c := e.fx.Client()
	svc := e.fx.Service("50.00")

	o, err := e.orders.CreateOrder(ctx, dto.CreateOrderRequest{ClientID: c.ID.String(), LicensePlate: "ab 123", Description: "service"})
	require.NoError(t, err)
	orderID := uuid.MustParse(o.ID)
	item, err := e.orders.AddItem(ctx, orderID, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	require.NoError(t, err)
	return &orderFixture{env: e, ctx: ctx, order: orderID, item: uuid.MustParse(item.ID), client: c}
}

func TestScenarioA_AddItemRecomputesTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.fx.Client()
	svc := e.fx.Service("50.00")

	o, err := e.orders.CreateOrder(ctx, dto.CreateOrderRequest{ClientID: c.ID.String(), LicensePlate: "xyz987"})
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderDraft), o.Status)
	assert.True(t, o.Total.IsZero())
	assert.Equal(t, "XYZ987", o.LicensePlate)

	orderID := uuid.MustParse(o.ID)
	item, err := e.orders.AddItem(ctx, orderID, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(item.UnitPrice))
	assert.True(t, dec("100.00").Equal(e.orderTotal(t, orderID)))

	got, err := e.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderDraft), got.Status, "composition does not move status")
}

func TestScenarioB_PartUsageDrainsStock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(5, "8.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, f.fx.Stock(p.ID))

	_, err = f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 0, f.fx.Stock(p.ID))

	page, err := f.orders.ListPartUsages(f.ctx, f.order, f.item, dto.PageQuery{})
	require.NoError(t, err)
	usages := page.Content
	require.Len(t, usages, 1)
	assert.Equal(t, 5, usages[0].Quantity, "failed reservation must not grow the usage")
	assert.True(t, dec("90.00").Equal(f.orderTotal(t, f.order)))
}

func TestAddPartUsage_FailedReservationLeavesNoRow(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(2, "8.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 3})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)

	page, err := f.orders.ListPartUsages(f.ctx, f.order, f.item, dto.PageQuery{})
	require.NoError(t, err)
	usages := page.Content
	assert.Empty(t, usages)
	assert.Equal(t, 2, f.fx.Stock(p.ID))
	assert.True(t, dec("50.00").Equal(f.orderTotal(t, f.order)))
}

func TestPartUsageRoundTripRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(9, "4.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, f.fx.Stock(p.ID))

	require.NoError(t, f.orders.RemovePartUsage(f.ctx, f.order, f.item, p.ID))
	assert.Equal(t, 9, f.fx.Stock(p.ID))
	assert.True(t, dec("50.00").Equal(f.orderTotal(t, f.order)))

	var moves []model.StockMovement
	require.NoError(t, f.db.Where("part_id = ?", p.ID).Find(&moves).Error)
	require.Len(t, moves, 2)
	types := []model.MovementType{moves[0].Type, moves[1].Type}
	assert.ElementsMatch(t, []model.MovementType{model.MovementReserve, model.MovementRelease}, types)
	for _, m := range moves {
		assert.NotNil(t, m.ReferenceID)
	}
}

func TestAddPartUsage_SamePartMerges(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(10, "3.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)
	pu, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, pu.Quantity)
	assert.True(t, dec("15.00").Equal(pu.Subtotal))
	assert.Equal(t, 5, f.fx.Stock(p.ID))
	assert.True(t, dec("65.00").Equal(f.orderTotal(t, f.order)))
}

func TestAddPartUsage_MergeKeepsCapturedPrice(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(10, "3.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)

	_, err = f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1, UnitPrice: ptr(dec("4.00"))})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Equal(t, 8, f.fx.Stock(p.ID), "rejected merge reserves nothing")

	pu, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1, UnitPrice: ptr(dec("3"))})
	require.NoError(t, err)
	assert.Equal(t, 3, pu.Quantity)
	assert.True(t, dec("3.00").Equal(pu.UnitPrice))
	assert.True(t, dec("59.00").Equal(f.orderTotal(t, f.order)))
}

func TestAddPartUsage_PriceCapturedAtCreation(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(10, "3.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.inventory.UpdatePart(f.ctx, p.ID, dto.UpdatePartRequest{UnitPrice: ptr(dec("99.00"))})
	require.NoError(t, err)

	page, err := f.orders.ListPartUsages(f.ctx, f.order, f.item, dto.PageQuery{})
	require.NoError(t, err)
	usages := page.Content
	assert.True(t, dec("3.00").Equal(usages[0].UnitPrice))
	assert.True(t, dec("53.00").Equal(f.orderTotal(t, f.order)))
}

func TestUpdatePartUsage_MovesStockByDelta(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(10, "2.00")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)

	_, err = f.orders.UpdatePartUsage(f.ctx, f.order, f.item, p.ID, dto.UpdatePartUsageRequest{Quantity: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 3, f.fx.Stock(p.ID))

	_, err = f.orders.UpdatePartUsage(f.ctx, f.order, f.item, p.ID, dto.UpdatePartUsageRequest{Quantity: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 8, f.fx.Stock(p.ID))

	_, err = f.orders.UpdatePartUsage(f.ctx, f.order, f.item, p.ID, dto.UpdatePartUsageRequest{Quantity: ptr(11)})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 8, f.fx.Stock(p.ID))
	assert.True(t, dec("54.00").Equal(f.orderTotal(t, f.order)))
}

func TestRemoveItem_CascadesAndReleases(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(6, "5.00")
	m := f.fx.Mechanic("Luis")

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 6})
	require.NoError(t, err)
	_, err = f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String()})
	require.NoError(t, err)

	require.NoError(t, f.orders.RemoveItem(f.ctx, f.order, f.item))
	assert.Equal(t, 6, f.fx.Stock(p.ID))
	assert.True(t, f.orderTotal(t, f.order).IsZero())

	var n int64
	require.NoError(t, f.db.Model(&model.Assignment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&model.PartUsage{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateItem_RecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)

	item, err := f.orders.UpdateItem(f.ctx, f.order, f.item, dto.UpdateItemRequest{Quantity: ptr(3), UnitPrice: ptr(dec("12.50"))})
	require.NoError(t, err)
	assert.True(t, dec("37.50").Equal(item.Subtotal))
	assert.True(t, dec("37.50").Equal(f.orderTotal(t, f.order)))
}

func TestAddItem_Validation(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.fx.Service("10.00")

	_, err := f.orders.AddItem(f.ctx, f.order, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 0})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = f.orders.AddItem(f.ctx, f.order, dto.AddItemRequest{ServiceID: uuid.NewString(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	require.NoError(t, f.catalog.SetServiceActive(f.ctx, svc.ID, false))
	_, err = f.orders.AddItem(f.ctx, f.order, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = f.orders.AddItem(f.ctx, uuid.New(), dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestAddItem_PriceOverride(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.fx.Service("10.00")

	item, err := f.orders.AddItem(f.ctx, f.order, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 2, UnitPrice: ptr(dec("7.25"))})
	require.NoError(t, err)
	assert.True(t, dec("14.50").Equal(item.Subtotal))
	assert.True(t, dec("64.50").Equal(f.orderTotal(t, f.order)))
}

func TestItemFromAnotherOrderIsNotFound(t *testing.T) {
	f := newOrderFixture(t)
	other := f.fx.Order(f.client.ID, model.OrderDraft)
	p := f.fx.Part(3, "1.00")

	_, err := f.orders.AddPartUsage(f.ctx, other.ID, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, 3, f.fx.Stock(p.ID))

	_, err = f.orders.ListAssignments(f.ctx, other.ID, f.item, dto.PageQuery{})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestAddAssignment_Duplicate(t *testing.T) {
	f := newOrderFixture(t)
	m := f.fx.Mechanic("Rosa")

	a, err := f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String(), EstimatedHours: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, "Rosa Taller", a.MechanicName)

	_, err = f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String()})
	assert.ErrorIs(t, err, apierror.ErrDuplicateAssignment)

	updated, err := f.orders.UpdateAssignment(f.ctx, f.order, f.item, m.ID, dto.UpdateAssignmentRequest{EstimatedHours: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.EstimatedHours)

	assert.True(t, dec("50.00").Equal(f.orderTotal(t, f.order)), "assignments carry no price")

	require.NoError(t, f.orders.RemoveAssignment(f.ctx, f.order, f.item, m.ID))
	err = f.orders.RemoveAssignment(f.ctx, f.order, f.item, m.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestAddAssignment_NegativeHours(t *testing.T) {
	f := newOrderFixture(t)
	m := f.fx.Mechanic("Rosa")

	_, err := f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String(), EstimatedHours: ptr(-1)})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestChangeStatus_TransitionTable(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.ChangeStatus(f.ctx, f.order, "IN_PROGRESS")
	assert.ErrorIs(t, err, apierror.ErrIllegalTransition, "DRAFT cannot skip SCHEDULED")

	_, err = f.orders.ChangeStatus(f.ctx, f.order, "DRAFT")
	assert.ErrorIs(t, err, apierror.ErrIllegalTransition, "same status")

	for _, st := range []string{"SCHEDULED", "in_progress", "COMPLETED"} {
		_, err := f.orders.ChangeStatus(f.ctx, f.order, st)
		require.NoError(t, err, st)
	}
	for _, st := range []string{"DRAFT", "SCHEDULED", "IN_PROGRESS", "CANCELLED"} {
		_, err := f.orders.ChangeStatus(f.ctx, f.order, st)
		assert.ErrorIs(t, err, apierror.ErrIllegalTransition, "COMPLETED -> %s", st)
	}

	_, err = f.orders.ChangeStatus(f.ctx, f.order, "ARCHIVED")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestChangeStatus_DraftToCancelled(t *testing.T) {
	f := newOrderFixture(t)

	o, err := f.orders.ChangeStatus(f.ctx, f.order, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderCancelled), o.Status)
}

func TestTerminalOrderRejectsComposition(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(4, "1.00")
	svc := f.fx.Service("5.00")
	_, err := f.orders.ChangeStatus(f.ctx, f.order, "CANCELLED")
	require.NoError(t, err)

	_, err = f.orders.AddItem(f.ctx, f.order, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
	_, err = f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
	assert.ErrorIs(t, f.orders.RemoveItem(f.ctx, f.order, f.item), apierror.ErrInvalidState)

	_, err = f.orders.UpdateOrder(f.ctx, f.order, dto.UpdateOrderRequest{Description: ptr("tarde")})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
	assert.Equal(t, 4, f.fx.Stock(p.ID))
}

func TestUpdateOrder_PatchAndStatus(t *testing.T) {
	f := newOrderFixture(t)

	o, err := f.orders.UpdateOrder(f.ctx, f.order, dto.UpdateOrderRequest{LicensePlate: ptr(" zz 999 "), Status: ptr("SCHEDULED")})
	require.NoError(t, err)
	assert.Equal(t, "ZZ999", o.LicensePlate)
	assert.Equal(t, string(model.OrderScheduled), o.Status)
	assert.True(t, dec("50.00").Equal(o.Total))

	_, err = f.orders.UpdateOrder(f.ctx, f.order, dto.UpdateOrderRequest{Status: ptr("COMPLETED")})
	assert.ErrorIs(t, err, apierror.ErrIllegalTransition)

	// Re-entering the current status is rejected the same way ChangeStatus
	// rejects it, and the other fields of the patch are not applied.
	_, err = f.orders.UpdateOrder(f.ctx, f.order, dto.UpdateOrderRequest{Status: ptr("SCHEDULED"), Description: ptr("otra")})
	assert.ErrorIs(t, err, apierror.ErrIllegalTransition)
	_, err = f.orders.ChangeStatus(f.ctx, f.order, "SCHEDULED")
	assert.ErrorIs(t, err, apierror.ErrIllegalTransition)
	got, err := f.orders.GetOrder(f.ctx, f.order)
	require.NoError(t, err)
	assert.Equal(t, "service", got.Description)

	_, err = f.orders.UpdateOrder(f.ctx, f.order, dto.UpdateOrderRequest{ClientID: ptr(uuid.NewString())})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestDeleteOrder_ReleasesAndCascades(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(5, "1.00")
	m := f.fx.Mechanic("Juan")
	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)
	_, err = f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String()})
	require.NoError(t, err)

	require.NoError(t, f.orders.DeleteOrder(f.ctx, f.order))
	assert.Equal(t, 5, f.fx.Stock(p.ID))
	_, err = f.orders.GetOrder(f.ctx, f.order)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	var n int64
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeleteOrder_RejectedWhenInvoiced(t *testing.T) {
	f := newOrderFixture(t)
	for _, st := range []string{"SCHEDULED", "IN_PROGRESS", "COMPLETED"} {
		_, err := f.orders.ChangeStatus(f.ctx, f.order, st)
		require.NoError(t, err)
	}
	_, err := f.billing.GenerateFromOrder(f.ctx, f.order)
	require.NoError(t, err)

	assert.ErrorIs(t, f.orders.DeleteOrder(f.ctx, f.order), apierror.ErrInvalidState)
}

func TestListOrders_Filters(t *testing.T) {
	f := newOrderFixture(t)
	f.fx.Order(f.client.ID, model.OrderCompleted)

	page, err := f.orders.ListOrders(f.ctx, dto.OrderFilter{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, f.order.String(), page.Content[0].ID)

	page, err = f.orders.ListOrders(f.ctx, dto.OrderFilter{LicensePlate: "abc123"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements)

	_, err = f.orders.ListOrders(f.ctx, dto.OrderFilter{Status: "LOST"})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestGetItem(t *testing.T) {
	f := newOrderFixture(t)

	item, err := f.orders.GetItem(f.ctx, f.order, f.item)
	require.NoError(t, err)
	assert.Equal(t, f.item.String(), item.ID)
	assert.Equal(t, "Servicio 50.00", item.ServiceName)
	assert.True(t, dec("50.00").Equal(item.Subtotal))

	_, err = f.orders.GetItem(f.ctx, f.order, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	other := f.fx.Order(f.client.ID, model.OrderDraft)
	_, err = f.orders.GetItem(f.ctx, other.ID, f.item)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
