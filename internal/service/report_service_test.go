package service

import (
	"context"
	"testing"
	"time"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_UnknownKind(t *testing.T) {
	e := newEnv(t)
	_, err := e.reports.Render(context.Background(), dto.ReportKind("weather"), dto.ReportQuery{})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestReport_EveryKindHasARenderer(t *testing.T) {
	e := newEnv(t)
	p := e.fx.Part(1, "1.00")
	q := dto.ReportQuery{Plate: "ABC123", PartID: p.ID.String()}
	for _, kind := range dto.ReportKinds {
		_, err := e.reports.Render(context.Background(), kind, q)
		assert.NoError(t, err, kind)
	}
}

func TestReport_PartStockStatus(t *testing.T) {
	e := newEnv(t)
	low := e.fx.Part(2, "1.00")
	e.fx.Part(20, "1.00")

	out, err := e.reports.Render(context.Background(), dto.ReportPartStockStatus, dto.ReportQuery{})
	require.NoError(t, err)
	rows := out.([]dto.PartStockRow)
	require.Len(t, rows, 2)
	assert.Equal(t, low.ID.String(), rows[0].PartID)
	assert.True(t, rows[0].Low)
	assert.False(t, rows[1].Low)
	assert.Equal(t, testThreshold, rows[1].Threshold)
}

func TestReport_VehicleHistory(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.reports.Render(f.ctx, dto.ReportVehicleHistory, dto.ReportQuery{})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	out, err := f.reports.Render(f.ctx, dto.ReportVehicleHistory, dto.ReportQuery{Plate: "ab 123"})
	require.NoError(t, err)
	rows := out.([]dto.VehicleHistoryEntry)
	require.Len(t, rows, 1)
	assert.Equal(t, f.order.String(), rows[0].OrderID)
	require.Len(t, rows[0].Items, 1)
}

func TestReport_ServicePopularityAndMechanics(t *testing.T) {
	f := newOrderFixture(t)
	m := f.fx.Mechanic("Rosa")
	_, err := f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String(), EstimatedHours: ptr(3)})
	require.NoError(t, err)

	out, err := f.reports.Render(f.ctx, dto.ReportServicePopularity, dto.ReportQuery{Limit: 5})
	require.NoError(t, err)
	pop := out.([]dto.ServicePopularityRow)
	require.NotEmpty(t, pop)
	assert.EqualValues(t, 1, pop[0].Items)
	assert.True(t, dec("50").Equal(pop[0].Revenue))

	out, err = f.reports.Render(f.ctx, dto.ReportMechanicPerformance, dto.ReportQuery{})
	require.NoError(t, err)
	perf := out.([]dto.MechanicPerformanceRow)
	require.Len(t, perf, 1)
	assert.Equal(t, "Rosa Taller", perf[0].Name)
	assert.EqualValues(t, 3, perf[0].Hours)
	assert.EqualValues(t, 1, perf[0].Orders)
}

func TestReport_InvertedRangeRejected(t *testing.T) {
	e := newEnv(t)
	from := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := e.reports.Render(context.Background(), dto.ReportClientActivity, dto.ReportQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestReport_PartTraceability(t *testing.T) {
	f := newOrderFixture(t)
	p := f.fx.Part(5, "2.00")
	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)

	out, err := f.reports.Render(f.ctx, dto.ReportPartTraceability, dto.ReportQuery{PartID: p.ID.String()})
	require.NoError(t, err)
	tr := out.(dto.PartTraceability)
	assert.Equal(t, 3, tr.Part.Stock)
	assert.Len(t, tr.Movements, 1)
	assert.Len(t, tr.Usages, 1)

	_, err = f.reports.Render(f.ctx, dto.ReportPartTraceability, dto.ReportQuery{})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestReport_MarginsOfCompletedOrders(t *testing.T) {
	f := newOrderFixture(t)
	m := f.fx.Mechanic("Rosa")
	idle := f.fx.Mechanic("Beto")
	supplied := f.fx.Part(5, "8.00")
	unlisted := f.fx.Part(5, "4.00")
	for _, cost := range []string{"6.00", "5.00"} {
		sup, err := f.suppliers.Create(f.ctx, dto.SupplierRequest{Name: "Prov " + cost})
		require.NoError(t, err)
		_, err = f.suppliers.AddPart(f.ctx, uuid.MustParse(sup.ID), dto.SupplierPartRequest{PartID: supplied.ID.String(), Cost: dec(cost)})
		require.NoError(t, err)
	}

	_, err := f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: supplied.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = f.orders.AddPartUsage(f.ctx, f.order, f.item, dto.AddPartUsageRequest{PartID: unlisted.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.AddAssignment(f.ctx, f.order, f.item, dto.AddAssignmentRequest{MechanicID: m.ID.String(), EstimatedHours: ptr(3)})
	require.NoError(t, err)
	for _, st := range []string{"SCHEDULED", "IN_PROGRESS", "COMPLETED"} {
		_, err := f.orders.ChangeStatus(f.ctx, f.order, st)
		require.NoError(t, err)
	}

	// A second order by the same mechanic that never completes.
	open, err := f.orders.CreateOrder(f.ctx, dto.CreateOrderRequest{ClientID: f.client.ID.String(), LicensePlate: "zz 1"})
	require.NoError(t, err)
	openItem, err := f.orders.AddItem(f.ctx, uuid.MustParse(open.ID), dto.AddItemRequest{ServiceID: f.fx.Service("20.00").ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.AddAssignment(f.ctx, uuid.MustParse(open.ID), uuid.MustParse(openItem.ID), dto.AddAssignmentRequest{MechanicID: m.ID.String()})
	require.NoError(t, err)

	// revenue 50 + 2*8 + 4 = 70, parts at cost 2*5 + 4 = 14, labor 3h * 10 = 30
	out, err := f.reports.Render(f.ctx, dto.ReportOrderMargin, dto.ReportQuery{})
	require.NoError(t, err)
	orders := out.([]dto.OrderMarginRow)
	require.Len(t, orders, 1)
	assert.Equal(t, f.order.String(), orders[0].OrderID)
	assert.Equal(t, "AB123", orders[0].LicensePlate)
	assert.True(t, dec("70.00").Equal(orders[0].Revenue), orders[0].Revenue.String())
	assert.True(t, dec("14.00").Equal(orders[0].PartsCost), orders[0].PartsCost.String())
	assert.True(t, dec("30.00").Equal(orders[0].LaborCost), orders[0].LaborCost.String())
	assert.True(t, dec("26.00").Equal(orders[0].Margin), orders[0].Margin.String())
	assert.True(t, dec("37.14").Equal(orders[0].MarginPct), orders[0].MarginPct.String())

	out, err = f.reports.Render(f.ctx, dto.ReportClientProfitability, dto.ReportQuery{})
	require.NoError(t, err)
	clients := out.([]dto.ClientProfitabilityRow)
	require.Len(t, clients, 1)
	assert.Equal(t, f.client.ID.String(), clients[0].ClientID)
	assert.EqualValues(t, 1, clients[0].Orders)
	assert.True(t, dec("70").Equal(clients[0].Revenue))
	assert.True(t, dec("26").Equal(clients[0].Margin))

	out, err = f.reports.Render(f.ctx, dto.ReportMechanicProductivity, dto.ReportQuery{})
	require.NoError(t, err)
	mechs := out.([]dto.MechanicProductivityRow)
	require.Len(t, mechs, 2)
	busy := mechs[0]
	assert.Equal(t, m.ID.String(), busy.MechanicID)
	assert.EqualValues(t, 2, busy.AssignedOrders)
	assert.EqualValues(t, 1, busy.CompletedOrders)
	assert.True(t, dec("50").Equal(busy.CompletionPct), busy.CompletionPct.String())
	assert.EqualValues(t, 3, busy.Hours)
	assert.True(t, dec("50").Equal(busy.Revenue), busy.Revenue.String())
	assert.True(t, dec("30").Equal(busy.LaborCost))
	assert.True(t, dec("20").Equal(busy.Margin))

	assert.Equal(t, idle.ID.String(), mechs[1].MechanicID)
	assert.Zero(t, mechs[1].AssignedOrders)
	assert.True(t, mechs[1].CompletionPct.IsZero())
}

func TestReport_MarginRangeExcludesOlderOrders(t *testing.T) {
	f := completedOrder(t)
	from := time.Now().AddDate(0, 0, 2)

	out, err := f.reports.Render(f.ctx, dto.ReportOrderMargin, dto.ReportQuery{From: &from})
	require.NoError(t, err)
	assert.Empty(t, out.([]dto.OrderMarginRow))

	out, err = f.reports.Render(f.ctx, dto.ReportClientProfitability, dto.ReportQuery{})
	require.NoError(t, err)
	require.Len(t, out.([]dto.ClientProfitabilityRow), 1)
}
