package service

import (
	"context"
	"sync"
	"testing"

	"motorplus/internal/model"
	"motorplus/internal/repository"
	"motorplus/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testThreshold = 3
	testHourCost  = 10
)

// recordingNotifier captures post-commit notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	lowStock []model.Part
	issued   []string
}

var _ Notifier = (*recordingNotifier)(nil)

func (n *recordingNotifier) LowStock(_ context.Context, p model.Part, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, p)
	return nil
}

func (n *recordingNotifier) InvoiceIssued(_ context.Context, inv model.Invoice, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, inv.Number+" "+to)
	return nil
}

func (n *recordingNotifier) lowStockCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.lowStock)
}

type env struct {
	db       *gorm.DB
	fx       *testutil.Fixtures
	notifier *recordingNotifier

	inventory    InventoryService
	orders       OrderService
	supervisions SupervisionService
	billing      BillingService
	catalog      CatalogService
	clients      ClientService
	suppliers    SupplierService
	reports      ReportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	n := &recordingNotifier{}

	partRepo := repository.NewPartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	clientRepo := repository.NewClientRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	mechanicRepo := repository.NewMechanicRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	inventory := NewInventoryService(partRepo, n, testThreshold, 20)
	return &env{
		db:           db,
		fx:           testutil.NewFixtures(t, db),
		notifier:     n,
		inventory:    inventory,
		orders:       NewOrderService(orderRepo, clientRepo, serviceRepo, mechanicRepo, partRepo, inventory, 20),
		supervisions: NewSupervisionService(repository.NewSupervisionRepository(db), orderRepo, mechanicRepo, 20),
		billing:      NewBillingService(invoiceRepo, orderRepo, clientRepo, n, 30, 20),
		catalog:      NewCatalogService(serviceRepo, mechanicRepo, 20),
		clients:      NewClientService(clientRepo, repository.NewVehicleRepository(db), orderRepo, 20),
		suppliers:    NewSupplierService(repository.NewSupplierRepository(db), partRepo, 20),
		reports:      NewReportService(repository.NewReportRepository(db), orderRepo, partRepo, invoiceRepo, testThreshold, decimal.NewFromInt(testHourCost)),
	}
}

// orderTotal reads the stored total and checks it against the sum of the
// current rows.
func (e *env) orderTotal(t *testing.T, orderID uuid.UUID) decimal.Decimal {
	t.Helper()
	var o model.Order
	require.NoError(t, e.db.Where("id = ?", orderID).First(&o).Error)

	want := decimal.Zero
	var items []model.OrderItem
	require.NoError(t, e.db.Where("order_id = ?", orderID).Find(&items).Error)
	for _, it := range items {
		want = want.Add(model.LineSubtotal(it.Quantity, it.UnitPrice))
		var usages []model.PartUsage
		require.NoError(t, e.db.Where("order_item_id = ?", it.ID).Find(&usages).Error)
		for _, pu := range usages {
			want = want.Add(model.LineSubtotal(pu.Quantity, pu.UnitPrice))
		}
	}
	require.True(t, want.Equal(o.Total), "stored total %s, rows sum to %s", o.Total, want)
	return o.Total
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }
