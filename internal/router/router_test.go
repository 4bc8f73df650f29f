package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"motorplus/internal/apierror"
	"motorplus/internal/config"
	"motorplus/internal/dto"
	"motorplus/internal/model"
	"motorplus/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	engine *gin.Engine
	fx     *testutil.Fixtures
	admin  string // ADMIN JWT
	staff  string // STAFF JWT
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		LowStockThreshold:  3,
		DefaultPageSize:    20,
		InvoiceDueDays:     30,
	}
	env := &testEnv{engine: New(cfg, db, nil), fx: testutil.NewFixtures(t, db)}
	env.fx.User("jefe", model.RoleAdmin, "jefe-password")
	env.fx.User("mostrador", model.RoleStaff, "mostrador-password")
	env.admin = env.login(t, "jefe", "jefe-password")
	env.staff = env.login(t, "mostrador", "mostrador-password")
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.LoginResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func code(t *testing.T, w *httptest.ResponseRecorder) apierror.Kind {
	t.Helper()
	var body apierror.APIError
	decode(t, w, &body)
	return body.Code
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":{"status":"disabled"`)
}

func TestAuthGuards(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierror.KindUnauthorized, code(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "jefe", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Staff reads the catalog but cannot edit it.
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/services", e.staff, nil).Code)
	w = e.do(t, http.MethodPost, "/api/services", e.staff, map[string]any{"name": "Alineado", "price": "20.00"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/users", e.staff, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/users", e.admin, nil).Code)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/auth/change-password", e.staff, dto.ChangePasswordRequest{CurrentPassword: "mostrador-password", NewPassword: "nueva-clave-1"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	e.login(t, "mostrador", "nueva-clave-1")
}

func TestValidationEnvelope(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/orders", e.staff, map[string]any{"licensePlate": "A"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body apierror.ValidationError
	decode(t, w, &body)
	assert.Equal(t, apierror.KindValidation, body.Code)
	assert.Contains(t, body.Fields, "clientId")

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+e.staff)
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/orders/not-a-uuid", e.staff, nil).Code)
	w = e.do(t, http.MethodGet, "/api/reports/nope", e.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierror.KindValidation, code(t, w))
}

// TestWorkshopFlow walks an order from draft to a paid invoice over HTTP.
func TestWorkshopFlow(t *testing.T) {
	e := newTestEnv(t)
	client := e.fx.Client()
	svc := e.fx.Service("50.00")
	part := e.fx.Part(5, "8.00")
	mech := e.fx.Mechanic("Rosa")
	boss := e.fx.Mechanic("Julio")

	w := e.do(t, http.MethodPost, "/api/orders", e.staff, dto.CreateOrderRequest{ClientID: client.ID.String(), LicensePlate: "ab 123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order dto.OrderResponse
	decode(t, w, &order)
	assert.Equal(t, "AB123", order.LicensePlate)
	base := "/api/orders/" + order.ID

	w = e.do(t, http.MethodPost, base+"/items", e.staff, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item dto.OrderItemResponse
	decode(t, w, &item)
	itemPath := base + "/items/" + item.ID

	w = e.do(t, http.MethodPost, itemPath+"/parts", e.staff, dto.AddPartUsageRequest{PartID: part.ID.String(), Quantity: 6})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindInsufficientStock, code(t, w))

	w = e.do(t, http.MethodPost, itemPath+"/parts", e.staff, dto.AddPartUsageRequest{PartID: part.ID.String(), Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/parts/"+part.ID.String()+"/stock", e.staff, nil)
	var stock dto.StockResponse
	decode(t, w, &stock)
	assert.Equal(t, 3, stock.Stock)

	hours := 2
	w = e.do(t, http.MethodPost, itemPath+"/assignments", e.staff, dto.AddAssignmentRequest{MechanicID: mech.ID.String(), EstimatedHours: &hours})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, http.MethodPost, itemPath+"/assignments", e.staff, dto.AddAssignmentRequest{MechanicID: mech.ID.String()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindDuplicateAssignment, code(t, w))

	w = e.do(t, http.MethodPost, "/api/supervisions", e.staff, dto.CreateSupervisionRequest{SupervisorID: boss.ID.String(), SupervisedID: mech.ID.String(), OrderID: order.ID, Notes: "revisar frenos"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, http.MethodGet, "/api/supervisions?orderId="+order.ID, e.staff, nil)
	var sups dto.Page[dto.SupervisionResponse]
	decode(t, w, &sups)
	assert.EqualValues(t, 1, sups.TotalElements)

	w = e.do(t, http.MethodGet, base, e.staff, nil)
	decode(t, w, &order)
	assert.True(t, decimal.RequireFromString("66").Equal(order.Total), order.Total.String())

	w = e.do(t, http.MethodPost, base+"/status?status=COMPLETED", e.staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindIllegalTransition, code(t, w))
	for _, s := range []string{"SCHEDULED", "IN_PROGRESS", "COMPLETED"} {
		w = e.do(t, http.MethodPost, base+"/status?status="+s, e.staff, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", s, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/invoices/from-order/"+order.ID, e.staff, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InvoiceResponse
	decode(t, w, &inv)
	assert.Equal(t, "INV-000001", inv.Number)
	assert.Equal(t, string(model.InvoiceDraft), inv.Status)

	w = e.do(t, http.MethodPost, "/api/invoices/from-order/"+order.ID, e.staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindDuplicateInvoice, code(t, w))

	w = e.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/lines", e.staff, nil)
	var lines dto.Page[dto.InvoiceLineResponse]
	decode(t, w, &lines)
	assert.Len(t, lines.Content, 2)
	assert.EqualValues(t, 2, lines.TotalElements)

	issued := string(model.InvoiceIssued)
	w = e.do(t, http.MethodPatch, "/api/invoices/"+inv.ID, e.staff, dto.UpdateInvoiceRequest{Status: &issued})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/invoices/"+inv.ID+"/payments", e.staff, dto.AddPaymentRequest{Amount: decimal.RequireFromString("66"), Method: "CASH"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, http.MethodGet, "/api/invoices/"+inv.ID, e.staff, nil)
	decode(t, w, &inv)
	assert.Equal(t, string(model.InvoicePaid), inv.Status)
	assert.True(t, inv.Balance.IsZero())

	w = e.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-000001.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	// The order is frozen once completed.
	w = e.do(t, http.MethodPost, base+"/items", e.staff, dto.AddItemRequest{ServiceID: svc.ID.String(), Quantity: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindInvalidState, code(t, w))

	w = e.do(t, http.MethodGet, "/api/reports/vehicle-history?plate=ab123", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history []dto.VehicleHistoryEntry
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].OrderID)
}

func TestSupervisionDeleteIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	a, b := e.fx.Mechanic("Ana"), e.fx.Mechanic("Beto")

	w := e.do(t, http.MethodPost, "/api/supervisions", e.staff, dto.CreateSupervisionRequest{SupervisorID: a.ID.String(), SupervisedID: a.ID.String(), OrderID: o.ID.String(), Notes: "x"})
	assert.Equal(t, apierror.KindSelfSupervision, code(t, w))

	w = e.do(t, http.MethodPost, "/api/supervisions", e.staff, dto.CreateSupervisionRequest{SupervisorID: a.ID.String(), SupervisedID: b.ID.String(), OrderID: o.ID.String(), Notes: "x"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	path := fmt.Sprintf("/api/supervisions?supervisorId=%s&supervisedId=%s&orderId=%s", a.ID, b.ID, o.ID)
	for range 2 {
		assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, e.staff, nil).Code)
	}
}

func TestPagination(t *testing.T) {
	e := newTestEnv(t)
	c := e.fx.Client()
	for range 5 {
		e.fx.Order(c.ID, model.OrderDraft)
	}

	w := e.do(t, http.MethodGet, "/api/orders?page=1&size=2", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page dto.Page[dto.OrderResponse]
	decode(t, w, &page)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Content, 2)

	w = e.do(t, http.MethodGet, "/api/orders?size=1000", e.staff, nil)
	decode(t, w, &page)
	assert.Equal(t, dto.MaxPageSize, page.Size)
}

func TestPartAdminAndMovements(t *testing.T) {
	e := newTestEnv(t)
	req := dto.CreatePartRequest{Name: "Bujia", SKU: "BJ-1", UnitPrice: decimal.RequireFromString("4.5"), Stock: 2}

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/api/parts", e.staff, req).Code)
	w := e.do(t, http.MethodPost, "/api/parts", e.admin, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var part dto.PartResponse
	decode(t, w, &part)

	w = e.do(t, http.MethodPost, "/api/parts/"+part.ID+"/movements", e.staff, dto.MovementRequest{Type: "IN", Quantity: 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/parts/"+part.ID+"/movements", e.staff, nil)
	var moves dto.Page[dto.MovementResponse]
	decode(t, w, &moves)
	assert.EqualValues(t, 2, moves.TotalElements)

	active := false
	w = e.do(t, http.MethodPatch, "/api/parts/"+part.ID+"/active", e.admin, dto.SetActiveRequest{Active: &active})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOrderChildCollectionsArePaged(t *testing.T) {
	e := newTestEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	base := "/api/orders/" + o.ID.String()
	var first dto.OrderItemResponse
	for i := range 3 {
		w := e.do(t, http.MethodPost, base+"/items", e.staff, dto.AddItemRequest{ServiceID: e.fx.Service("10.00").ID.String(), Quantity: 1})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		if i == 0 {
			decode(t, w, &first)
		}
	}

	w := e.do(t, http.MethodGet, base+"/items?size=2", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items dto.Page[dto.OrderItemResponse]
	decode(t, w, &items)
	assert.EqualValues(t, 3, items.TotalElements)
	assert.Equal(t, 2, items.TotalPages)
	assert.Equal(t, 2, items.Size)
	assert.Len(t, items.Content, 2)

	w = e.do(t, http.MethodGet, base+"/items?page=1&size=2", e.staff, nil)
	decode(t, w, &items)
	assert.Equal(t, 1, items.Page)
	assert.Len(t, items.Content, 1)

	w = e.do(t, http.MethodGet, base+"/items?page=9", e.staff, nil)
	decode(t, w, &items)
	assert.NotNil(t, items.Content)
	assert.Empty(t, items.Content)

	itemPath := base + "/items/" + first.ID
	w = e.do(t, http.MethodPost, itemPath+"/assignments", e.staff, dto.AddAssignmentRequest{MechanicID: e.fx.Mechanic("Rosa").ID.String()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, http.MethodPost, itemPath+"/parts", e.staff, dto.AddPartUsageRequest{PartID: e.fx.Part(3, "1.00").ID.String(), Quantity: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, itemPath+"/assignments", e.staff, nil)
	var assignments dto.Page[dto.AssignmentResponse]
	decode(t, w, &assignments)
	assert.EqualValues(t, 1, assignments.TotalElements)
	assert.Len(t, assignments.Content, 1)

	w = e.do(t, http.MethodGet, itemPath+"/parts", e.staff, nil)
	var parts dto.Page[dto.PartUsageResponse]
	decode(t, w, &parts)
	assert.EqualValues(t, 1, parts.TotalElements)
	assert.Len(t, parts.Content, 1)
}

// Successful writes answer their success status, never a wrapped nil.
func TestWritesReportSuccess(t *testing.T) {
	e := newTestEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	base := "/api/orders/" + o.ID.String()

	w := e.do(t, http.MethodPost, base+"/items", e.staff, dto.AddItemRequest{ServiceID: e.fx.Service("50.00").ID.String(), Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item dto.OrderItemResponse
	decode(t, w, &item)

	var order dto.OrderResponse
	decode(t, e.do(t, http.MethodGet, base, e.staff, nil), &order)
	assert.True(t, decimal.RequireFromString("100").Equal(order.Total), order.Total.String())

	qty := 3
	w = e.do(t, http.MethodPatch, base+"/items/"+item.ID, e.staff, dto.UpdateItemRequest{Quantity: &qty})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodDelete, base+"/items/"+item.ID, e.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	path := fmt.Sprintf("/api/supervisions?supervisorId=%s&supervisedId=%s&orderId=%s", e.fx.Mechanic("A").ID, e.fx.Mechanic("B").ID, o.ID)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, e.staff, nil).Code)

	w = e.do(t, http.MethodDelete, base, e.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestInvoiceLineEditing(t *testing.T) {
	e := newTestEnv(t)
	o := e.fx.Order(e.fx.Client().ID, model.OrderDraft)
	base := "/api/orders/" + o.ID.String()
	w := e.do(t, http.MethodPost, base+"/items", e.staff, dto.AddItemRequest{ServiceID: e.fx.Service("40.00").ID.String(), Quantity: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item dto.OrderItemResponse
	decode(t, w, &item)

	w = e.do(t, http.MethodGet, base+"/items/"+item.ID, e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got dto.OrderItemResponse
	decode(t, w, &got)
	assert.Equal(t, item.ID, got.ID)

	for _, s := range []string{"SCHEDULED", "IN_PROGRESS", "COMPLETED"} {
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/status?status="+s, e.staff, nil).Code)
	}
	w = e.do(t, http.MethodPost, "/api/invoices/from-order/"+o.ID.String(), e.staff, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv dto.InvoiceResponse
	decode(t, w, &inv)
	lines := "/api/invoices/" + inv.ID + "/lines"

	w = e.do(t, http.MethodPost, lines, e.staff, dto.AddInvoiceLineRequest{Type: "PART", Description: "Ajuste", Quantity: 1, UnitPrice: decimal.RequireFromString("10")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var line dto.InvoiceLineResponse
	decode(t, w, &line)

	qty := 3
	w = e.do(t, http.MethodPatch, lines+"/PART/"+line.RefID, e.staff, dto.UpdateInvoiceLineRequest{Quantity: &qty})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	decode(t, e.do(t, http.MethodGet, "/api/invoices/"+inv.ID, e.staff, nil), &inv)
	assert.True(t, decimal.RequireFromString("70").Equal(inv.Total), inv.Total.String())
	assert.True(t, decimal.RequireFromString("70").Equal(inv.Balance))

	w = e.do(t, http.MethodDelete, lines+"/SERVICE/"+item.ID, e.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	decode(t, e.do(t, http.MethodGet, "/api/invoices/"+inv.ID, e.staff, nil), &inv)
	assert.True(t, decimal.RequireFromString("30").Equal(inv.Total), inv.Total.String())

	issued := string(model.InvoiceIssued)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, "/api/invoices/"+inv.ID, e.staff, dto.UpdateInvoiceRequest{Status: &issued}).Code)
	w = e.do(t, http.MethodDelete, lines+"/PART/"+line.RefID, e.staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.KindInvalidState, code(t, w))
}

func TestLegacyRESTContract(t *testing.T) {
	e := newTestEnv(t)
	part := e.fx.Part(2, "3.00")
	owner := e.fx.Client()

	name := "Bujia larga"
	w := e.do(t, http.MethodPut, "/api/parts/"+part.ID.String(), e.admin, dto.UpdatePartRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPatch, "/api/parts/"+part.ID.String()+"/active?active=false", e.admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	var p dto.PartResponse
	decode(t, e.do(t, http.MethodGet, "/api/parts/"+part.ID.String(), e.staff, nil), &p)
	assert.Equal(t, name, p.Name)
	assert.False(t, p.Active)

	w = e.do(t, http.MethodPatch, "/api/parts/"+part.ID.String()+"/active?active=quizas", e.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mech := e.fx.Mechanic("Rosa")
	w = e.do(t, http.MethodPut, "/api/mechanics/"+mech.ID.String(), e.admin, dto.MechanicRequest{FirstName: "Rosa", LastName: "Paz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	svc := e.fx.Service("10.00")
	w = e.do(t, http.MethodPut, "/api/services/"+svc.ID.String(), e.admin, dto.ServiceRequest{Name: "Alineacion", Price: decimal.RequireFromString("12")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPut, "/api/clients/"+owner.ID.String(), e.staff, dto.ClientRequest{FirstName: "Ana", LastName: "Ruiz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ownerID := owner.ID.String()
	w = e.do(t, http.MethodPost, "/api/vehicles", e.staff, dto.VehicleRequest{LicensePlate: "cd-456", Brand: "Fiat", Model: "Uno", ClientID: &ownerID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(t, http.MethodPut, "/api/vehicles/CD456", e.staff, dto.VehicleRequest{LicensePlate: "CD456", Brand: "Fiat", Model: "Palio", ClientID: &ownerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/orders", e.staff, dto.CreateOrderRequest{ClientID: ownerID, LicensePlate: "cd 456"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order dto.OrderResponse
	decode(t, w, &order)
	w = e.do(t, http.MethodGet, "/api/vehicles/cd%20456/history", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history []dto.VehicleHistoryEntry
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].OrderID)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/vehicles/NOPE1/history", e.staff, nil).Code)

	boss := e.fx.Mechanic("Julio")
	body := map[string]string{"supervisorId": boss.ID.String(), "supervisadoId": mech.ID.String(), "orderId": order.ID, "notes": "x"}
	w = e.do(t, http.MethodPost, "/api/supervisions", e.staff, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sup dto.SupervisionResponse
	decode(t, w, &sup)
	assert.Equal(t, mech.ID.String(), sup.SupervisedID)

	path := fmt.Sprintf("/api/supervisions?supervisorId=%s&supervisadoId=%s&orderId=%s", boss.ID, mech.ID, order.ID)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, e.staff, nil).Code)
	var sups dto.Page[dto.SupervisionResponse]
	decode(t, e.do(t, http.MethodGet, "/api/supervisions?orderId="+order.ID, e.staff, nil), &sups)
	assert.Zero(t, sups.TotalElements)

	missing := fmt.Sprintf("/api/supervisions?supervisorId=%s&orderId=%s", boss.ID, order.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodDelete, missing, e.staff, nil).Code)
}
