package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dokanhisab/m/domain"
	"dokanhisab/m/internal/database"
	"dokanhisab/m/internal/migrations"
)

type testAPI struct {
	server *httptest.Server
	token  string
	userID string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	handler := New(db, "test_secret")
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	api := &testAPI{server: server}
	var resp authResponse
	status := api.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "rahim", "password": "secret123", "shop_name": "Rahim Store",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	api.token = resp.Token
	api.userID = resp.User.ID
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAPI(t)

	var resp authResponse
	status := a.do(t, http.MethodPost, "/api/users/login", map[string]string{
		"username": "rahim", "password": "secret123",
	}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, a.userID, resp.User.ID)
	assert.Empty(t, resp.User.Password)

	status = a.do(t, http.MethodPost, "/api/users/login", map[string]string{
		"username": "rahim", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = a.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "rahim", "password": "again",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	var user domain.User
	status = a.do(t, http.MethodGet, "/api/users/rahim", nil, &user)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Rahim Store", user.ShopName)
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)

	bare := &testAPI{server: a.server}
	status := bare.do(t, http.MethodGet, "/api/customers/"+a.userID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// A valid token for a different user must not read this owner's data.
	status = a.do(t, http.MethodGet, "/api/customers/someone-else", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCustomerCRUD(t *testing.T) {
	a := newTestAPI(t)

	var created domain.Customer
	status := a.do(t, http.MethodPost, "/api/customers/"+a.userID, domain.Customer{
		Name: "Karim", Phone: "01712345678", CreditBalance: 50,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, a.userID, created.UserID)
	assert.Equal(t, domain.SyncSynced, created.SyncStatus)

	status = a.do(t, http.MethodPost, "/api/customers/"+a.userID, domain.Customer{Phone: "017"}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "missing name")

	var list []domain.Customer
	status = a.do(t, http.MethodGet, "/api/customers/"+a.userID, nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "Karim", list[0].Name)
}

func TestProductLowStock(t *testing.T) {
	a := newTestAPI(t)

	for _, p := range []domain.Product{
		{Name: "Rice", CurrentStock: 2, MinStockLevel: 5},
		{Name: "Oil", CurrentStock: 50, MinStockLevel: 5},
	} {
		status := a.do(t, http.MethodPost, "/api/products/"+a.userID, p, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var low []domain.Product
	status := a.do(t, http.MethodGet, "/api/products/"+a.userID+"/low-stock", nil, &low)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, low, 1)
	assert.Equal(t, "Rice", low[0].Name)
}

func TestProductUpdate(t *testing.T) {
	a := newTestAPI(t)

	var created domain.Product
	status := a.do(t, http.MethodPost, "/api/products/"+a.userID, domain.Product{
		Name: "Rice", CurrentStock: 10, SellingPrice: 80,
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	var updated domain.Product
	status = a.do(t, http.MethodPut, fmt.Sprintf("/api/products/%s/%s", a.userID, created.ID),
		map[string]any{"current_stock": 4}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 4.0, updated.CurrentStock, 1e-9)
	assert.InDelta(t, 80.0, updated.SellingPrice, 1e-9, "untouched fields keep their values")

	status = a.do(t, http.MethodPut, a.productPath("missing"), map[string]any{"current_stock": 4}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func (a *testAPI) productPath(id string) string {
	return fmt.Sprintf("/api/products/%s/%s", a.userID, id)
}

func TestSalesValidationAndListing(t *testing.T) {
	a := newTestAPI(t)

	status := a.do(t, http.MethodPost, "/api/sales/"+a.userID, domain.Sale{TotalAmount: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "zero total rejected")

	status = a.do(t, http.MethodPost, "/api/sales/"+a.userID, domain.Sale{
		TotalAmount: 100, PaidAmount: 100, PaymentMethod: "barter",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "unknown payment method rejected")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		sale := domain.Sale{
			CustomerName:  "Walk-in",
			Items:         []domain.SaleItem{{ProductName: "Rice", Quantity: 1, UnitPrice: 100, Total: 100}},
			TotalAmount:   100,
			PaidAmount:    100,
			PaymentMethod: domain.PaymentCash,
			SaleDate:      now.Add(-time.Duration(i) * time.Hour),
		}
		status = a.do(t, http.MethodPost, "/api/sales/"+a.userID, sale, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var list []domain.Sale
	status = a.do(t, http.MethodGet, "/api/sales/"+a.userID+"?limit=2", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 2)
	assert.True(t, list[0].SaleDate.After(list[1].SaleDate), "newest first")
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, "Rice", list[0].Items[0].ProductName)

	var today []domain.Sale
	status = a.do(t, http.MethodGet, "/api/sales/"+a.userID+"/today", nil, &today)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, today)
}

func TestDashboard(t *testing.T) {
	a := newTestAPI(t)

	var customer domain.Customer
	status := a.do(t, http.MethodPost, "/api/customers/"+a.userID, domain.Customer{Name: "Karim"}, &customer)
	require.Equal(t, http.StatusCreated, status)

	status = a.do(t, http.MethodPost, "/api/sales/"+a.userID, domain.Sale{
		CustomerID: &customer.ID, CustomerName: "Karim",
		TotalAmount: 500, PaidAmount: 300, DueAmount: 200,
		PaymentMethod: domain.PaymentCredit,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = a.do(t, http.MethodPost, "/api/expenses/"+a.userID, domain.Expense{
		Category: "rent", Amount: 100,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = a.do(t, http.MethodPost, "/api/collections/"+a.userID, domain.Collection{
		CustomerID: customer.ID, Amount: 50,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var st domain.Stats
	status = a.do(t, http.MethodGet, "/api/dashboard/"+a.userID, nil, &st)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, st.TotalCustomers)
	assert.InDelta(t, 500.0, st.TotalSales, 1e-9)
	assert.InDelta(t, 100.0, st.TotalExpenses, 1e-9)
	assert.InDelta(t, 400.0, st.Profit, 1e-9)
	assert.InDelta(t, 150.0, st.PendingCollection, 1e-9, "200 due minus 50 collected")
	assert.InDelta(t, 500.0, st.TodaySales, 1e-9)
	assert.InDelta(t, 400.0, st.TodayProfit, 1e-9)
}

func TestExpenseValidation(t *testing.T) {
	a := newTestAPI(t)

	status := a.do(t, http.MethodPost, "/api/expenses/"+a.userID, domain.Expense{Amount: 10}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "missing category")

	status = a.do(t, http.MethodPost, "/api/expenses/"+a.userID, domain.Expense{Category: "rent"}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "missing amount")
}

func TestCollectionValidation(t *testing.T) {
	a := newTestAPI(t)

	status := a.do(t, http.MethodPost, "/api/collections/"+a.userID, domain.Collection{Amount: 10}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "missing customer_id")

	status = a.do(t, http.MethodPost, "/api/collections/"+a.userID, domain.Collection{CustomerID: "c1"}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "missing amount")
}
