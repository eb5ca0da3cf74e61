package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
	"github.com/kovalabs/productsearch/internal/event"
	"github.com/kovalabs/productsearch/internal/health"
	"github.com/kovalabs/productsearch/internal/httputil"
	"github.com/kovalabs/productsearch/internal/index/memory"
	"github.com/kovalabs/productsearch/internal/service"
)

// --- Mock Repository ---

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListOrderedByModifiedDesc(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error) {
	args := m.Called(ctx, subcategoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListByModel(ctx context.Context, modelID int64) ([]domain.Product, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListOrderedByInventoryDesc(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepo) ProductNumberExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepo) ListCostHistory(ctx context.Context, productID int64) ([]domain.CostHistoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CostHistoryEntry), args.Error(1)
}

func (m *mockProductRepo) ListPriceHistory(ctx context.Context, productID int64) ([]domain.PriceHistoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PriceHistoryEntry), args.Error(1)
}

func (m *mockProductRepo) ListInventory(ctx context.Context, productID int64) ([]domain.InventoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryEntry), args.Error(1)
}

func (m *mockProductRepo) GetWorkOrderStats(ctx context.Context, productID int64) (*domain.WorkOrderStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkOrderStats), args.Error(1)
}

func (m *mockProductRepo) GetPurchaseStats(ctx context.Context, productID int64) (*domain.PurchaseStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseStats), args.Error(1)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }

func testProduct(id int64, name string) *domain.Product {
	return &domain.Product{
		ProductID:     id,
		Name:          name,
		ProductNumber: "HL-U509-R",
		Color:         strPtr("Red"),
		StandardCost:  13.08,
		ListPrice:     34.99,
		ProductLine:   strPtr("S"),
		Class:         strPtr("L"),
		Style:         strPtr("U"),
		SellStartDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		ModifiedDate:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type testEnv struct {
	repo   *mockProductRepo
	store  *memory.Store
	router http.Handler
}

func newTestEnv() *testEnv {
	repo := new(mockProductRepo)
	store := memory.New()
	logger := testLogger()

	engine := service.NewSyncEngine(repo, store, logger)
	productSvc := service.NewProductService(repo, engine, event.NopPublisher{}, "product-search-api", logger)
	searchSvc := service.NewSearchService(repo, store, logger)

	router := NewRouter("product-search-api", productSvc, searchSvc, engine, health.NewHandler(), logger)
	return &testEnv{repo: repo, store: store, router: router}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- Tests ---

func TestGetProduct_OK(t *testing.T) {
	env := newTestEnv()
	env.repo.On("GetByID", mock.Anything, int64(707)).Return(testProduct(707, "Sport-100 Helmet, Red"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/707", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(707), data["product_id"])
	assert.Equal(t, "Sport-100 Helmet, Red", data["name"])
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv()
	env.repo.On("GetByID", mock.Anything, int64(999)).Return(nil, apperrors.NotFound("product", int64(999)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/999", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-number", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestCreateProduct_Created(t *testing.T) {
	env := newTestEnv()
	env.repo.On("NameExists", mock.Anything, "Sport-100 Helmet, Red", int64(0)).Return(false, nil)
	env.repo.On("ProductNumberExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	env.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Product).ProductID = 707
	}).Return(nil)
	env.repo.On("GetByID", mock.Anything, int64(707)).Return(testProduct(707, "Sport-100 Helmet, Red"), nil)

	body, _ := json.Marshal(map[string]any{
		"name":            "Sport-100 Helmet, Red",
		"standard_cost":   13.08,
		"list_price":      34.99,
		"color":           "Red",
		"product_line":    "S",
		"class":           "L",
		"style":           "U",
		"sell_start_date": "2023-06-01T00:00:00Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(707), data["product_id"])

	// The created product must be searchable immediately.
	doc, err := env.store.FindByProductID(context.Background(), 707)
	require.NoError(t, err)
	assert.Equal(t, "Sport-100 Helmet, Red", doc.ProductName)
}

func TestCreateProduct_ValidationError(t *testing.T) {
	env := newTestEnv()

	body, _ := json.Marshal(map[string]any{
		"list_price": -5,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Name")
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	env := newTestEnv()
	env.repo.On("NameExists", mock.Anything, "Sport-100 Helmet, Red", int64(0)).Return(true, nil)

	body, _ := json.Marshal(map[string]any{
		"name":            "Sport-100 Helmet, Red",
		"sell_start_date": "2023-06-01T00:00:00Z",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

func TestDeleteProduct_NoContent(t *testing.T) {
	env := newTestEnv()
	env.repo.On("GetByID", mock.Anything, int64(707)).Return(testProduct(707, "Sport-100 Helmet, Red"), nil)
	env.repo.On("Delete", mock.Anything, int64(707)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/707", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListProducts_OK(t *testing.T) {
	env := newTestEnv()
	env.repo.On("ListOrderedByModifiedDesc", mock.Anything).Return([]domain.Product{
		*testProduct(2, "Touring Frame"),
		*testProduct(1, "Road Frame"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items := resp.Data.([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(2), first["product_id"])
}

func TestListProducts_BySubcategory(t *testing.T) {
	env := newTestEnv()
	env.repo.On("ListBySubcategory", mock.Anything, int64(31)).Return([]domain.Product{
		*testProduct(707, "Sport-100 Helmet, Red"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=subcat&id=31", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items := resp.Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(707), items[0].(map[string]any)["product_id"])
	env.repo.AssertExpectations(t)
}

func TestListProducts_ByModel(t *testing.T) {
	env := newTestEnv()
	env.repo.On("ListByModel", mock.Anything, int64(33)).Return([]domain.Product{
		*testProduct(707, "Sport-100 Helmet, Red"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=model&id=33", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env.repo.AssertExpectations(t)
}

func TestListProducts_Active(t *testing.T) {
	env := newTestEnv()
	env.repo.On("ListActive", mock.Anything).Return([]domain.Product{
		*testProduct(707, "Sport-100 Helmet, Red"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=active", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env.repo.AssertExpectations(t)
}

func TestListProducts_ByQuantity(t *testing.T) {
	env := newTestEnv()
	env.repo.On("ListOrderedByInventoryDesc", mock.Anything).Return([]domain.Product{
		*testProduct(2, "Touring Frame"),
		*testProduct(1, "Road Frame"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=quantity", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items := resp.Data.([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(2), items[0].(map[string]any)["product_id"])
	env.repo.AssertExpectations(t)
}

func TestListProducts_UnknownFilter(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=price", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestListProducts_SubcategoryWithoutID(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?by=subcat", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestGetWorkOrderStats_OK(t *testing.T) {
	env := newTestEnv()
	env.repo.On("GetByID", mock.Anything, int64(707)).Return(testProduct(707, "Sport-100 Helmet, Red"), nil)
	env.repo.On("GetWorkOrderStats", mock.Anything, int64(707)).Return(&domain.WorkOrderStats{
		OrderQuantitySum:    120,
		StockedQuantitySum:  110,
		ScrappedQuantitySum: 10,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/707/work-order-stats", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(120), data["order_quantity_sum"])
}

func TestHealthLive_OK(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
