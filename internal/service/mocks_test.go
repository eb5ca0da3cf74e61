package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kovalabs/productsearch/internal/domain"
	"github.com/kovalabs/productsearch/internal/event"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListOrderedByModifiedDesc(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error) {
	args := m.Called(ctx, subcategoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListByModel(ctx context.Context, modelID int64) ([]domain.Product, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListOrderedByInventoryDesc(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) ProductNumberExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) ListCostHistory(ctx context.Context, productID int64) ([]domain.CostHistoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CostHistoryEntry), args.Error(1)
}

func (m *mockProductRepository) ListPriceHistory(ctx context.Context, productID int64) ([]domain.PriceHistoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PriceHistoryEntry), args.Error(1)
}

func (m *mockProductRepository) ListInventory(ctx context.Context, productID int64) ([]domain.InventoryEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryEntry), args.Error(1)
}

func (m *mockProductRepository) GetWorkOrderStats(ctx context.Context, productID int64) (*domain.WorkOrderStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkOrderStats), args.Error(1)
}

func (m *mockProductRepository) GetPurchaseStats(ctx context.Context, productID int64) (*domain.PurchaseStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseStats), args.Error(1)
}

// --- Mock Index Store ---

type mockIndexStore struct {
	mock.Mock
}

func (m *mockIndexStore) FindByProductID(ctx context.Context, productID int64) (*domain.SearchDocument, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchDocument), args.Error(1)
}

func (m *mockIndexStore) Insert(ctx context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchDocument), args.Error(1)
}

func (m *mockIndexStore) UpdateFields(ctx context.Context, productID int64, productName string, searchKeys []string) error {
	args := m.Called(ctx, productID, productName, searchKeys)
	return args.Error(0)
}

func (m *mockIndexStore) DeleteByProductID(ctx context.Context, productID int64) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockIndexStore) FindByKeyword(ctx context.Context, keyword string) ([]domain.SearchDocument, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchDocument), args.Error(1)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, env *event.Envelope) error {
	args := m.Called(ctx, topic, env)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string {
	return &s
}

func sampleProduct(id int64, name string) *domain.Product {
	return &domain.Product{
		ProductID:         id,
		Name:              name,
		ProductNumber:     "HL-U509-R",
		Color:             strPtr("Red"),
		SafetyStockLevel:  4,
		ReorderPoint:      3,
		StandardCost:      13.08,
		ListPrice:         34.99,
		DaysToManufacture: 0,
		ProductLine:       strPtr("S"),
		Class:             strPtr("L"),
		Style:             strPtr("U"),
		SellStartDate:     time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		RowGUID:           "2ecb1bb9-7756-4b22-a147-214c2b1b56b1",
		ModifiedDate:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
