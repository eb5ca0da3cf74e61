package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
	"github.com/kovalabs/productsearch/internal/event"
	"github.com/kovalabs/productsearch/internal/repository"
)

const (
	productNumberLength  = 20
	productNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	productNumberRetries = 5
)

// ProductService implements the business logic for product operations.
// Every successful write is followed by an inline index sync; sync failures
// are logged, never surfaced, so canonical writes always win.
type ProductService struct {
	repo      repository.ProductRepository
	sync      *SyncEngine
	publisher event.Publisher
	source    string
	logger    *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, sync *SyncEngine, publisher event.Publisher, source string, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		sync:      sync,
		publisher: publisher,
		source:    source,
		logger:    logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name                 string
	MakeFlag             bool
	FinishedGoodsFlag    bool
	Color                *string
	SafetyStockLevel     int
	ReorderPoint         int
	StandardCost         float64
	ListPrice            float64
	Size                 *string
	Weight               *float64
	DaysToManufacture    int
	ProductLine          *string
	Class                *string
	Style                *string
	ProductSubcategoryID *int64
	ProductModelID       *int64
	SellStartDate        time.Time
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged.
type UpdateProductInput struct {
	Name              *string
	Color             *string
	SafetyStockLevel  *int
	ReorderPoint      *int
	StandardCost      *float64
	ListPrice         *float64
	Size              *string
	Weight            *float64
	DaysToManufacture *int
	ProductLine       *string
	Class             *string
	Style             *string
	SellEndDate       *time.Time
	DiscontinuedDate  *time.Time
}

// CreateProduct creates a new product and indexes it for search.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.StandardCost < 0 || input.ListPrice < 0 {
		return nil, apperrors.InvalidInput("cost and price must not be negative")
	}
	if input.SellStartDate.IsZero() {
		return nil, apperrors.InvalidInput("sell start date is required")
	}

	taken, err := s.repo.NameExists(ctx, input.Name, 0)
	if err != nil {
		return nil, fmt.Errorf("check product name: %w", err)
	}
	if taken {
		return nil, apperrors.AlreadyExists("product", "name", input.Name)
	}

	number, err := s.generateProductNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Name:                 input.Name,
		ProductNumber:        number,
		MakeFlag:             input.MakeFlag,
		FinishedGoodsFlag:    input.FinishedGoodsFlag,
		Color:                input.Color,
		SafetyStockLevel:     input.SafetyStockLevel,
		ReorderPoint:         input.ReorderPoint,
		StandardCost:         input.StandardCost,
		ListPrice:            input.ListPrice,
		Size:                 input.Size,
		Weight:               input.Weight,
		DaysToManufacture:    input.DaysToManufacture,
		ProductLine:          input.ProductLine,
		Class:                input.Class,
		Style:                input.Style,
		ProductSubcategoryID: input.ProductSubcategoryID,
		ProductModelID:       input.ProductModelID,
		SellStartDate:        input.SellStartDate,
		RowGUID:              uuid.New().String(),
		ModifiedDate:         now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.syncAfterWrite(ctx, product.ProductID)
	s.publishProductEvent(ctx, event.TopicProductCreated, product)

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ProductID),
		slog.String("product_number", product.ProductNumber),
	)
	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns the full catalog, most recently modified first.
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListOrderedByModifiedDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListProductsBySubcategory returns the products in a subcategory.
func (s *ProductService) ListProductsBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error) {
	products, err := s.repo.ListBySubcategory(ctx, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by subcategory: %w", err)
	}
	return products, nil
}

// ListProductsByModel returns the products built from a model.
func (s *ProductService) ListProductsByModel(ctx context.Context, modelID int64) ([]domain.Product, error) {
	products, err := s.repo.ListByModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("list products by model: %w", err)
	}
	return products, nil
}

// ListActiveProducts returns products currently on sale.
func (s *ProductService) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return products, nil
}

// ListProductsByInventory returns the catalog ordered by total stocked
// quantity, highest first.
func (s *ProductService) ListProductsByInventory(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListOrderedByInventoryDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products by inventory: %w", err)
	}
	return products, nil
}

// UpdateProduct applies the non-nil fields of input to an existing product
// and re-syncs its index document.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Name != nil && *input.Name != product.Name {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		taken, err := s.repo.NameExists(ctx, *input.Name, id)
		if err != nil {
			return nil, fmt.Errorf("check product name: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("product", "name", *input.Name)
		}
		product.Name = *input.Name
	}

	if input.Color != nil {
		product.Color = input.Color
	}
	if input.SafetyStockLevel != nil {
		product.SafetyStockLevel = *input.SafetyStockLevel
	}
	if input.ReorderPoint != nil {
		product.ReorderPoint = *input.ReorderPoint
	}
	if input.StandardCost != nil {
		if *input.StandardCost < 0 {
			return nil, apperrors.InvalidInput("standard cost must not be negative")
		}
		product.StandardCost = *input.StandardCost
	}
	if input.ListPrice != nil {
		if *input.ListPrice < 0 {
			return nil, apperrors.InvalidInput("list price must not be negative")
		}
		product.ListPrice = *input.ListPrice
	}
	if input.Size != nil {
		product.Size = input.Size
	}
	if input.Weight != nil {
		product.Weight = input.Weight
	}
	if input.DaysToManufacture != nil {
		product.DaysToManufacture = *input.DaysToManufacture
	}
	if input.ProductLine != nil {
		product.ProductLine = input.ProductLine
	}
	if input.Class != nil {
		product.Class = input.Class
	}
	if input.Style != nil {
		product.Style = input.Style
	}
	if input.SellEndDate != nil {
		product.SellEndDate = input.SellEndDate
	}
	if input.DiscontinuedDate != nil {
		product.DiscontinuedDate = input.DiscontinuedDate
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.syncAfterWrite(ctx, product.ProductID)
	s.publishProductEvent(ctx, event.TopicProductUpdated, product)

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", product.ProductID))
	return product, nil
}

// DeleteProduct removes a product. The index document is removed first so
// search can never surface a product the canonical store no longer has.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get product by id: %w", err)
	}

	if err := s.sync.RemoveOne(ctx, id); err != nil {
		// The document may legitimately be absent if the product was never
		// synced; anything else is logged but must not block the delete.
		s.logger.WarnContext(ctx, "index document removal failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.publishDeletedEvent(ctx, id)

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// GetCostHistory returns the standard cost history of a product.
func (s *ProductService) GetCostHistory(ctx context.Context, id int64) ([]domain.CostHistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	entries, err := s.repo.ListCostHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list cost history: %w", err)
	}
	return entries, nil
}

// GetPriceHistory returns the list price history of a product.
func (s *ProductService) GetPriceHistory(ctx context.Context, id int64) ([]domain.PriceHistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	entries, err := s.repo.ListPriceHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	return entries, nil
}

// GetInventory returns per-location inventory for a product.
func (s *ProductService) GetInventory(ctx context.Context, id int64) ([]domain.InventoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	entries, err := s.repo.ListInventory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return entries, nil
}

// GetWorkOrderStats returns aggregate manufacturing stats for a product.
func (s *ProductService) GetWorkOrderStats(ctx context.Context, id int64) (*domain.WorkOrderStats, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	stats, err := s.repo.GetWorkOrderStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get work order stats: %w", err)
	}
	return stats, nil
}

// GetPurchaseStats returns aggregate purchasing stats for a product.
func (s *ProductService) GetPurchaseStats(ctx context.Context, id int64) (*domain.PurchaseStats, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	stats, err := s.repo.GetPurchaseStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase stats: %w", err)
	}
	return stats, nil
}

// generateProductNumber produces a unique random product number, retrying
// on the (unlikely) collision with an existing one.
func (s *ProductService) generateProductNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < productNumberRetries; attempt++ {
		number := randomProductNumber()
		taken, err := s.repo.ProductNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check product number: %w", err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", apperrors.Internal(fmt.Errorf("could not generate a unique product number after %d attempts", productNumberRetries))
}

func randomProductNumber() string {
	b := make([]byte, productNumberLength)
	for i := range b {
		b[i] = productNumberCharset[rand.IntN(len(productNumberCharset))]
	}
	return string(b)
}

// syncAfterWrite reconciles the index after a canonical write. Failures are
// logged, never returned: the canonical write already succeeded.
func (s *ProductService) syncAfterWrite(ctx context.Context, productID int64) {
	if outcome, err := s.sync.SyncOne(ctx, productID); err != nil {
		s.logger.ErrorContext(ctx, "index sync failed after write",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.DebugContext(ctx, "index synced after write",
			slog.Int64("product_id", productID),
			slog.String("outcome", string(outcome)),
		)
	}
}

func (s *ProductService) publishProductEvent(ctx context.Context, topic string, product *domain.Product) {
	payload := event.ProductPayload{
		ProductID:     product.ProductID,
		Name:          product.Name,
		ProductNumber: product.ProductNumber,
		ListPrice:     product.ListPrice,
		ModifiedDate:  product.ModifiedDate,
	}
	env, err := event.NewEnvelope(topic, strconv.FormatInt(product.ProductID, 10), s.source, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, topic, env)
	}
	if err != nil {
		// Event publishing never fails the operation.
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.Int64("product_id", product.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishDeletedEvent(ctx context.Context, productID int64) {
	env, err := event.NewEnvelope(event.TopicProductDeleted, strconv.FormatInt(productID, 10), s.source, event.DeletedPayload{ProductID: productID})
	if err == nil {
		err = s.publisher.Publish(ctx, event.TopicProductDeleted, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", event.TopicProductDeleted),
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
