package repository

import (
	"context"

	"github.com/kovalabs/productsearch/internal/domain"
)

// ProductRepository is the canonical store adapter. The search side only
// ever reads through it; writes come from the product CRUD flow.
type ProductRepository interface {
	// GetByID returns the product or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// ListOrderedByModifiedDesc returns all products, most recently modified
	// first, product_id descending as a deterministic tie-break.
	ListOrderedByModifiedDesc(ctx context.Context) ([]domain.Product, error)

	// ListBySubcategory returns the products in a subcategory.
	ListBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error)

	// ListByModel returns the products built from a model.
	ListByModel(ctx context.Context, modelID int64) ([]domain.Product, error)

	// ListActive returns products currently on sale: selling has started
	// and has not ended.
	ListActive(ctx context.Context) ([]domain.Product, error)

	// ListOrderedByInventoryDesc returns all products ordered by their total
	// stocked quantity across locations, highest first. Products with no
	// inventory rows sort last.
	ListOrderedByInventoryDesc(ctx context.Context) ([]domain.Product, error)

	// Create inserts a new product and assigns its ProductID.
	Create(ctx context.Context, p *domain.Product) error

	// Update rewrites an existing product in place.
	Update(ctx context.Context, p *domain.Product) error

	// Delete removes a product by id.
	Delete(ctx context.Context, id int64) error

	// NameExists reports whether another product already uses the name.
	// excludeID is skipped, so updates can keep their own name.
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)

	// ProductNumberExists reports whether the generated number is taken.
	ProductNumberExists(ctx context.Context, number string) (bool, error)

	ListCostHistory(ctx context.Context, productID int64) ([]domain.CostHistoryEntry, error)
	ListPriceHistory(ctx context.Context, productID int64) ([]domain.PriceHistoryEntry, error)
	ListInventory(ctx context.Context, productID int64) ([]domain.InventoryEntry, error)
	GetWorkOrderStats(ctx context.Context, productID int64) (*domain.WorkOrderStats, error)
	GetPurchaseStats(ctx context.Context, productID int64) (*domain.PurchaseStats, error)
}
