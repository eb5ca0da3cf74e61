package index

import (
	"context"

	"github.com/kovalabs/productsearch/internal/domain"
)

// Store is the index store adapter for product search documents.
// Implementations may use Elasticsearch, Redis, or in-memory storage.
// The sync engine is the only writer; the search façade only reads.
type Store interface {
	// FindByProductID returns the document joined to the given canonical
	// product, or apperrors.ErrNotFound if none exists.
	FindByProductID(ctx context.Context, productID int64) (*domain.SearchDocument, error)

	// Insert stores a new document, assigning its document key. At most one
	// document may exist per ProductID.
	Insert(ctx context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error)

	// UpdateFields rewrites a document's name and search keys in place.
	// The document key is never touched.
	UpdateFields(ctx context.Context, productID int64, productName string, searchKeys []string) error

	// DeleteByProductID removes the document for the given product.
	// Returns false if nothing was deleted.
	DeleteByProductID(ctx context.Context, productID int64) (bool, error)

	// FindByKeyword returns every document with at least one SearchKeys
	// entry containing the keyword, case-insensitively.
	FindByKeyword(ctx context.Context, keyword string) ([]domain.SearchDocument, error)
}
