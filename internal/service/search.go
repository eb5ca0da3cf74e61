package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
	"github.com/kovalabs/productsearch/internal/index"
	"github.com/kovalabs/productsearch/internal/repository"
)

// SearchService answers keyword searches over the product catalog. The
// index narrows candidates; the canonical store is always re-read so search
// results never serve stale product data.
type SearchService struct {
	repo   repository.ProductRepository
	store  index.Store
	logger *slog.Logger
}

// NewSearchService creates a search service over the given canonical
// repository and index store.
func NewSearchService(repo repository.ProductRepository, store index.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// Search returns canonical products matching the keyword. An empty keyword
// returns the whole catalog, most recently modified first. Otherwise the
// index is consulted for documents whose search keys contain the keyword
// case-insensitively, and each hit is re-hydrated from the canonical store
// in index order. Index hits with no canonical product are skipped.
func (s *SearchService) Search(ctx context.Context, keyword string) ([]domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		products, err := s.repo.ListOrderedByModifiedDesc(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return products, nil
	}

	docs, err := s.store.FindByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search index for %q: %w", keyword, err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := s.repo.GetByID(ctx, doc.ProductID)
		if err != nil {
			// A stale document whose product was deleted is not an error
			// for the caller; the next sync will clean it up.
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.WarnContext(ctx, "stale search document skipped",
					"product_id", doc.ProductID,
					"document_id", doc.ID,
				)
				continue
			}
			return nil, fmt.Errorf("hydrate product %d: %w", doc.ProductID, err)
		}
		products = append(products, *product)
	}
	return products, nil
}
