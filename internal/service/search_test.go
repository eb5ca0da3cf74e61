package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
	"github.com/kovalabs/productsearch/internal/index/memory"
)

func TestSearch_EmptyKeywordReturnsCatalog(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	catalog := []domain.Product{*sampleProduct(2, "Touring Frame"), *sampleProduct(1, "Road Frame")}
	repo.On("ListOrderedByModifiedDesc", ctx).Return(catalog, nil)

	products, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, catalog, products)
	repo.AssertExpectations(t)
}

func TestSearch_BlankKeywordReturnsCatalog(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	repo.On("ListOrderedByModifiedDesc", ctx).Return([]domain.Product{}, nil)

	products, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearch_KeywordHydratesInIndexOrder(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	p1 := sampleProduct(1, "Red Road Frame")
	p2 := sampleProduct(2, "Red Touring Frame")
	p3 := sampleProduct(3, "Blue Mountain Frame")
	for _, p := range []*domain.Product{p1, p2, p3} {
		_, err := store.Insert(ctx, domain.NewSearchDocument(p))
		require.NoError(t, err)
	}

	repo.On("GetByID", ctx, int64(1)).Return(p1, nil)
	repo.On("GetByID", ctx, int64(2)).Return(p2, nil)

	products, err := svc.Search(ctx, "red")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ProductID)
	assert.Equal(t, int64(2), products[1].ProductID)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	p := sampleProduct(707, "Sport-100 Helmet, Red")
	_, err := store.Insert(ctx, domain.NewSearchDocument(p))
	require.NoError(t, err)

	repo.On("GetByID", ctx, int64(707)).Return(p, nil)

	products, err := svc.Search(ctx, "HELM")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(707), products[0].ProductID)
}

func TestSearch_StaleDocumentSkipped(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	p1 := sampleProduct(1, "Red Road Frame")
	gone := sampleProduct(2, "Red Touring Frame")
	for _, p := range []*domain.Product{p1, gone} {
		_, err := store.Insert(ctx, domain.NewSearchDocument(p))
		require.NoError(t, err)
	}

	repo.On("GetByID", ctx, int64(1)).Return(p1, nil)
	repo.On("GetByID", ctx, int64(2)).Return(nil, apperrors.NotFound("product", int64(2)))

	products, err := svc.Search(ctx, "red")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(1), products[0].ProductID)
}

func TestSearch_NoMatches(t *testing.T) {
	repo := new(mockProductRepository)
	store := memory.New()
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	products, err := svc.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearch_IndexFailure(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockIndexStore)
	svc := NewSearchService(repo, store, newTestLogger())
	ctx := context.Background()

	store.On("FindByKeyword", ctx, "red").
		Return(nil, apperrors.StoreUnavailable("index", errors.New("es down")))

	_, err := svc.Search(ctx, "red")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}
