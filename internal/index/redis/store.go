package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
)

const (
	keyPrefix = "search:doc:"
	scanCount = 256
)

// Store is a Redis-backed implementation of the index.Store interface.
// Each document is a JSON value keyed by product id. Keyword matching is
// done client-side over the scanned key space, which is acceptable for the
// catalog sizes this index holds.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Redis index store on top of an established client.
func New(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

func docKey(productID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, productID)
}

// FindByProductID returns the document joined to the given product.
func (s *Store) FindByProductID(ctx context.Context, productID int64) (*domain.SearchDocument, error) {
	data, err := s.client.Get(ctx, docKey(productID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.StoreUnavailable("index", err)
	}

	var doc domain.SearchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("redis index: unmarshal document %d: %w", productID, err)
	}
	return &doc, nil
}

// Insert stores a new document, assigning a fresh document key.
func (s *Store) Insert(ctx context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error) {
	stored := *doc
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("redis index: marshal document: %w", err)
	}

	if err := s.client.Set(ctx, docKey(stored.ProductID), data, 0).Err(); err != nil {
		return nil, apperrors.StoreUnavailable("index", err)
	}

	s.logger.Debug("indexed search document",
		"product_id", stored.ProductID,
		"document_id", stored.ID,
	)
	return &stored, nil
}

// UpdateFields rewrites the document's name and keys without changing its key.
func (s *Store) UpdateFields(ctx context.Context, productID int64, productName string, searchKeys []string) error {
	doc, err := s.FindByProductID(ctx, productID)
	if err != nil {
		return err
	}

	doc.ProductName = productName
	doc.SearchKeys = searchKeys

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("redis index: marshal document: %w", err)
	}

	if err := s.client.Set(ctx, docKey(productID), data, 0).Err(); err != nil {
		return apperrors.StoreUnavailable("index", err)
	}
	return nil
}

// DeleteByProductID removes the document for the given product.
func (s *Store) DeleteByProductID(ctx context.Context, productID int64) (bool, error) {
	deleted, err := s.client.Del(ctx, docKey(productID)).Result()
	if err != nil {
		return false, apperrors.StoreUnavailable("index", err)
	}
	return deleted > 0, nil
}

// FindByKeyword returns documents with any search key containing the
// keyword, case-insensitively, ordered by product id for determinism.
func (s *Store) FindByKeyword(ctx context.Context, keyword string) ([]domain.SearchDocument, error) {
	keywordLower := strings.ToLower(keyword)

	matched := make([]domain.SearchDocument, 0)

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Deleted between SCAN and GET.
			if err == redis.Nil {
				continue
			}
			return nil, apperrors.StoreUnavailable("index", err)
		}

		var doc domain.SearchDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn("skipping malformed search document", "key", iter.Val(), "error", err)
			continue
		}

		for _, key := range doc.SearchKeys {
			if strings.Contains(strings.ToLower(key), keywordLower) {
				matched = append(matched, doc)
				break
			}
		}
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.StoreUnavailable("index", err)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ProductID < matched[j].ProductID
	})
	return matched, nil
}
