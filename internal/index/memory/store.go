package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
)

// Store is an in-memory implementation of the index.Store interface.
// Keyword matches are returned in insertion order so that results are
// deterministic. Thread-safe via sync.RWMutex.
type Store struct {
	mu    sync.RWMutex
	docs  map[int64]domain.SearchDocument
	order []int64
}

// New creates an empty in-memory index store.
func New() *Store {
	return &Store{
		docs: make(map[int64]domain.SearchDocument),
	}
}

// FindByProductID returns the document for the given product.
func (s *Store) FindByProductID(_ context.Context, productID int64) (*domain.SearchDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[productID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := cloneDocument(doc)
	return &copied, nil
}

// Insert stores a new document, assigning a fresh document key.
func (s *Store) Insert(_ context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneDocument(*doc)
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	if _, exists := s.docs[stored.ProductID]; !exists {
		s.order = append(s.order, stored.ProductID)
	}
	s.docs[stored.ProductID] = stored

	result := cloneDocument(stored)
	return &result, nil
}

// UpdateFields rewrites the document's name and keys, keeping its key.
func (s *Store) UpdateFields(_ context.Context, productID int64, productName string, searchKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[productID]
	if !ok {
		return apperrors.ErrNotFound
	}

	doc.ProductName = productName
	doc.SearchKeys = append([]string(nil), searchKeys...)
	s.docs[productID] = doc
	return nil
}

// DeleteByProductID removes the document for the given product.
func (s *Store) DeleteByProductID(_ context.Context, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[productID]; !ok {
		return false, nil
	}

	delete(s.docs, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// FindByKeyword returns documents with any key containing the keyword,
// case-insensitively, in insertion order.
func (s *Store) FindByKeyword(_ context.Context, keyword string) ([]domain.SearchDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywordLower := strings.ToLower(keyword)

	matched := make([]domain.SearchDocument, 0)
	for _, id := range s.order {
		doc := s.docs[id]
		for _, key := range doc.SearchKeys {
			if strings.Contains(strings.ToLower(key), keywordLower) {
				matched = append(matched, cloneDocument(doc))
				break
			}
		}
	}
	return matched, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func cloneDocument(doc domain.SearchDocument) domain.SearchDocument {
	doc.SearchKeys = append([]string(nil), doc.SearchKeys...)
	return doc
}
