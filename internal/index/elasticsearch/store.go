package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
)

// Store is an Elasticsearch-backed implementation of the index.Store
// interface. Writes use refresh=true so the engine's compare-then-write
// reads its own writes.
type Store struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse decodes Elasticsearch search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.SearchDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esErrorResponse decodes Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an Elasticsearch store connected to the given URL and ensures
// the index exists. If indexName is empty, DefaultIndexName is used.
func New(esURL, indexName string, logger *slog.Logger) (*Store, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	s := &Store{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}

	if err := s.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}

	return s, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex creates the search index with its mapping if it does not exist.
func (s *Store) ensureIndex() error {
	existsRes, err := s.client.Indices.Exists([]string{s.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	exists := existsRes.StatusCode == 200
	_ = existsRes.Body.Close()
	if exists {
		return nil
	}

	res, err := s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Info("elasticsearch index created", "index", s.indexName)
	return nil
}

// FindByProductID returns the document joined to the given product.
func (s *Store) FindByProductID(ctx context.Context, productID int64) (*domain.SearchDocument, error) {
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"product_id": productID},
		},
		"size": 1,
	}

	docs, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &docs[0], nil
}

// Insert stores a new document, assigning a fresh document key.
func (s *Store) Insert(ctx context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error) {
	stored := *doc
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch insert: marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.indexName,
		bytes.NewReader(data),
		s.client.Index.WithDocumentID(stored.ID),
		s.client.Index.WithRefresh("true"),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.StoreUnavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch insert: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("indexed search document",
		"product_id", stored.ProductID,
		"document_id", stored.ID,
	)
	return &stored, nil
}

// UpdateFields rewrites the document's name and keys without changing its key.
func (s *Store) UpdateFields(ctx context.Context, productID int64, productName string, searchKeys []string) error {
	existing, err := s.FindByProductID(ctx, productID)
	if err != nil {
		return err
	}

	body := map[string]any{
		"doc": map[string]any{
			"product_name": productName,
			"search_keys":  searchKeys,
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("elasticsearch update: marshal body: %w", err)
	}

	res, err := s.client.Update(
		s.indexName,
		existing.ID,
		bytes.NewReader(data),
		s.client.Update.WithRefresh("true"),
		s.client.Update.WithContext(ctx),
	)
	if err != nil {
		return apperrors.StoreUnavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch update: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("updated search document",
		"product_id", productID,
		"document_id", existing.ID,
	)
	return nil
}

// DeleteByProductID removes the document for the given product.
func (s *Store) DeleteByProductID(ctx context.Context, productID int64) (bool, error) {
	existing, err := s.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	res, err := s.client.Delete(
		s.indexName,
		existing.ID,
		s.client.Delete.WithRefresh("true"),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return false, apperrors.StoreUnavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	// 404 means a concurrent delete won the race.
	if res.StatusCode == 404 {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("elasticsearch delete: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("deleted search document", "product_id", productID)
	return true, nil
}

// FindByKeyword returns documents with any search key containing the
// keyword, case-insensitively, ordered by product id for determinism.
func (s *Store) FindByKeyword(ctx context.Context, keyword string) ([]domain.SearchDocument, error) {
	query := map[string]any{
		"query": map[string]any{
			"wildcard": map[string]any{
				"search_keys": map[string]any{
					"value":            "*" + escapeWildcard(keyword) + "*",
					"case_insensitive": true,
				},
			},
		},
		"sort": []any{
			map[string]any{"product_id": "asc"},
		},
		"size": 10000,
	}

	return s.search(ctx, query)
}

// DeleteIndex removes the entire index. Intended for tests and admin use.
func (s *Store) DeleteIndex(ctx context.Context) error {
	res, err := s.client.Indices.Delete(
		[]string{s.indexName},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return apperrors.StoreUnavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete index: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// search executes a query and decodes the matching documents.
func (s *Store) search(ctx context.Context, query map[string]any) ([]domain.SearchDocument, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.StoreUnavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	docs := make([]domain.SearchDocument, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// decodeError renders an Elasticsearch error body for wrapping.
func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return "unexpected status " + status
}

// escapeWildcard escapes the wildcard metacharacters in a user keyword so
// containment matching stays literal.
func escapeWildcard(keyword string) string {
	keyword = strings.ReplaceAll(keyword, `\`, `\\`)
	keyword = strings.ReplaceAll(keyword, "*", `\*`)
	keyword = strings.ReplaceAll(keyword, "?", `\?`)
	return keyword
}
