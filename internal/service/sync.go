package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
	"github.com/kovalabs/productsearch/internal/index"
	"github.com/kovalabs/productsearch/internal/repository"
)

// SyncOutcome reports what a single product sync did to the index.
type SyncOutcome string

const (
	OutcomeCreated   SyncOutcome = "created"
	OutcomeUpdated   SyncOutcome = "updated"
	OutcomeUnchanged SyncOutcome = "unchanged"
	outcomeFailed    SyncOutcome = "failed"
)

// defaultSyncConcurrency bounds parallel index writes during a full sync.
const defaultSyncConcurrency = 8

// SyncFailure records one product that could not be synced during a full run.
type SyncFailure struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// SyncReport summarizes a full catalog sync. Counts partition Total:
// Total = Created + Updated + Unchanged + Failed.
type SyncReport struct {
	Total     int           `json:"total"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"-"`
	Failures  []SyncFailure `json:"failures,omitempty"`
}

// SyncEngine keeps the search index consistent with the canonical product
// store. It is the only writer to the index. Writes are compare-then-write:
// an index document is only touched when the derived name or search keys
// actually differ.
type SyncEngine struct {
	repo        repository.ProductRepository
	store       index.Store
	logger      *slog.Logger
	locks       *keyedMutex
	concurrency int
}

// NewSyncEngine creates a sync engine over the given canonical repository
// and index store.
func NewSyncEngine(repo repository.ProductRepository, store index.Store, logger *slog.Logger) *SyncEngine {
	return &SyncEngine{
		repo:        repo,
		store:       store,
		logger:      logger,
		locks:       newKeyedMutex(),
		concurrency: defaultSyncConcurrency,
	}
}

// SyncOne reconciles the index document for a single product. It returns
// the canonical not-found error when the product does not exist.
func (e *SyncEngine) SyncOne(ctx context.Context, productID int64) (SyncOutcome, error) {
	unlock := e.locks.lock(productID)
	defer unlock()

	product, err := e.repo.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}

	desired := domain.NewSearchDocument(product)

	existing, err := e.store.FindByProductID(ctx, productID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		if _, err := e.store.Insert(ctx, desired); err != nil {
			return "", fmt.Errorf("insert document for product %d: %w", productID, err)
		}
		syncOutcomesTotal.WithLabelValues(string(OutcomeCreated)).Inc()
		e.logger.InfoContext(ctx, "search document created", "product_id", productID)
		return OutcomeCreated, nil

	case err != nil:
		return "", fmt.Errorf("find document for product %d: %w", productID, err)
	}

	if !desired.ChangedFrom(existing) {
		syncOutcomesTotal.WithLabelValues(string(OutcomeUnchanged)).Inc()
		return OutcomeUnchanged, nil
	}

	if err := e.store.UpdateFields(ctx, productID, desired.ProductName, desired.SearchKeys); err != nil {
		return "", fmt.Errorf("update document for product %d: %w", productID, err)
	}
	syncOutcomesTotal.WithLabelValues(string(OutcomeUpdated)).Inc()
	e.logger.InfoContext(ctx, "search document updated", "product_id", productID)
	return OutcomeUpdated, nil
}

// SyncAll reconciles the index for the entire catalog, most recently
// modified products first. One failing product never aborts the run; it is
// reported in the returned SyncReport instead.
func (e *SyncEngine) SyncAll(ctx context.Context) (*SyncReport, error) {
	started := time.Now()

	products, err := e.repo.ListOrderedByModifiedDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products for sync: %w", err)
	}

	outcomes := make([]SyncOutcome, len(products))
	failures := make([]error, len(products))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.concurrency)
	for i, p := range products {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, productID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := e.SyncOne(ctx, productID)
			if err != nil {
				outcomes[i] = outcomeFailed
				failures[i] = err
				return
			}
			outcomes[i] = outcome
		}(i, p.ProductID)
	}
	wg.Wait()

	report := &SyncReport{Total: len(products), Duration: time.Since(started)}
	for i, outcome := range outcomes {
		switch outcome {
		case OutcomeCreated:
			report.Created++
		case OutcomeUpdated:
			report.Updated++
		case OutcomeUnchanged:
			report.Unchanged++
		case outcomeFailed:
			report.Failed++
			report.Failures = append(report.Failures, SyncFailure{
				ProductID: products[i].ProductID,
				Error:     failures[i].Error(),
			})
			syncOutcomesTotal.WithLabelValues(string(outcomeFailed)).Inc()
			e.logger.ErrorContext(ctx, "product sync failed",
				"product_id", products[i].ProductID,
				"error", failures[i].Error(),
			)
		}
	}

	fullSyncDuration.Observe(report.Duration.Seconds())
	e.logger.InfoContext(ctx, "catalog sync finished",
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"duration", report.Duration.String(),
	)
	return report, nil
}

// RemoveOne deletes the index document for a product. Returns a not-found
// error when no document exists for that product.
func (e *SyncEngine) RemoveOne(ctx context.Context, productID int64) error {
	unlock := e.locks.lock(productID)
	defer unlock()

	deleted, err := e.store.DeleteByProductID(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete document for product %d: %w", productID, err)
	}
	if !deleted {
		return apperrors.NotFound("search document", productID)
	}

	syncRemovalsTotal.Inc()
	e.logger.InfoContext(ctx, "search document removed", "product_id", productID)
	return nil
}

// keyedMutex serializes sync operations per product so concurrent syncs of
// the same product cannot interleave their read-compare-write sequences.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*lockEntry)}
}

func (k *keyedMutex) lock(id int64) (unlock func()) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
