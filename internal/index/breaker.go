package index

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
)

// BreakerConfig holds circuit breaker settings for an index store.
type BreakerConfig struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the maximum number of requests allowed in the
	// half-open state. 0 means 1 request is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing
	// internal counts. 0 means counts are never cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio is the ratio of failures to total requests that trips
	// the breaker.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the
	// failure ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns sensible defaults for an index store breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var indexBreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "index_store_circuit_breaker_state",
		Help: "Current state of the index store circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(indexBreakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ErrCircuitOpen is returned when the breaker is open and rejects the call.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerStore wraps a Store with circuit breaker protection so a failing
// index backend cannot stall canonical-store request paths. Not-found
// results are business outcomes, not backend failures, and never count
// toward tripping the breaker.
type BreakerStore struct {
	store   Store
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
	name    string
}

// NewBreakerStore wraps an existing index store with a circuit breaker.
func NewBreakerStore(store Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("index store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			indexBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	indexBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// State returns the current state of the circuit breaker.
func (b *BreakerStore) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerStore) FindByProductID(ctx context.Context, productID int64) (*domain.SearchDocument, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.store.FindByProductID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SearchDocument), nil
}

func (b *BreakerStore) Insert(ctx context.Context, doc *domain.SearchDocument) (*domain.SearchDocument, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.store.Insert(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SearchDocument), nil
}

func (b *BreakerStore) UpdateFields(ctx context.Context, productID int64, productName string, searchKeys []string) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.store.UpdateFields(ctx, productID, productName, searchKeys)
	})
	return err
}

func (b *BreakerStore) DeleteByProductID(ctx context.Context, productID int64) (bool, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.store.DeleteByProductID(ctx, productID)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (b *BreakerStore) FindByKeyword(ctx context.Context, keyword string) ([]domain.SearchDocument, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.store.FindByKeyword(ctx, keyword)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.SearchDocument), nil
}
