package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kovalabs/productsearch/internal/config"
	"github.com/kovalabs/productsearch/internal/database"
	"github.com/kovalabs/productsearch/internal/event"
	handler "github.com/kovalabs/productsearch/internal/handler/http"
	"github.com/kovalabs/productsearch/internal/health"
	"github.com/kovalabs/productsearch/internal/index"
	esindex "github.com/kovalabs/productsearch/internal/index/elasticsearch"
	"github.com/kovalabs/productsearch/internal/index/memory"
	redisindex "github.com/kovalabs/productsearch/internal/index/redis"
	"github.com/kovalabs/productsearch/internal/repository/postgres"
	"github.com/kovalabs/productsearch/internal/service"
)

// App wires together all dependencies and runs the service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *goredis.Client
	producer   *event.Producer
	bootstrap  *service.Bootstrap
	httpServer *http.Server
}

// NewApp creates the application, connecting to every configured backend.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Canonical store.
	pgCfg := &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPassword,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSLMode,
		MaxConns:        cfg.PostgresMaxConns,
		MinConns:        cfg.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	repo := postgres.NewProductRepository(pool)
	logger.Info("postgres connected",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	app := &App{cfg: cfg, logger: logger, pool: pool}

	// Index store, selected by configuration.
	var store index.Store
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	switch cfg.IndexEngine {
	case config.EngineElasticsearch:
		esStore, err := esindex.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch index: %w", err)
		}
		healthHandler.Register("elasticsearch", esStore.Ping)
		store = esStore
		logger.Info("elasticsearch index store initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)

	case config.EngineRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis index: %w", err)
		}
		app.redis = client
		healthHandler.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		store = redisindex.New(client, logger)
		logger.Info("redis index store initialized",
			slog.String("host", cfg.RedisHost),
		)

	default:
		store = memory.New()
		logger.Info("in-memory index store initialized")
	}

	// The index backend sits behind a circuit breaker so a failing index
	// cannot stall canonical request paths.
	store = index.NewBreakerStore(store, index.DefaultBreakerConfig(cfg.IndexEngine), logger)

	// Product lifecycle events.
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		producer := event.NewProducer(event.DefaultProducerConfig(cfg.KafkaBrokers, cfg.ServiceName), logger)
		app.producer = producer
		publisher = producer
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Service layer.
	syncEngine := service.NewSyncEngine(repo, store, logger)
	productService := service.NewProductService(repo, syncEngine, publisher, cfg.ServiceName, logger)
	searchService := service.NewSearchService(repo, store, logger)
	app.bootstrap = service.NewBootstrap(syncEngine, logger)

	// HTTP server.
	router := handler.NewRouter(cfg.ServiceName, productService, searchService, syncEngine, healthHandler, logger)
	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP server and the bootstrap sync, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	// The bootstrap sync runs in the background; the service takes traffic
	// while the index catches up.
	go a.bootstrap.Run(ctx)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
