package service

import (
	"context"
	"log/slog"
	"sync"
)

// Bootstrap runs the initial full catalog sync exactly once per process.
// A failed bootstrap is logged and left for the next manual resync; it
// never prevents the service from starting.
type Bootstrap struct {
	engine *SyncEngine
	logger *slog.Logger
	once   sync.Once
}

// NewBootstrap creates a bootstrap coordinator for the given sync engine.
func NewBootstrap(engine *SyncEngine, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{
		engine: engine,
		logger: logger,
	}
}

// Run performs the one-time startup sync. Subsequent calls are no-ops, so
// it is safe to invoke from multiple startup paths.
func (b *Bootstrap) Run(ctx context.Context) {
	b.once.Do(func() {
		b.logger.InfoContext(ctx, "bootstrap sync starting")

		report, err := b.engine.SyncAll(ctx)
		if err != nil {
			b.logger.ErrorContext(ctx, "bootstrap sync failed",
				slog.String("error", err.Error()),
			)
			return
		}

		b.logger.InfoContext(ctx, "bootstrap sync finished",
			slog.Int("total", report.Total),
			slog.Int("created", report.Created),
			slog.Int("updated", report.Updated),
			slog.Int("unchanged", report.Unchanged),
			slog.Int("failed", report.Failed),
			slog.String("duration", report.Duration.String()),
		)
	})
}
