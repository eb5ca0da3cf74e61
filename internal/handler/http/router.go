package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kovalabs/productsearch/internal/health"
	"github.com/kovalabs/productsearch/internal/middleware"
	"github.com/kovalabs/productsearch/internal/service"
)

// NewRouter creates a chi router with all service routes registered.
func NewRouter(
	serviceName string,
	productService *service.ProductService,
	searchService *service.SearchService,
	syncEngine *service.SyncEngine,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(productService, logger)
	searchHandler := NewSearchHandler(searchService, syncEngine, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.CreateProduct)
		r.Get("/search", searchHandler.Search)
		r.Post("/resync", searchHandler.ResyncAll)

		r.Get("/{id}", productHandler.GetProduct)
		r.Put("/{id}", productHandler.UpdateProduct)
		r.Delete("/{id}", productHandler.DeleteProduct)
		r.Post("/{id}/resync", searchHandler.ResyncOne)

		r.Get("/{id}/cost-history", productHandler.GetCostHistory)
		r.Get("/{id}/price-history", productHandler.GetPriceHistory)
		r.Get("/{id}/inventory", productHandler.GetInventory)
		r.Get("/{id}/work-order-stats", productHandler.GetWorkOrderStats)
		r.Get("/{id}/purchase-stats", productHandler.GetPurchaseStats)
	})

	return r
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
