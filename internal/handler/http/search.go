package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kovalabs/productsearch/internal/httputil"
	"github.com/kovalabs/productsearch/internal/service"
)

// SearchHandler handles search and resync endpoints.
type SearchHandler struct {
	search *service.SearchService
	sync   *service.SyncEngine
	logger *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(search *service.SearchService, sync *service.SyncEngine, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		sync:   sync,
		logger: logger,
	}
}

// Search handles GET /api/v1/products/search?keyword=
// An empty keyword returns the full catalog.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	products, err := h.search.Search(r.Context(), keyword)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// ResyncAll handles POST /api/v1/products/resync and reconciles the whole
// index against the canonical store.
func (h *SearchHandler) ResyncAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.sync.SyncAll(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// ResyncOne handles POST /api/v1/products/{id}/resync and reconciles a
// single product's index document.
func (h *SearchHandler) ResyncOne(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	outcome, err := h.sync.SyncOne(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"product_id": id,
		"outcome":    outcome,
	}})
}
