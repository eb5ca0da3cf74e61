package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kovalabs/productsearch/internal/domain"
	"github.com/kovalabs/productsearch/internal/httputil"
	"github.com/kovalabs/productsearch/internal/service"
	"github.com/kovalabs/productsearch/internal/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name                 string    `json:"name" validate:"required,min=1,max=200"`
	MakeFlag             bool      `json:"make_flag"`
	FinishedGoodsFlag    bool      `json:"finished_goods_flag"`
	Color                *string   `json:"color" validate:"omitempty,max=15"`
	SafetyStockLevel     int       `json:"safety_stock_level" validate:"gte=0"`
	ReorderPoint         int       `json:"reorder_point" validate:"gte=0"`
	StandardCost         float64   `json:"standard_cost" validate:"gte=0"`
	ListPrice            float64   `json:"list_price" validate:"gte=0"`
	Size                 *string   `json:"size" validate:"omitempty,max=5"`
	Weight               *float64  `json:"weight" validate:"omitempty,gte=0"`
	DaysToManufacture    int       `json:"days_to_manufacture" validate:"gte=0"`
	ProductLine          *string   `json:"product_line" validate:"omitempty,oneof=R M T S"`
	Class                *string   `json:"class" validate:"omitempty,oneof=H M L"`
	Style                *string   `json:"style" validate:"omitempty,oneof=W M U"`
	ProductSubcategoryID *int64    `json:"product_subcategory_id" validate:"omitempty,gte=1"`
	ProductModelID       *int64    `json:"product_model_id" validate:"omitempty,gte=1"`
	SellStartDate        time.Time `json:"sell_start_date" validate:"required"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// All fields are optional; absent fields are left unchanged.
type UpdateProductRequest struct {
	Name              *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Color             *string    `json:"color" validate:"omitempty,max=15"`
	SafetyStockLevel  *int       `json:"safety_stock_level" validate:"omitempty,gte=0"`
	ReorderPoint      *int       `json:"reorder_point" validate:"omitempty,gte=0"`
	StandardCost      *float64   `json:"standard_cost" validate:"omitempty,gte=0"`
	ListPrice         *float64   `json:"list_price" validate:"omitempty,gte=0"`
	Size              *string    `json:"size" validate:"omitempty,max=5"`
	Weight            *float64   `json:"weight" validate:"omitempty,gte=0"`
	DaysToManufacture *int       `json:"days_to_manufacture" validate:"omitempty,gte=0"`
	ProductLine       *string    `json:"product_line" validate:"omitempty,oneof=R M T S"`
	Class             *string    `json:"class" validate:"omitempty,oneof=H M L"`
	Style             *string    `json:"style" validate:"omitempty,oneof=W M U"`
	SellEndDate       *time.Time `json:"sell_end_date"`
	DiscontinuedDate  *time.Time `json:"discontinued_date"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products. The optional "by" query
// parameter selects a filtered or re-sorted view: by=subcat and by=model
// take the target ID in the "id" parameter, by=active keeps only products
// currently on sale, and by=quantity sorts by total stocked inventory.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)

	switch by := r.URL.Query().Get("by"); by {
	case "subcat":
		id, ok := httputil.ParseID(w, r.URL.Query().Get("id"))
		if !ok {
			return
		}
		products, err = h.service.ListProductsBySubcategory(r.Context(), id)
	case "model":
		id, ok := httputil.ParseID(w, r.URL.Query().Get("id"))
		if !ok {
			return
		}
		products, err = h.service.ListProductsByModel(r.Context(), id)
	case "active":
		products, err = h.service.ListActiveProducts(r.Context())
	case "quantity":
		products, err = h.service.ListProductsByInventory(r.Context())
	case "":
		products, err = h.service.ListProducts(r.Context())
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "unknown filter: " + by},
		})
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateProductInput{
		Name:                 req.Name,
		MakeFlag:             req.MakeFlag,
		FinishedGoodsFlag:    req.FinishedGoodsFlag,
		Color:                req.Color,
		SafetyStockLevel:     req.SafetyStockLevel,
		ReorderPoint:         req.ReorderPoint,
		StandardCost:         req.StandardCost,
		ListPrice:            req.ListPrice,
		Size:                 req.Size,
		Weight:               req.Weight,
		DaysToManufacture:    req.DaysToManufacture,
		ProductLine:          req.ProductLine,
		Class:                req.Class,
		Style:                req.Style,
		ProductSubcategoryID: req.ProductSubcategoryID,
		ProductModelID:       req.ProductModelID,
		SellStartDate:        req.SellStartDate,
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateProductInput{
		Name:              req.Name,
		Color:             req.Color,
		SafetyStockLevel:  req.SafetyStockLevel,
		ReorderPoint:      req.ReorderPoint,
		StandardCost:      req.StandardCost,
		ListPrice:         req.ListPrice,
		Size:              req.Size,
		Weight:            req.Weight,
		DaysToManufacture: req.DaysToManufacture,
		ProductLine:       req.ProductLine,
		Class:             req.Class,
		Style:             req.Style,
		SellEndDate:       req.SellEndDate,
		DiscontinuedDate:  req.DiscontinuedDate,
	}

	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCostHistory handles GET /api/v1/products/{id}/cost-history
func (h *ProductHandler) GetCostHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	entries, err := h.service.GetCostHistory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

// GetPriceHistory handles GET /api/v1/products/{id}/price-history
func (h *ProductHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	entries, err := h.service.GetPriceHistory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

// GetInventory handles GET /api/v1/products/{id}/inventory
func (h *ProductHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	entries, err := h.service.GetInventory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

// GetWorkOrderStats handles GET /api/v1/products/{id}/work-order-stats
func (h *ProductHandler) GetWorkOrderStats(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	stats, err := h.service.GetWorkOrderStats(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// GetPurchaseStats handles GET /api/v1/products/{id}/purchase-stats
func (h *ProductHandler) GetPurchaseStats(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	stats, err := h.service.GetPurchaseStats(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
