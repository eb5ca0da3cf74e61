package domain

import "time"

// Product is the canonical product record. The relational store is the
// system of record; the search index only ever holds a projection of it.
type Product struct {
	ProductID            int64      `json:"product_id"`
	Name                 string     `json:"name"`
	ProductNumber        string     `json:"product_number"`
	MakeFlag             bool       `json:"make_flag"`
	FinishedGoodsFlag    bool       `json:"finished_goods_flag"`
	Color                *string    `json:"color,omitempty"`
	SafetyStockLevel     int        `json:"safety_stock_level"`
	ReorderPoint         int        `json:"reorder_point"`
	StandardCost         float64    `json:"standard_cost"`
	ListPrice            float64    `json:"list_price"`
	Size                 *string    `json:"size,omitempty"`
	Weight               *float64   `json:"weight,omitempty"`
	DaysToManufacture    int        `json:"days_to_manufacture"`
	ProductLine          *string    `json:"product_line,omitempty"`
	Class                *string    `json:"class,omitempty"`
	Style                *string    `json:"style,omitempty"`
	ProductSubcategoryID *int64     `json:"product_subcategory_id,omitempty"`
	ProductModelID       *int64     `json:"product_model_id,omitempty"`
	SellStartDate        time.Time  `json:"sell_start_date"`
	SellEndDate          *time.Time `json:"sell_end_date,omitempty"`
	DiscontinuedDate     *time.Time `json:"discontinued_date,omitempty"`
	RowGUID              string     `json:"rowguid"`
	ModifiedDate         time.Time  `json:"modified_date"`
}

// CostHistoryEntry is one row of a product's standard cost history.
type CostHistoryEntry struct {
	ProductID    int64      `json:"product_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	StandardCost float64    `json:"standard_cost"`
	ModifiedDate time.Time  `json:"modified_date"`
}

// PriceHistoryEntry is one row of a product's list price history.
type PriceHistoryEntry struct {
	ProductID    int64      `json:"product_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	ListPrice    float64    `json:"list_price"`
	ModifiedDate time.Time  `json:"modified_date"`
}

// Location is a storage location referenced by product inventory.
type Location struct {
	LocationID   int64     `json:"location_id"`
	Name         string    `json:"name"`
	CostRate     float64   `json:"cost_rate"`
	Availability float64   `json:"availability"`
	ModifiedDate time.Time `json:"modified_date"`
}

// InventoryEntry is a product's stock quantity at one location.
type InventoryEntry struct {
	Location Location `json:"location"`
	Quantity int      `json:"quantity"`
}

// WorkOrderStats aggregates manufacturing quantities for a product.
type WorkOrderStats struct {
	OrderQuantitySum    int64 `json:"order_quantity_sum"`
	StockedQuantitySum  int64 `json:"stocked_quantity_sum"`
	ScrappedQuantitySum int64 `json:"scrapped_quantity_sum"`
}

// PurchaseStats aggregates purchasing quantities for a product.
type PurchaseStats struct {
	ReceivedQuantitySum int64 `json:"received_quantity_sum"`
	RejectedQuantitySum int64 `json:"rejected_quantity_sum"`
	StockedQuantitySum  int64 `json:"stocked_quantity_sum"`
}
