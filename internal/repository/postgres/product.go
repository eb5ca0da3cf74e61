package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kovalabs/productsearch/internal/database"
	"github.com/kovalabs/productsearch/internal/domain"
	apperrors "github.com/kovalabs/productsearch/internal/errors"
)

const productColumns = `product_id, name, product_number, make_flag, finished_goods_flag, color,
	safety_stock_level, reorder_point, standard_cost, list_price, size, weight,
	days_to_manufacture, product_line, class, style, product_subcategory_id,
	product_model_id, sell_start_date, sell_end_date, discontinued_date, rowguid, modified_date`

const prefixedProductColumns = `p.product_id, p.name, p.product_number, p.make_flag, p.finished_goods_flag, p.color,
	p.safety_stock_level, p.reorder_point, p.standard_cost, p.list_price, p.size, p.weight,
	p.days_to_manufacture, p.product_line, p.class, p.style, p.product_subcategory_id,
	p.product_model_id, p.sell_start_date, p.sell_end_date, p.discontinued_date, p.rowguid, p.modified_date`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE product_id = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// ListOrderedByModifiedDesc returns all products ordered by modification
// time descending. product_id descending breaks ties deterministically.
func (r *ProductRepository) ListOrderedByModifiedDesc(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY modified_date DESC, product_id DESC`, productColumns)

	products, err := r.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListBySubcategory returns the products in a subcategory.
func (r *ProductRepository) ListBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE product_subcategory_id = $1 ORDER BY product_id`, productColumns)

	products, err := r.queryProducts(ctx, query, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by subcategory: %w", err)
	}
	return products, nil
}

// ListByModel returns the products built from a model.
func (r *ProductRepository) ListByModel(ctx context.Context, modelID int64) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE product_model_id = $1 ORDER BY product_id`, productColumns)

	products, err := r.queryProducts(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("list products by model: %w", err)
	}
	return products, nil
}

// ListActive returns products whose selling window contains the current
// time. A NULL sell_end_date means the product is still on sale.
func (r *ProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products
		WHERE sell_start_date <= NOW() AND (sell_end_date IS NULL OR sell_end_date > NOW())
		ORDER BY product_id`, productColumns)

	products, err := r.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return products, nil
}

// ListOrderedByInventoryDesc returns all products ordered by their summed
// inventory quantity across locations, highest first. Products without
// inventory rows count as zero.
func (r *ProductRepository) ListOrderedByInventoryDesc(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS total_quantity
			FROM product_inventory
			GROUP BY product_id
		) pq ON pq.product_id = p.product_id
		ORDER BY COALESCE(pq.total_quantity, 0) DESC, p.product_id DESC`, prefixedProductColumns)

	products, err := r.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products by inventory: %w", err)
	}
	return products, nil
}

// queryProducts runs a query selecting productColumns and collects the rows.
func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Create inserts a new product and assigns its generated ProductID.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (name, product_number, make_flag, finished_goods_flag, color,
			safety_stock_level, reorder_point, standard_cost, list_price, size, weight,
			days_to_manufacture, product_line, class, style, product_subcategory_id,
			product_model_id, sell_start_date, sell_end_date, discontinued_date, rowguid, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING product_id`

	err := r.pool.QueryRow(ctx, query,
		p.Name,
		p.ProductNumber,
		p.MakeFlag,
		p.FinishedGoodsFlag,
		p.Color,
		p.SafetyStockLevel,
		p.ReorderPoint,
		p.StandardCost,
		p.ListPrice,
		p.Size,
		p.Weight,
		p.DaysToManufacture,
		p.ProductLine,
		p.Class,
		p.Style,
		p.ProductSubcategoryID,
		p.ProductModelID,
		p.SellStartDate,
		p.SellEndDate,
		p.DiscontinuedDate,
		p.RowGUID,
		p.ModifiedDate,
	).Scan(&p.ProductID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "name", p.Name)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// Update rewrites an existing product in place.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.ModifiedDate = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, make_flag = $2, finished_goods_flag = $3, color = $4,
		    safety_stock_level = $5, reorder_point = $6, standard_cost = $7, list_price = $8,
		    size = $9, weight = $10, days_to_manufacture = $11, product_line = $12,
		    class = $13, style = $14, product_subcategory_id = $15, product_model_id = $16,
		    sell_start_date = $17, sell_end_date = $18, discontinued_date = $19, modified_date = $20
		WHERE product_id = $21`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.MakeFlag,
		p.FinishedGoodsFlag,
		p.Color,
		p.SafetyStockLevel,
		p.ReorderPoint,
		p.StandardCost,
		p.ListPrice,
		p.Size,
		p.Weight,
		p.DaysToManufacture,
		p.ProductLine,
		p.Class,
		p.Style,
		p.ProductSubcategoryID,
		p.ProductModelID,
		p.SellStartDate,
		p.SellEndDate,
		p.DiscontinuedDate,
		p.ModifiedDate,
		p.ProductID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "name", p.Name)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ProductID)
	}
	return nil
}

// Delete removes a product by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// NameExists reports whether another product (excluding excludeID) uses the name.
func (r *ProductRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE name = $1 AND product_id <> $2)`,
		name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return exists, nil
}

// ProductNumberExists reports whether a product number is already assigned.
func (r *ProductRepository) ProductNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE product_number = $1)`,
		number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product number: %w", err)
	}
	return exists, nil
}

// ListCostHistory returns the standard cost history of a product.
func (r *ProductRepository) ListCostHistory(ctx context.Context, productID int64) ([]domain.CostHistoryEntry, error) {
	query := `
		SELECT product_id, start_date, end_date, standard_cost, modified_date
		FROM product_cost_history
		WHERE product_id = $1
		ORDER BY start_date`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list cost history: %w", err)
	}
	defer rows.Close()

	var entries []domain.CostHistoryEntry
	for rows.Next() {
		var e domain.CostHistoryEntry
		if err := rows.Scan(&e.ProductID, &e.StartDate, &e.EndDate, &e.StandardCost, &e.ModifiedDate); err != nil {
			return nil, fmt.Errorf("scan cost history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost history rows: %w", err)
	}

	if entries == nil {
		entries = []domain.CostHistoryEntry{}
	}
	return entries, nil
}

// ListPriceHistory returns the list price history of a product.
func (r *ProductRepository) ListPriceHistory(ctx context.Context, productID int64) ([]domain.PriceHistoryEntry, error) {
	query := `
		SELECT product_id, start_date, end_date, list_price, modified_date
		FROM product_list_price_history
		WHERE product_id = $1
		ORDER BY start_date`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceHistoryEntry
	for rows.Next() {
		var e domain.PriceHistoryEntry
		if err := rows.Scan(&e.ProductID, &e.StartDate, &e.EndDate, &e.ListPrice, &e.ModifiedDate); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	if entries == nil {
		entries = []domain.PriceHistoryEntry{}
	}
	return entries, nil
}

// ListInventory returns per-location stock quantities for a product.
func (r *ProductRepository) ListInventory(ctx context.Context, productID int64) ([]domain.InventoryEntry, error) {
	query := `
		SELECT l.location_id, l.name, l.cost_rate, l.availability, l.modified_date, pi.quantity
		FROM product_inventory pi
		JOIN locations l ON l.location_id = pi.location_id
		WHERE pi.product_id = $1
		ORDER BY l.location_id`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var entries []domain.InventoryEntry
	for rows.Next() {
		var e domain.InventoryEntry
		if err := rows.Scan(
			&e.Location.LocationID,
			&e.Location.Name,
			&e.Location.CostRate,
			&e.Location.Availability,
			&e.Location.ModifiedDate,
			&e.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}

	if entries == nil {
		entries = []domain.InventoryEntry{}
	}
	return entries, nil
}

// GetWorkOrderStats sums manufacturing quantities across a product's work orders.
func (r *ProductRepository) GetWorkOrderStats(ctx context.Context, productID int64) (*domain.WorkOrderStats, error) {
	query := `
		SELECT COALESCE(SUM(order_qty), 0), COALESCE(SUM(stocked_qty), 0), COALESCE(SUM(scrapped_qty), 0)
		FROM work_orders
		WHERE product_id = $1`

	var stats domain.WorkOrderStats
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&stats.OrderQuantitySum,
		&stats.StockedQuantitySum,
		&stats.ScrappedQuantitySum,
	)
	if err != nil {
		return nil, fmt.Errorf("get work order stats: %w", err)
	}
	return &stats, nil
}

// GetPurchaseStats sums purchasing quantities across a product's purchase orders.
func (r *ProductRepository) GetPurchaseStats(ctx context.Context, productID int64) (*domain.PurchaseStats, error) {
	query := `
		SELECT COALESCE(SUM(received_qty), 0), COALESCE(SUM(rejected_qty), 0), COALESCE(SUM(stocked_qty), 0)
		FROM purchase_order_details
		WHERE product_id = $1`

	var stats domain.PurchaseStats
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&stats.ReceivedQuantitySum,
		&stats.RejectedQuantitySum,
		&stats.StockedQuantitySum,
	)
	if err != nil {
		return nil, fmt.Errorf("get purchase stats: %w", err)
	}
	return &stats, nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ProductID,
		&p.Name,
		&p.ProductNumber,
		&p.MakeFlag,
		&p.FinishedGoodsFlag,
		&p.Color,
		&p.SafetyStockLevel,
		&p.ReorderPoint,
		&p.StandardCost,
		&p.ListPrice,
		&p.Size,
		&p.Weight,
		&p.DaysToManufacture,
		&p.ProductLine,
		&p.Class,
		&p.Style,
		&p.ProductSubcategoryID,
		&p.ProductModelID,
		&p.SellStartDate,
		&p.SellEndDate,
		&p.DiscontinuedDate,
		&p.RowGUID,
		&p.ModifiedDate,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
