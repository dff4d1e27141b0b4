package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sasabot/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, business_id, name, price, stock, category, description,
	brand, warranty, sku, status, created_at, updated_at`

// productRepository implements ProductRepository using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.Name, &p.Price, &p.Stock, &p.Category,
		&p.Description, &p.Brand, &p.Warranty, &p.SKU, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByBusiness retrieves all products for a business in creation order.
func (r *productRepository) GetByBusiness(ctx context.Context, businessID string, activeOnly bool) ([]model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE business_id = $1
		ORDER BY created_at, id
	`, productColumns)
	if activeOnly {
		query = fmt.Sprintf(`
			SELECT %s
			FROM products
			WHERE business_id = $1 AND status = 'active'
			ORDER BY created_at, id
		`, productColumns)
	}

	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		r.logger.Error().Err(err).Str("business_id", businessID).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// FindByName returns the first active product of the business whose name
// contains the term, ignoring case. Creation order decides ties, which
// preserves the store's documented first-match policy.
func (r *productRepository) FindByName(ctx context.Context, businessID, term string) (*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE business_id = $1 AND status = 'active' AND name ILIKE '%%' || $2 || '%%'
		ORDER BY created_at, id
		LIMIT 1
	`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, businessID, escapeLike(term)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("term", term).Msg("failed to search products by name")
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}

	return p, nil
}

// FindByExactName returns the business's product matching the name
// exactly, ignoring case, or nil.
func (r *productRepository) FindByExactName(ctx context.Context, businessID, name string) (*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE business_id = $1 AND LOWER(name) = LOWER($2)
		LIMIT 1
	`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, businessID, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("name", name).Msg("failed to query product by exact name")
		return nil, fmt.Errorf("failed to query product by exact name: %w", err)
	}

	return p, nil
}

// NextID returns the next sequential numeric product ID.
func (r *productRepository) NextID(ctx context.Context) (string, error) {
	query := `
		SELECT COALESCE(MAX(id::int), 0) + 1
		FROM products
		WHERE id ~ '^[0-9]+$'
	`

	var next int
	if err := r.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		r.logger.Error().Err(err).Msg("failed to compute next product ID")
		return "", fmt.Errorf("failed to compute next product ID: %w", err)
	}

	return strconv.Itoa(next), nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, business_id, name, price, stock, category,
			description, brand, warranty, sku, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		product.ID, product.BusinessID, product.Name, product.Price, product.Stock,
		product.Category, product.Description, product.Brand, product.Warranty,
		product.SKU, product.Status, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().
		Str("product_id", product.ID).
		Str("business_id", product.BusinessID).
		Msg("product created")

	return nil
}

// updatableColumns are the product columns a partial update may touch.
var updatableColumns = map[string]bool{
	"name":        true,
	"price":       true,
	"stock":       true,
	"category":    true,
	"description": true,
	"brand":       true,
	"warranty":    true,
	"status":      true,
}

// UpdateFields applies a partial update. Keys are column names; unknown
// keys are rejected to keep the query assembly safe.
func (r *productRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, fmt.Errorf("no fields to update")
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)

	for column, value := range fields {
		if !updatableColumns[column] {
			return false, fmt.Errorf("column %q is not updatable", column)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $1`, strings.Join(setClauses, ", "))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SetStock sets the stock level and returns the new value.
func (r *productRepository) SetStock(ctx context.Context, id string, stock int) (int, error) {
	query := `
		UPDATE products
		SET stock = GREATEST($2, 0), updated_at = now()
		WHERE id = $1
		RETURNING stock
	`

	var newStock int
	if err := r.pool.QueryRow(ctx, query, id, stock).Scan(&newStock); err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to set stock")
		return 0, fmt.Errorf("failed to set stock: %w", err)
	}

	return newStock, nil
}

// AdjustStock adds delta to the stock level atomically, flooring at zero.
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock = GREATEST(stock + $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING stock
	`

	var newStock int
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(&newStock); err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to adjust stock")
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	return newStock, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied search term.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}
