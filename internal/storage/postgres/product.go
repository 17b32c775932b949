package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/product"
)

const (
	productColumns = `p.id, p.sku, p.name, p.description, p.price, p.image_url, p.stock, p.created_at`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p
		WHERE $1 = ''
		   OR p.name ILIKE '%' || $1 || '%'
		   OR p.sku ILIKE '%' || $1 || '%'
		   OR p.description ILIKE '%' || $1 || '%'
		ORDER BY p.id DESC`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	listProductCategoriesSQL = `SELECT c.id, c.name, c.slug, c.sort
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.sort, c.id`

	insertProductSQL = `INSERT INTO products (sku, name, description, price, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	updateProductSQL = `UPDATE products p SET
			sku = COALESCE($2, p.sku),
			name = COALESCE($3, p.name),
			description = COALESCE($4, p.description),
			price = COALESCE($5, p.price),
			image_url = COALESCE($6, p.image_url),
			stock = COALESCE($7, p.stock)
		WHERE p.id = $1
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	clearProductCategoriesSQL = `DELETE FROM product_categories WHERE product_id = $1`

	linkProductCategorySQL = `INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns products matching query, newest first.
func (r *ProductRepository) List(ctx context.Context, query string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product with its categories.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	rows, err = r.pool.Query(ctx, listProductCategoriesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting categories of product %d: %w", id, err)
	}
	p.Categories, err = pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("getting categories of product %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts p and links it to categoryIDs in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product, categoryIDs []int64) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertProductSQL,
			p.SKU, p.Name, p.Description, p.Price, p.ImageURL, p.Stock,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return err
		}
		return linkCategories(ctx, tx, p.ID, categoryIDs)
	})
	if err != nil {
		if hasCode(err, pgForeignKeyViolation) {
			return product.ErrCategoryNotFound
		}
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// Update applies patch in one statement; category links are replaced when
// patch.CategoryIDs is non-nil.
func (r *ProductRepository) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	var updated product.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, updateProductSQL, id,
			patch.SKU, patch.Name, patch.Description, patch.Price, patch.ImageURL, patch.Stock,
		)
		if err != nil {
			return err
		}
		updated, err = pgx.CollectExactlyOneRow(rows, scanProduct)
		if err != nil {
			return err
		}
		if patch.CategoryIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, clearProductCategoriesSQL, id); err != nil {
			return err
		}
		return linkCategories(ctx, tx, id, patch.CategoryIDs)
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, product.ErrNotFound
	case hasCode(err, pgForeignKeyViolation):
		return nil, product.ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a product. Cart lines and category links cascade.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	err := execAffecting(ctx, r.pool, product.ErrNotFound, deleteProductSQL, id)
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	return err
}

func linkCategories(ctx context.Context, tx pgx.Tx, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, cid := range categoryIDs {
		batch.Queue(linkProductCategorySQL, productID, cid)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock, &p.CreatedAt,
	)
	return p, err
}
