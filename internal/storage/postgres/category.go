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
	listCategoriesSQL = `SELECT id, name, slug, sort FROM categories ORDER BY sort, id`

	getCategoryBySlugSQL = `SELECT id, name, slug, sort FROM categories WHERE slug = $1`

	listProductsByCategorySQL = `SELECT ` + productColumns + `
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = $1
		ORDER BY p.id DESC`

	insertCategorySQL = `INSERT INTO categories (name, slug, sort) VALUES ($1, $2, $3) RETURNING id`

	updateCategorySQL = `UPDATE categories c SET
			name = COALESCE($2, c.name),
			slug = COALESCE($3, c.slug),
			sort = COALESCE($4, c.sort)
		WHERE c.id = $1
		RETURNING id, name, slug, sort`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ product.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements product.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListCategories returns all categories in display order.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetCategoryBySlug returns the category with the given slug.
func (r *CategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*product.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}
	return &c, nil
}

// ListByCategory returns the products linked to a category.
func (r *CategoryRepository) ListByCategory(ctx context.Context, categoryID int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing products of category %d: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// CreateCategory inserts c. A slug collision yields product.ErrSlugTaken.
func (r *CategoryRepository) CreateCategory(ctx context.Context, c *product.Category) error {
	err := r.pool.QueryRow(ctx, insertCategorySQL, c.Name, c.Slug, c.Sort).Scan(&c.ID)
	if err != nil {
		if hasCode(err, pgUniqueViolation) {
			return product.ErrSlugTaken
		}
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// UpdateCategory changes the supplied fields of a category.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, id int64, name, slug *string, sort *int) (*product.Category, error) {
	rows, err := r.pool.Query(ctx, updateCategorySQL, id, name, slug, sort)
	if err != nil {
		return nil, fmt.Errorf("updating category %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, product.ErrCategoryNotFound
	case hasCode(err, pgUniqueViolation):
		return nil, product.ErrSlugTaken
	case err != nil:
		return nil, fmt.Errorf("updating category %d: %w", id, err)
	}
	return &c, nil
}

// DeleteCategory removes a category; product links cascade.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	err := execAffecting(ctx, r.pool, product.ErrCategoryNotFound, deleteCategorySQL, id)
	if err != nil && !errors.Is(err, product.ErrCategoryNotFound) {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	return err
}

func scanCategory(row pgx.CollectableRow) (product.Category, error) {
	var c product.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Sort)
	return c, err
}
