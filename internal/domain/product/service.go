package product

import (
	"context"
	"fmt"
)

// Catalog wraps the product and category repositories with input validation
// and slug derivation.
type Catalog struct {
	products   Repository
	categories CategoryRepository
}

// NewCatalog creates a Catalog backed by the given repositories.
func NewCatalog(products Repository, categories CategoryRepository) *Catalog {
	return &Catalog{products: products, categories: categories}
}

// Products returns products whose name, SKU, or description contain query.
// An empty query lists the whole catalog.
func (c *Catalog) Products(ctx context.Context, query string) ([]Product, error) {
	return c.products.List(ctx, query)
}

// Product returns a single product together with its categories.
func (c *Catalog) Product(ctx context.Context, id int64) (*Product, error) {
	return c.products.GetByID(ctx, id)
}

// CreateProduct validates and persists a new product.
func (c *Catalog) CreateProduct(ctx context.Context, p *Product, categoryIDs []int64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.products.Create(ctx, p, categoryIDs); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct applies a partial update to an existing product.
func (c *Catalog) UpdateProduct(ctx context.Context, id int64, patch Patch) (*Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return c.products.Update(ctx, id, patch)
}

// DeleteProduct removes a product from the catalog.
func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	return c.products.Delete(ctx, id)
}

// Categories lists all categories ordered by sort order.
func (c *Catalog) Categories(ctx context.Context) ([]Category, error) {
	return c.categories.ListCategories(ctx)
}

// CategoryProducts returns the category identified by slug and its products.
func (c *Catalog) CategoryProducts(ctx context.Context, slug string) (*Category, []Product, error) {
	cat, err := c.categories.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	products, err := c.categories.ListByCategory(ctx, cat.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list category products: %w", err)
	}
	return cat, products, nil
}

// CreateCategory derives the slug from the name and persists the category.
// Slug collisions are not resolved; they surface as ErrSlugTaken.
func (c *Catalog) CreateCategory(ctx context.Context, name string, sort int) (*Category, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalid)
	}
	cat := &Category{Name: name, Slug: slug, Sort: sort}
	if err := c.categories.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// UpdateCategory renames or reorders a category. Renaming re-derives the slug.
func (c *Catalog) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (*Category, error) {
	var slug *string
	if patch.Name != nil {
		s := Slugify(*patch.Name)
		if s == "" {
			return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalid)
		}
		slug = &s
	}
	return c.categories.UpdateCategory(ctx, id, patch.Name, slug, patch.Sort)
}

// DeleteCategory removes a category and its product links.
func (c *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	return c.categories.DeleteCategory(ctx, id)
}
