package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrSlugTaken is returned when a category slug collides with an existing one.
	ErrSlugTaken = errors.New("category slug already exists")
	// ErrInvalid is returned when product or category fields are out of range.
	ErrInvalid = errors.New("invalid catalog input")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       int
	CreatedAt   time.Time
	Categories  []Category
}

// Category groups products for browsing.
type Category struct {
	ID   int64
	Name string
	Slug string
	Sort int
}

// Patch carries optional product fields. Nil fields are left unchanged.
type Patch struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Stock       *int
	// CategoryIDs replaces the product's category links when non-nil.
	CategoryIDs []int64
}

// CategoryPatch carries optional category fields.
type CategoryPatch struct {
	Name *string
	Sort *int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, query string) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product, categoryIDs []int64) error
	Update(ctx context.Context, id int64, patch Patch) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, id int64, name *string, slug *string, sort *int) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Validate checks the invariants of a new product.
func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.Wrap(ErrInvalid, "name required")
	}
	if p.Price.IsNegative() {
		return errors.Wrap(ErrInvalid, "price must not be negative")
	}
	if p.Stock < 0 {
		return errors.Wrap(ErrInvalid, "stock must not be negative")
	}
	return nil
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.Wrap(ErrInvalid, "name must not be empty")
	}
	if p.Price != nil && p.Price.IsNegative() {
		return errors.Wrap(ErrInvalid, "price must not be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return errors.Wrap(ErrInvalid, "stock must not be negative")
	}
	return nil
}
