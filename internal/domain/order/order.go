// Package order converts carts into immutable orders and manages their
// status afterwards.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Sentinel errors for checkout and status updates.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNotFound          = errors.New("order not found")
)

// LineError reports a checkout failure tied to one cart line. It unwraps to
// ErrInvalidProduct or ErrInsufficientStock.
type LineError struct {
	ProductID int64
	Requested int
	Available int
	Err       error
}

func (e *LineError) Error() string {
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
			e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("invalid product %d", e.ProductID)
}

func (e *LineError) Unwrap() error { return e.Err }

// Order is a placed order. Only Status changes after creation.
type Order struct {
	ID        int64
	CartID    string
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
	Items     []Item
}

// Item is an order line with the unit price captured at purchase time.
type Item struct {
	ProductID int64
	Name      string
	Qty       int
	Price     decimal.Decimal
}

// Line is a cart line as read by checkout.
type Line struct {
	ProductID int64
	Qty       int
}

// StockedProduct is the product state checkout validates against.
type StockedProduct struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

// Filter narrows admin order listings. Nil fields do not filter.
type Filter struct {
	Status   *Status
	MinTotal *decimal.Decimal
	MaxTotal *decimal.Decimal
}

// Tx is the set of statements checkout issues inside one transaction.
type Tx interface {
	CartLines(ctx context.Context, cartID string) ([]Line, error)
	// LockProduct reads a product and locks its row until commit. It returns
	// ErrInvalidProduct if the product no longer exists.
	LockProduct(ctx context.Context, id int64) (*StockedProduct, error)
	// CartDiscount returns the stored discount amount, zero when none.
	CartDiscount(ctx context.Context, cartID string) (decimal.Decimal, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID int64, items []Item) error
	DecrementStock(ctx context.Context, productID int64, qty int) error
	ClearCart(ctx context.Context, cartID string) error
}

// Store defines persistence operations for orders.
type Store interface {
	// WithinTx runs fn in a single transaction, committing only if fn
	// returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	List(ctx context.Context, f Filter) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
}
