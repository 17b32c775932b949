// Package cart implements anonymous carts: line management, live pricing,
// and coupon application.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingCartID is returned when a request carries no cart identifier.
	ErrMissingCartID = errors.New("cart_id required")
	// ErrInvalidQuantity is returned when a line quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Item is a cart line joined with the live product it refers to. Price and
// name are read at view time, so they follow catalog edits.
type Item struct {
	ProductID int64
	Qty       int
	Name      string
	Price     decimal.Decimal
	ImageURL  string
}

// LineTotal returns qty*price.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// AppliedDiscount is the single coupon discount attached to a cart.
type AppliedDiscount struct {
	Code   string
	Amount decimal.Decimal
}

// Cart is the priced view of a cart.
type Cart struct {
	ID         string
	Items      []Item
	Count      int
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Coupon     string
	FinalTotal decimal.Decimal
}

// Repository defines persistence operations for cart lines and discounts.
type Repository interface {
	// AddLine inserts a line or adds qty to the existing line.
	AddLine(ctx context.Context, cartID string, productID int64, qty int) error
	// RemoveLine deletes a line. Removing an absent line is not an error.
	RemoveLine(ctx context.Context, cartID string, productID int64) error
	// Items returns the cart lines joined with live product data.
	Items(ctx context.Context, cartID string) ([]Item, error)
	// Discount returns the applied discount, or nil when none is set.
	Discount(ctx context.Context, cartID string) (*AppliedDiscount, error)
	// SetDiscount replaces the cart's discount row.
	SetDiscount(ctx context.Context, cartID string, d AppliedDiscount) error
}

// Subtotal returns Σ(qty×price) over items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
