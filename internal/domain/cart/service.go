package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/product"
)

// ProductLookup resolves products by id.
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*product.Product, error)
}

// Service encapsulates cart and pricing business logic.
type Service struct {
	carts    Repository
	products ProductLookup
	coupons  coupon.Validator
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products ProductLookup, coupons coupon.Validator) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
	}
}

// Add puts qty units of a product into the cart, merging with an existing
// line. Stock is not checked here; it is validated at checkout.
func (s *Service) Add(ctx context.Context, cartID string, productID int64, qty int) error {
	if cartID == "" {
		return ErrMissingCartID
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}
	if err := s.carts.AddLine(ctx, cartID, productID, qty); err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

// Remove deletes a product line from the cart.
func (s *Service) Remove(ctx context.Context, cartID string, productID int64) error {
	if cartID == "" {
		return ErrMissingCartID
	}
	return s.carts.RemoveLine(ctx, cartID, productID)
}

// Get returns the priced cart with any applied discount.
func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	if cartID == "" {
		return nil, ErrMissingCartID
	}

	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	applied, err := s.carts.Discount(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart discount: %w", err)
	}

	c := &Cart{
		ID:       cartID,
		Items:    items,
		Subtotal: Subtotal(items),
		Discount: decimal.Zero,
	}
	for _, it := range items {
		c.Count += it.Qty
	}
	if applied != nil {
		c.Discount = applied.Amount
		c.Coupon = applied.Code
	}
	c.FinalTotal = coupon.ApplyTo(c.Subtotal, c.Discount)
	return c, nil
}

// ApplyCoupon evaluates code against the current cart subtotal and stores
// the resulting discount, replacing any coupon applied earlier.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (decimal.Decimal, error) {
	if cartID == "" {
		return decimal.Zero, ErrMissingCartID
	}

	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get cart items: %w", err)
	}

	c, amount, err := s.coupons.Evaluate(ctx, code, Subtotal(items))
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.carts.SetDiscount(ctx, cartID, AppliedDiscount{Code: c.Code, Amount: amount}); err != nil {
		return decimal.Zero, fmt.Errorf("store cart discount: %w", err)
	}
	return amount, nil
}
