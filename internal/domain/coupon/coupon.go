package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon discount strategies.
type Type string

const (
	// TypePercent discounts subtotal*value/100.
	TypePercent Type = "percent"
	// TypeFixed discounts a fixed amount capped at the subtotal.
	TypeFixed Type = "fixed"
)

// Valid reports whether t is a known discount strategy.
func (t Type) Valid() bool {
	return t == TypePercent || t == TypeFixed
}

var (
	// ErrEmptyCart is returned when a coupon is applied to a cart with no value.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidCoupon is returned when no coupon with the given code exists.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrInactive is returned when the coupon has been disabled.
	ErrInactive = errors.New("coupon is inactive")
	// ErrBelowMinimum is returned when the subtotal is below the coupon minimum.
	ErrBelowMinimum = errors.New("subtotal below coupon minimum")
	// ErrNotYetValid is returned before the coupon validity window opens.
	ErrNotYetValid = errors.New("coupon not yet valid")
	// ErrExpired is returned after the coupon validity window closes.
	ErrExpired = errors.New("coupon expired")
	// ErrNotFound is returned when a coupon id does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeTaken is returned when a coupon code already exists.
	ErrCodeTaken = errors.New("coupon code already exists")
	// ErrInvalidRule is returned when coupon fields are out of range.
	ErrInvalidRule = errors.New("invalid coupon")
)

// Coupon defines a named discount rule and its eligibility constraints.
type Coupon struct {
	ID        int64
	Code      string
	Type      Type
	Value     decimal.Decimal
	Active    bool
	ValidFrom *time.Time
	ValidTo   *time.Time
	MinAmount decimal.Decimal
}

// Validate checks the static invariants of a coupon definition.
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return errors.Wrap(ErrInvalidRule, "code required")
	}
	if !c.Type.Valid() {
		return errors.Wrapf(ErrInvalidRule, "unsupported type %q", c.Type)
	}
	if c.Value.IsNegative() {
		return errors.Wrap(ErrInvalidRule, "value must not be negative")
	}
	if c.Type == TypePercent && c.Value.GreaterThan(hundred) {
		return errors.Wrap(ErrInvalidRule, "percent value must not exceed 100")
	}
	if c.MinAmount.IsNegative() {
		return errors.Wrap(ErrInvalidRule, "min amount must not be negative")
	}
	if c.ValidFrom != nil && c.ValidTo != nil && c.ValidTo.Before(*c.ValidFrom) {
		return errors.Wrap(ErrInvalidRule, "valid_to before valid_from")
	}
	return nil
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) error
}
