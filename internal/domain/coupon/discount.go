package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Check verifies that c can be applied at instant now to a cart with the
// given subtotal. Checks run in a fixed order so the first failing rule
// determines the error.
func Check(c *Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if subtotal.LessThan(c.MinAmount) {
		return ErrBelowMinimum
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrNotYetValid
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return ErrExpired
	}
	return nil
}

// Discount computes the amount c takes off subtotal, rounded to cents.
// Percent coupons take subtotal*value/100; fixed coupons take the value
// capped at the subtotal.
func Discount(c *Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch c.Type {
	case TypePercent:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case TypeFixed:
		amount = decimal.Min(c.Value, subtotal)
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.Type)
	}
	return floorAtZero(amount).Round(2), nil
}

// ApplyTo returns max(0, subtotal - discount) rounded to cents.
func ApplyTo(subtotal, discount decimal.Decimal) decimal.Decimal {
	return floorAtZero(subtotal.Sub(discount)).Round(2)
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
