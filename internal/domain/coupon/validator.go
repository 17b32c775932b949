package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator evaluates a coupon code against a cart subtotal.
type Validator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, decimal.Decimal, error)
}

// RepoValidator implements Validator by looking up coupons in a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Evaluate looks up the coupon for code, checks it against subtotal and the
// current time, and returns the coupon with the computed discount.
func (v *RepoValidator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, decimal.Decimal, error) {
	if !subtotal.IsPositive() {
		return nil, decimal.Zero, ErrEmptyCart
	}

	c, err := v.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, decimal.Zero, ErrInvalidCoupon
		}
		return nil, decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	if err := Check(c, subtotal, v.now()); err != nil {
		return nil, decimal.Zero, err
	}

	amount, err := Discount(c, subtotal)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return c, amount, nil
}
