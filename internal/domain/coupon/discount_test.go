package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name       string
		coupon     *Coupon
		subtotal   decimal.Decimal
		wantAmount decimal.Decimal
		wantErr    string
	}{
		{
			name:       "percent 10 of 100",
			coupon:     &Coupon{Type: TypePercent, Value: d("10")},
			subtotal:   d("100.00"),
			wantAmount: d("10.00"),
		},
		{
			name:       "percent rounds to cents",
			coupon:     &Coupon{Type: TypePercent, Value: d("15")},
			subtotal:   d("29.97"),
			wantAmount: d("4.50"),
		},
		{
			name:       "percent 100 equals subtotal",
			coupon:     &Coupon{Type: TypePercent, Value: d("100")},
			subtotal:   d("42.42"),
			wantAmount: d("42.42"),
		},
		{
			name:       "fixed below subtotal",
			coupon:     &Coupon{Type: TypeFixed, Value: d("5")},
			subtotal:   d("30.00"),
			wantAmount: d("5"),
		},
		{
			name:       "fixed capped at subtotal",
			coupon:     &Coupon{Type: TypeFixed, Value: d("15")},
			subtotal:   d("10.00"),
			wantAmount: d("10.00"),
		},
		{
			name:     "unsupported type",
			coupon:   &Coupon{Type: Type("bogus"), Value: d("1")},
			subtotal: d("10"),
			wantErr:  "unsupported discount type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discount(tt.coupon, tt.subtotal)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got), "expected %s, got %s", tt.wantAmount, got)
		})
	}
}

func TestApplyTo(t *testing.T) {
	assert.True(t, d("90").Equal(ApplyTo(d("100"), d("10"))))
	assert.True(t, decimal.Zero.Equal(ApplyTo(d("10"), d("25"))))
}

func TestCheck(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		coupon   Coupon
		subtotal decimal.Decimal
		wantErr  error
	}{
		{
			name:     "active without window",
			coupon:   Coupon{Active: true},
			subtotal: d("10"),
		},
		{
			name:     "inactive",
			coupon:   Coupon{Active: false},
			subtotal: d("10"),
			wantErr:  ErrInactive,
		},
		{
			name:     "below minimum",
			coupon:   Coupon{Active: true, MinAmount: d("50")},
			subtotal: d("49.99"),
			wantErr:  ErrBelowMinimum,
		},
		{
			name:     "exactly minimum",
			coupon:   Coupon{Active: true, MinAmount: d("50")},
			subtotal: d("50"),
		},
		{
			name:     "not yet valid",
			coupon:   Coupon{Active: true, ValidFrom: &future},
			subtotal: d("10"),
			wantErr:  ErrNotYetValid,
		},
		{
			name:     "expired",
			coupon:   Coupon{Active: true, ValidTo: &past},
			subtotal: d("10"),
			wantErr:  ErrExpired,
		},
		{
			name:     "inside window",
			coupon:   Coupon{Active: true, ValidFrom: &past, ValidTo: &future},
			subtotal: d("10"),
		},
		{
			name:     "inactive wins over expired",
			coupon:   Coupon{Active: false, ValidTo: &past},
			subtotal: d("10"),
			wantErr:  ErrInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(&tt.coupon, tt.subtotal, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCouponValidate(t *testing.T) {
	from := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	valid := Coupon{Code: "SAVE", Type: TypeFixed, Value: d("5")}
	require.NoError(t, valid.Validate())

	bad := []Coupon{
		{Type: TypeFixed, Value: d("5")},
		{Code: "X", Type: "bogus", Value: d("5")},
		{Code: "X", Type: TypeFixed, Value: d("-1")},
		{Code: "X", Type: TypePercent, Value: d("101")},
		{Code: "X", Type: TypeFixed, Value: d("1"), MinAmount: d("-1")},
		{Code: "X", Type: TypeFixed, Value: d("1"), ValidFrom: &from, ValidTo: &to},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrInvalidRule, "coupon %+v", c)
	}
}
