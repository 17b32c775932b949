package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/product"
)

// --- Fakes ---

type lineKey struct {
	cart    string
	product int64
}

type memCarts struct {
	lines     map[lineKey]int
	order     []lineKey
	discounts map[string]AppliedDiscount
	products  *memProducts
	setErr    error
}

func newMemCarts(products *memProducts) *memCarts {
	return &memCarts{
		lines:     make(map[lineKey]int),
		discounts: make(map[string]AppliedDiscount),
		products:  products,
	}
}

func (m *memCarts) AddLine(_ context.Context, cartID string, productID int64, qty int) error {
	k := lineKey{cartID, productID}
	if _, ok := m.lines[k]; !ok {
		m.order = append(m.order, k)
	}
	m.lines[k] += qty
	return nil
}

func (m *memCarts) RemoveLine(_ context.Context, cartID string, productID int64) error {
	delete(m.lines, lineKey{cartID, productID})
	return nil
}

func (m *memCarts) Items(_ context.Context, cartID string) ([]Item, error) {
	var out []Item
	for _, k := range m.order {
		qty, ok := m.lines[k]
		if !ok || k.cart != cartID {
			continue
		}
		p := m.products.byID[k.product]
		out = append(out, Item{ProductID: p.ID, Qty: qty, Name: p.Name, Price: p.Price})
	}
	return out, nil
}

func (m *memCarts) Discount(_ context.Context, cartID string) (*AppliedDiscount, error) {
	d, ok := m.discounts[cartID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memCarts) SetDiscount(_ context.Context, cartID string, d AppliedDiscount) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.discounts[cartID] = d
	return nil
}

type memProducts struct {
	byID map[int64]*product.Product
}

func (m *memProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type mockValidator struct {
	coupon *coupon.Coupon
	amount decimal.Decimal
	err    error

	gotSubtotal decimal.Decimal
}

func (m *mockValidator) Evaluate(_ context.Context, _ string, subtotal decimal.Decimal) (*coupon.Coupon, decimal.Decimal, error) {
	m.gotSubtotal = subtotal
	return m.coupon, m.amount, m.err
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newProducts(products ...product.Product) *memProducts {
	byID := make(map[int64]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &memProducts{byID: byID}
}

func newTestService(v coupon.Validator) (*Service, *memCarts, *memProducts) {
	products := newProducts(
		product.Product{ID: 1, Name: "Widget", Price: d("10.00"), Stock: 5},
		product.Product{ID: 2, Name: "Gadget", Price: d("25.50"), Stock: 1},
	)
	carts := newMemCarts(products)
	if v == nil {
		v = &mockValidator{}
	}
	return NewService(carts, products, v), carts, products
}

// --- Tests ---

func TestAdd_MergesRepeatedLines(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 2))
	require.NoError(t, svc.Add(ctx, "c1", 1, 3))

	c, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Qty)
	assert.Equal(t, 5, c.Count)
}

func TestAdd_DoesNotCheckStock(t *testing.T) {
	svc, _, _ := newTestService(nil)

	// Product 2 has a single unit in stock; the cart may still hold more.
	require.NoError(t, svc.Add(context.Background(), "c1", 2, 10))
}

func TestAdd_Validation(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.Add(ctx, "", 1, 1), ErrMissingCartID)
	require.ErrorIs(t, svc.Add(ctx, "c1", 1, 0), ErrInvalidQuantity)
	require.ErrorIs(t, svc.Add(ctx, "c1", 1, -2), ErrInvalidQuantity)
	require.ErrorIs(t, svc.Add(ctx, "c1", 99, 1), product.ErrNotFound)
}

func TestRemove_Idempotent(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 1))
	require.NoError(t, svc.Remove(ctx, "c1", 1))
	require.NoError(t, svc.Remove(ctx, "c1", 1))

	c, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.Subtotal.IsZero())
}

func TestGet_UsesLivePrices(t *testing.T) {
	svc, _, products := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 2))
	products.byID[1].Price = d("12.00")

	c, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, d("24.00").Equal(c.Subtotal), "got %s", c.Subtotal)
}

func TestGet_FinalTotalFlooredAtZero(t *testing.T) {
	svc, carts, _ := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 1))
	carts.discounts["c1"] = AppliedDiscount{Code: "BIG", Amount: d("50")}

	c, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "BIG", c.Coupon)
	assert.True(t, d("50").Equal(c.Discount))
	assert.True(t, c.FinalTotal.IsZero())
}

func TestApplyCoupon(t *testing.T) {
	v := &mockValidator{
		coupon: &coupon.Coupon{Code: "SAVE10", Type: coupon.TypePercent, Value: d("10"), Active: true},
		amount: d("4.55"),
	}
	svc, carts, _ := newTestService(v)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 2))
	require.NoError(t, svc.Add(ctx, "c1", 2, 1))

	amount, err := svc.ApplyCoupon(ctx, "c1", "SAVE10")
	require.NoError(t, err)
	assert.True(t, d("4.55").Equal(amount))
	assert.True(t, d("45.50").Equal(v.gotSubtotal), "got %s", v.gotSubtotal)
	assert.Equal(t, AppliedDiscount{Code: "SAVE10", Amount: d("4.55")}, carts.discounts["c1"])
}

func TestApplyCoupon_ReplacesPrevious(t *testing.T) {
	v := &mockValidator{
		coupon: &coupon.Coupon{Code: "FLAT5", Type: coupon.TypeFixed, Value: d("5"), Active: true},
		amount: d("5"),
	}
	svc, carts, _ := newTestService(v)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 1))
	carts.discounts["c1"] = AppliedDiscount{Code: "OLD", Amount: d("1")}

	_, err := svc.ApplyCoupon(ctx, "c1", "FLAT5")
	require.NoError(t, err)
	assert.Len(t, carts.discounts, 1)
	assert.Equal(t, "FLAT5", carts.discounts["c1"].Code)
}

func TestApplyCoupon_ValidatorError(t *testing.T) {
	svc, carts, _ := newTestService(&mockValidator{err: coupon.ErrExpired})
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 1))
	_, err := svc.ApplyCoupon(ctx, "c1", "OLD")
	require.ErrorIs(t, err, coupon.ErrExpired)
	assert.Empty(t, carts.discounts)
}

func TestApplyCoupon_StoreError(t *testing.T) {
	v := &mockValidator{
		coupon: &coupon.Coupon{Code: "X", Type: coupon.TypeFixed, Value: d("1"), Active: true},
		amount: d("1"),
	}
	svc, carts, _ := newTestService(v)
	carts.setErr = errors.New("db down")
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "c1", 1, 1))
	_, err := svc.ApplyCoupon(ctx, "c1", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store cart discount")
}
