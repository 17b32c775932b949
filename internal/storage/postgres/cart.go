package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/cart"
)

const (
	addCartLineSQL = `INSERT INTO carts (cart_id, product_id, qty) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET qty = carts.qty + EXCLUDED.qty`

	removeCartLineSQL = `DELETE FROM carts WHERE cart_id = $1 AND product_id = $2`

	listCartItemsSQL = `SELECT c.product_id, c.qty, p.name, p.price, p.image_url
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.cart_id = $1
		ORDER BY c.product_id`

	getCartDiscountSQL = `SELECT code, discount FROM cart_discounts WHERE cart_id = $1`

	upsertCartDiscountSQL = `INSERT INTO cart_discounts (cart_id, code, discount) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id) DO UPDATE SET code = EXCLUDED.code, discount = EXCLUDED.discount`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// AddLine inserts a line or adds qty to the existing one.
func (r *CartRepository) AddLine(ctx context.Context, cartID string, productID int64, qty int) error {
	if _, err := r.pool.Exec(ctx, addCartLineSQL, cartID, productID, qty); err != nil {
		return fmt.Errorf("adding product %d to cart %q: %w", productID, cartID, err)
	}
	return nil
}

// RemoveLine deletes a line if present.
func (r *CartRepository) RemoveLine(ctx context.Context, cartID string, productID int64) error {
	if _, err := r.pool.Exec(ctx, removeCartLineSQL, cartID, productID); err != nil {
		return fmt.Errorf("removing product %d from cart %q: %w", productID, cartID, err)
	}
	return nil
}

// Items returns the cart lines joined with live product data.
func (r *CartRepository) Items(ctx context.Context, cartID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ProductID, &it.Qty, &it.Name, &it.Price, &it.ImageURL)
		return it, err
	})
}

// Discount returns the applied discount or nil.
func (r *CartRepository) Discount(ctx context.Context, cartID string) (*cart.AppliedDiscount, error) {
	var d cart.AppliedDiscount
	err := r.pool.QueryRow(ctx, getCartDiscountSQL, cartID).Scan(&d.Code, &d.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting discount of cart %q: %w", cartID, err)
	}
	return &d, nil
}

// SetDiscount replaces the cart's discount row.
func (r *CartRepository) SetDiscount(ctx context.Context, cartID string, d cart.AppliedDiscount) error {
	if _, err := r.pool.Exec(ctx, upsertCartDiscountSQL, cartID, d.Code, d.Amount); err != nil {
		return fmt.Errorf("setting discount of cart %q: %w", cartID, err)
	}
	return nil
}
