package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/order"
)

const (
	listCartLinesSQL = `SELECT product_id, qty FROM carts WHERE cart_id = $1 ORDER BY product_id`

	lockProductSQL = `SELECT id, name, price, stock FROM products WHERE id = $1 FOR UPDATE`

	cartDiscountAmountSQL = `SELECT discount FROM cart_discounts WHERE cart_id = $1`

	insertOrderSQL = `INSERT INTO orders (cart_id, total, status) VALUES ($1, $2, $3)
		RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, qty, price) VALUES ($1, $2, $3, $4)`

	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1`

	clearCartLinesSQL    = `DELETE FROM carts WHERE cart_id = $1`
	clearCartDiscountSQL = `DELETE FROM cart_discounts WHERE cart_id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	listOrdersSQL = `SELECT id, cart_id, total, status, created_at
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::numeric IS NULL OR total >= $2)
		  AND ($3::numeric IS NULL OR total <= $3)
		ORDER BY id DESC`

	getOrderSQL = `SELECT id, cart_id, total, status, created_at FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT oi.product_id, COALESCE(p.name, ''), oi.qty, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Checkout runs at
// serializable isolation with product rows locked for update.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// WithinTx runs fn in a serializable transaction.
func (s *OrderStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		return fn(ctx, &orderTx{tx: tx})
	})
}

// UpdateStatus sets the status of an order.
func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	err := execAffecting(ctx, s.pool, order.ErrNotFound, updateOrderStatusSQL, id, string(status))
	if err != nil && !errors.Is(err, order.ErrNotFound) {
		return fmt.Errorf("updating status of order %d: %w", id, err)
	}
	return err
}

// List returns orders matching f, newest first. Items are not loaded.
func (s *OrderStore) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	var status *string
	if f.Status != nil {
		v := string(*f.Status)
		status = &v
	}
	rows, err := s.pool.Query(ctx, listOrdersSQL, status, f.MinTotal, f.MaxTotal)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Get returns an order with its items.
func (s *OrderStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	rows, err = s.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %d: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ProductID, &it.Name, &it.Qty, &it.Price)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting items of order %d: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.CartID, &o.Total, &status, &o.CreatedAt)
	o.Status = order.Status(status)
	return o, err
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) CartLines(ctx context.Context, cartID string) ([]order.Line, error) {
	rows, err := t.tx.Query(ctx, listCartLinesSQL, cartID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ProductID, &l.Qty)
		return l, err
	})
}

func (t *orderTx) LockProduct(ctx context.Context, id int64) (*order.StockedProduct, error) {
	var p order.StockedProduct
	err := t.tx.QueryRow(ctx, lockProductSQL, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrInvalidProduct
		}
		return nil, err
	}
	return &p, nil
}

func (t *orderTx) CartDiscount(ctx context.Context, cartID string) (decimal.Decimal, error) {
	var d decimal.Decimal
	err := t.tx.QueryRow(ctx, cartDiscountAmountSQL, cartID).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return d, err
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	return t.tx.QueryRow(ctx, insertOrderSQL, o.CartID, o.Total, string(o.Status)).Scan(&o.ID, &o.CreatedAt)
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []order.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(insertOrderItemSQL, orderID, it.ProductID, it.Qty, it.Price)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *orderTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	_, err := t.tx.Exec(ctx, decrementStockSQL, productID, qty)
	return err
}

func (t *orderTx) ClearCart(ctx context.Context, cartID string) error {
	if _, err := t.tx.Exec(ctx, clearCartLinesSQL, cartID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, clearCartDiscountSQL, cartID)
	return err
}
