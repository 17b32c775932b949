package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/coupon"
)

const (
	couponColumns = `id, code, type, value, active, valid_from, valid_to, min_amount`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY id DESC`

	insertCouponSQL = `INSERT INTO coupons (code, type, value, active, valid_from, valid_to, min_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	updateCouponSQL = `UPDATE coupons SET
			code = $2, type = $3, value = $4, active = $5,
			valid_from = $6, valid_to = $7, min_amount = $8
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons (code, type, value, active, valid_from, valid_to, min_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type, value = EXCLUDED.value, active = EXCLUDED.active,
			valid_from = EXCLUDED.valid_from, valid_to = EXCLUDED.valid_to,
			min_amount = EXCLUDED.min_amount`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its exact code, active or not.
// Returns coupon.ErrInvalidCoupon when no coupon has that code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts c and sets its ID.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, insertCouponSQL,
		c.Code, string(c.Type), c.Value, c.Active, c.ValidFrom, c.ValidTo, c.MinAmount,
	).Scan(&c.ID)
	if err != nil {
		if hasCode(err, pgUniqueViolation) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites every field of the coupon identified by c.ID.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	err := execAffecting(ctx, r.pool, coupon.ErrNotFound, updateCouponSQL,
		c.ID, c.Code, string(c.Type), c.Value, c.Active, c.ValidFrom, c.ValidTo, c.MinAmount,
	)
	switch {
	case err == nil, errors.Is(err, coupon.ErrNotFound):
		return err
	case hasCode(err, pgUniqueViolation):
		return coupon.ErrCodeTaken
	default:
		return fmt.Errorf("updating coupon %d: %w", c.ID, err)
	}
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	err := execAffecting(ctx, r.pool, coupon.ErrNotFound, deleteCouponSQL, id)
	if err != nil && !errors.Is(err, coupon.ErrNotFound) {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	return err
}

// UpsertBatch inserts or replaces coupons by code in one round trip.
func (r *CouponRepository) UpsertBatch(ctx context.Context, coupons []coupon.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range coupons {
		batch.Queue(upsertCouponSQL,
			c.Code, string(c.Type), c.Value, c.Active, c.ValidFrom, c.ValidTo, c.MinAmount,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d coupons: %w", len(coupons), err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c   coupon.Coupon
		typ string
	)
	err := row.Scan(&c.ID, &c.Code, &typ, &c.Value, &c.Active, &c.ValidFrom, &c.ValidTo, &c.MinAmount)
	c.Type = coupon.Type(typ)
	return c, err
}
