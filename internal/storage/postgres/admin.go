package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/user"
)

const (
	orderStatsSQL = `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $1`

	recentOrdersSQL = `SELECT id, cart_id, total, status, created_at FROM orders ORDER BY id DESC LIMIT $1`

	recentUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY id DESC LIMIT $1`

	listSettingsSQL = `SELECT key, value FROM settings ORDER BY key`

	upsertSettingSQL = `INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

var (
	_ admin.Reporter           = (*ReportRepository)(nil)
	_ admin.SettingsRepository = (*SettingsRepository)(nil)
)

// ReportRepository implements admin.Reporter backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// OrderStats counts orders and sums their totals since the given instant.
func (r *ReportRepository) OrderStats(ctx context.Context, since time.Time) (admin.Stats, error) {
	var s admin.Stats
	if err := r.pool.QueryRow(ctx, orderStatsSQL, since).Scan(&s.Orders, &s.Revenue); err != nil {
		return admin.Stats{}, fmt.Errorf("order stats since %s: %w", since, err)
	}
	return s, nil
}

// RecentOrders returns the latest orders without items.
func (r *ReportRepository) RecentOrders(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// RecentUsers returns the latest sign-ups.
func (r *ReportRepository) RecentUsers(ctx context.Context, limit int) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, recentUsersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// SettingsRepository implements admin.SettingsRepository backed by PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// All returns every setting.
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, listSettingsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Upsert writes every key in values in one transaction.
func (r *SettingsRepository) Upsert(ctx context.Context, values map[string]string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for k, v := range values {
			batch.Queue(upsertSettingSQL, k, v)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}
