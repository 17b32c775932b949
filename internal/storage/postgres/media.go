package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/media"
)

const (
	insertMediaSQL = `INSERT INTO media (filename, url, size) VALUES ($1, $2, $3) RETURNING id, created_at`
	listMediaSQL   = `SELECT id, filename, url, size, created_at FROM media ORDER BY id DESC`
	deleteMediaSQL = `DELETE FROM media WHERE id = $1`
)

var _ media.Repository = (*MediaRepository)(nil)

// MediaRepository implements media.Repository backed by PostgreSQL.
type MediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository returns a MediaRepository that uses the given pool.
func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Create records an upload.
func (r *MediaRepository) Create(ctx context.Context, m *media.Media) error {
	err := r.pool.QueryRow(ctx, insertMediaSQL, m.Filename, m.URL, m.Size).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating media %q: %w", m.Filename, err)
	}
	return nil
}

// List returns all uploads, newest first.
func (r *MediaRepository) List(ctx context.Context) ([]media.Media, error) {
	rows, err := r.pool.Query(ctx, listMediaSQL)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (media.Media, error) {
		var m media.Media
		err := row.Scan(&m.ID, &m.Filename, &m.URL, &m.Size, &m.CreatedAt)
		return m, err
	})
}

// Delete removes an upload record.
func (r *MediaRepository) Delete(ctx context.Context, id int64) error {
	err := execAffecting(ctx, r.pool, media.ErrNotFound, deleteMediaSQL, id)
	if err != nil && !errors.Is(err, media.ErrNotFound) {
		return fmt.Errorf("deleting media %d: %w", id, err)
	}
	return err
}
