package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgjo/shop-api/internal/domain/user"
)

const (
	userColumns = `id, username, password_hash, is_admin, is_active, must_change_password, last_login, created_at`

	insertUserSQL = `INSERT INTO users (username, password_hash, is_admin, is_active, must_change_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	getUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	touchLoginSQL  = `UPDATE users SET last_login = $2 WHERE id = $1`
	setPasswordSQL = `UPDATE users SET password_hash = $2, must_change_password = $3 WHERE id = $1`
	setActiveSQL   = `UPDATE users SET is_active = $2 WHERE id = $1`
	deleteUserSQL  = `DELETE FROM users WHERE id = $1`

	listUsersSQL = `SELECT ` + userColumns + `
		FROM users
		WHERE $1 = '' OR username ILIKE '%' || $1 || '%'
		ORDER BY id DESC`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts u and sets its ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, insertUserSQL,
		u.Username, u.PasswordHash, u.IsAdmin, u.IsActive, u.MustChangePassword,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if hasCode(err, pgUniqueViolation) {
			return user.ErrAlreadyExists
		}
		return fmt.Errorf("creating user %q: %w", u.Username, err)
	}
	return nil
}

// GetByID returns the user with the given id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByUsername returns the user with the given username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user %v: %w", arg, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %v: %w", arg, err)
	}
	return &u, nil
}

// TouchLogin records a successful login time.
func (r *UserRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, touchLoginSQL, id, at)
}

// SetPassword replaces the password hash and the forced-change flag.
func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string, mustChange bool) error {
	return r.update(ctx, setPasswordSQL, id, hash, mustChange)
}

// SetActive activates or deactivates an account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, setActiveSQL, id, active)
}

// Delete removes an account.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.update(ctx, deleteUserSQL, id)
}

func (r *UserRepository) update(ctx context.Context, sql string, id int64, args ...any) error {
	err := execAffecting(ctx, r.pool, user.ErrNotFound, sql, append([]any{id}, args...)...)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("updating user %d: %w", id, err)
	}
	return err
}

// List returns users whose username contains query, newest first.
func (r *UserRepository) List(ctx context.Context, query string) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.IsActive,
		&u.MustChangePassword, &u.LastLogin, &u.CreatedAt,
	)
	return u, err
}
