// Package user implements accounts, password login with brute-force
// protection, bearer token issuance and role checks.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ReservedUsername is the seeded administrator account. It can be neither
// deleted nor deactivated.
const ReservedUsername = "admin"

const (
	minUsernameLen = 3
	minPasswordLen = 6
	// bcrypt only accepts inputs up to 72 bytes.
	maxPasswordBytes = 72
)

// Sentinel errors for account and session operations.
var (
	ErrTooShort           = errors.New("username must be at least 3 characters and password at least 6")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrAlreadyExists      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactive           = errors.New("account is deactivated")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("user not found")
	ErrForbidden          = errors.New("admin privileges required")
	ErrReservedAdmin      = errors.New("the admin account cannot be deleted or deactivated")
)

// User is a registered account.
type User struct {
	ID                 int64
	Username           string
	PasswordHash       string
	IsAdmin            bool
	IsActive           bool
	MustChangePassword bool
	LastLogin          *time.Time
	CreatedAt          time.Time
}

// Repository defines persistence operations for users.
type Repository interface {
	// Create inserts u and fills its ID and CreatedAt. It returns
	// ErrAlreadyExists when the username is taken.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) error
	SetPassword(ctx context.Context, id int64, hash string, mustChange bool) error
	// List returns users whose username contains query, newest first.
	List(ctx context.Context, query string) ([]User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// Hasher is a one-way password hash with verification.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
