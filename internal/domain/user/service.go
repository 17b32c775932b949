package user

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

// Session is the result of a successful login.
type Session struct {
	Token              string
	User               *User
	MustChangePassword bool
}

// Service encapsulates account, login and authorization logic.
type Service struct {
	users   Repository
	hasher  Hasher
	tokens  *Tokens
	limiter *LoginLimiter
	now     func() time.Time
}

// NewService creates a user Service with the required dependencies.
func NewService(users Repository, hasher Hasher, tokens *Tokens, limiter *LoginLimiter) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		now:     time.Now,
	}
}

// SignUp registers a regular, active account.
func (s *Service) SignUp(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, ErrTooShort
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{Username: username, PasswordHash: hash, IsActive: true}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// checkPassword enforces the character minimum and the hasher's byte limit.
func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return ErrTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Login verifies credentials and issues a token. Failed attempts are
// counted per (addr, username); a locked pair gets ErrTooManyAttempts
// without its password being checked.
func (s *Service) Login(ctx context.Context, addr, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	key := addr + "|" + username

	now := s.now()
	if !s.limiter.Allow(key, now) {
		return nil, ErrTooManyAttempts
	}

	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.limiter.Fail(key, now)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.limiter.Fail(key, now)
		return nil, ErrInvalidCredentials
	}
	s.limiter.Reset(key)

	if !u.IsActive {
		return nil, ErrInactive
	}

	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		return nil, errors.Wrap(err, "record login")
	}
	u.LastLogin = &now

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u, MustChangePassword: u.MustChangePassword}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// AuthorizeAdmin fails with ErrForbidden unless u is an administrator.
func (s *Service) AuthorizeAdmin(u *User) error {
	if u == nil || !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// ChangePassword replaces u's password and clears the forced-change flag.
func (s *Service) ChangePassword(ctx context.Context, u *User, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.users.SetPassword(ctx, u.ID, hash, false); err != nil {
		return errors.Wrap(err, "set password")
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	return nil
}

// List returns accounts whose username contains query.
func (s *Service) List(ctx context.Context, query string) ([]User, error) {
	return s.users.List(ctx, strings.TrimSpace(query))
}

// SetActive activates or deactivates an account. The reserved admin
// cannot be deactivated.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if !active {
		if err := s.checkNotReserved(ctx, id); err != nil {
			return err
		}
	}
	return s.users.SetActive(ctx, id, active)
}

// Delete removes an account. The reserved admin cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.checkNotReserved(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *Service) checkNotReserved(ctx context.Context, id int64) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == ReservedUsername {
		return ErrReservedAdmin
	}
	return nil
}

// EnsureAdmin creates the reserved admin account with the initial password
// if it does not exist yet. The admin must change the password on first
// login. It reports whether the account was created.
func (s *Service) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, ReservedUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, errors.Wrap(err, "get admin")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, errors.Wrap(err, "hash password")
	}
	u := &User{
		Username:           ReservedUsername,
		PasswordHash:       hash,
		IsAdmin:            true,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
