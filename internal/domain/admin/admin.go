// Package admin provides the reporting surface of the back office:
// dashboard aggregates, key/value settings and the application log tail.
package admin

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/user"
)

const (
	recentLimit     = 5
	defaultLogLines = 200
	maxLogLines     = 2000
)

// ErrInvalidSetting is returned for settings with an empty key.
var ErrInvalidSetting = errors.New("setting key must not be empty")

// Stats aggregates orders placed in a time window.
type Stats struct {
	Orders  int64
	Revenue decimal.Decimal
}

// Dashboard is the admin landing page summary.
type Dashboard struct {
	Today        Stats
	Week         Stats
	RecentOrders []order.Order
	RecentUsers  []user.User
}

// Reporter reads aggregates for the dashboard.
type Reporter interface {
	OrderStats(ctx context.Context, since time.Time) (Stats, error)
	RecentOrders(ctx context.Context, limit int) ([]order.Order, error)
	RecentUsers(ctx context.Context, limit int) ([]user.User, error)
}

// SettingsRepository stores flat string settings.
type SettingsRepository interface {
	All(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, values map[string]string) error
}

// LogReader returns the last lines of the application log, optionally
// filtered by level.
type LogReader interface {
	Tail(lines int, level string) ([]string, error)
}
