package admin

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Service serves admin reports.
type Service struct {
	reports  Reporter
	settings SettingsRepository
	logs     LogReader
	now      func() time.Time
}

// NewService creates an admin Service.
func NewService(reports Reporter, settings SettingsRepository, logs LogReader) *Service {
	return &Service{
		reports:  reports,
		settings: settings,
		logs:     logs,
		now:      time.Now,
	}
}

// Dashboard returns order counts and revenue for today and the last seven
// days, plus the most recent orders and sign-ups.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	today, err := s.reports.OrderStats(ctx, startOfDay)
	if err != nil {
		return nil, errors.Wrap(err, "today stats")
	}
	week, err := s.reports.OrderStats(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, errors.Wrap(err, "week stats")
	}
	orders, err := s.reports.RecentOrders(ctx, recentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "recent orders")
	}
	users, err := s.reports.RecentUsers(ctx, recentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "recent users")
	}

	return &Dashboard{
		Today:        today,
		Week:         week,
		RecentOrders: orders,
		RecentUsers:  users,
	}, nil
}

// Settings returns all settings.
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	return s.settings.All(ctx)
}

// UpdateSettings upserts every key in values.
func (s *Service) UpdateSettings(ctx context.Context, values map[string]string) error {
	for k := range values {
		if strings.TrimSpace(k) == "" {
			return ErrInvalidSetting
		}
	}
	if len(values) == 0 {
		return nil
	}
	return s.settings.Upsert(ctx, values)
}

// Logs returns up to lines trailing log lines. Non-positive values select
// the default and the count is capped.
func (s *Service) Logs(lines int, level string) ([]string, error) {
	if lines <= 0 {
		lines = defaultLogLines
	}
	lines = min(lines, maxLogLines)
	return s.logs.Tail(lines, strings.ToLower(strings.TrimSpace(level)))
}
