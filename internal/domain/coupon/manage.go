package coupon

import (
	"context"
	"strings"
)

// Manager validates coupon definitions before handing them to the Repository.
type Manager struct {
	repo Repository
}

// NewManager creates a Manager backed by the given Repository.
func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo}
}

// List returns every coupon, active or not.
func (m *Manager) List(ctx context.Context) ([]Coupon, error) {
	return m.repo.List(ctx)
}

// Create validates and persists a new coupon.
func (m *Manager) Create(ctx context.Context, c *Coupon) error {
	c.Code = strings.TrimSpace(c.Code)
	if err := c.Validate(); err != nil {
		return err
	}
	return m.repo.Create(ctx, c)
}

// Update validates and replaces an existing coupon definition.
func (m *Manager) Update(ctx context.Context, c *Coupon) error {
	c.Code = strings.TrimSpace(c.Code)
	if err := c.Validate(); err != nil {
		return err
	}
	return m.repo.Update(ctx, c)
}

// Delete removes a coupon. Discounts already applied to carts are kept.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	return m.repo.Delete(ctx, id)
}
