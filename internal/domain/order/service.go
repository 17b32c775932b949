package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sgjo/shop-api/internal/domain/coupon"
)

// Service encapsulates checkout and order management logic.
type Service struct {
	store  Store
	tracer trace.Tracer
	placed metric.Int64Counter
	failed metric.Int64Counter
}

// NewService creates an order Service with the required dependencies.
func NewService(store Store, tp trace.TracerProvider, mp metric.MeterProvider) (*Service, error) {
	meter := mp.Meter("github.com/sgjo/shop-api/internal/domain/order")

	placed, err := meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Number of orders successfully placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	failed, err := meter.Int64Counter("shop.orders.failed",
		metric.WithDescription("Number of checkouts rejected or failed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders failed counter")
	}

	return &Service{
		store:  store,
		tracer: tp.Tracer("github.com/sgjo/shop-api/internal/domain/order"),
		placed: placed,
		failed: failed,
	}, nil
}

// PlaceOrder converts the cart into a pending order. Every step runs in one
// transaction: on any failure no order is written, stock is unchanged and
// the cart is left intact.
func (s *Service) PlaceOrder(ctx context.Context, cartID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.String("cart.id", cartID)),
	)
	defer span.End()

	var placed *Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := checkout(ctx, tx, cartID)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		s.failed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.placed.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int64("order.id", placed.ID),
		attribute.String("order.total", placed.Total.StringFixed(2)),
	)
	return placed, nil
}

func checkout(ctx context.Context, tx Tx, cartID string) (*Order, error) {
	lines, err := tx.CartLines(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]Item, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		p, err := tx.LockProduct(ctx, l.ProductID)
		if errors.Is(err, ErrInvalidProduct) {
			return nil, &LineError{ProductID: l.ProductID, Requested: l.Qty, Err: ErrInvalidProduct}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", l.ProductID, err)
		}
		if l.Qty > p.Stock {
			return nil, &LineError{
				ProductID: l.ProductID,
				Requested: l.Qty,
				Available: p.Stock,
				Err:       ErrInsufficientStock,
			}
		}

		items = append(items, Item{ProductID: p.ID, Name: p.Name, Qty: l.Qty, Price: p.Price})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	discount, err := tx.CartDiscount(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart discount: %w", err)
	}

	o := &Order{
		CartID: cartID,
		Total:  coupon.ApplyTo(subtotal, discount),
		Status: StatusPending,
	}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	if err := tx.InsertItems(ctx, o.ID, items); err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}
	for _, it := range items {
		if err := tx.DecrementStock(ctx, it.ProductID, it.Qty); err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", it.ProductID, err)
		}
	}
	if err := tx.ClearCart(ctx, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	o.Items = items
	return o, nil
}

// UpdateStatus sets an order's status. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return errors.Wrapf(ErrInvalidStatus, "%q", status)
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, errors.Wrapf(ErrInvalidStatus, "%q", *f.Status)
	}
	return s.store.List(ctx, f)
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.store.Get(ctx, id)
}
