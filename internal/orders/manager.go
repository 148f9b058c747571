package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
	"github.com/ariefcatur/go-order-catalog/internal/metrics"
)

// Manager owns the reservation transaction and the status lifecycle.
type Manager struct {
	Store   Store
	Policy  Policy
	Cache   Cache
	Events  Publisher
	Service string
	Log     *slog.Logger
	Now     func() time.Time
}

func NewManager(store Store, policy Policy, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if policy == "" {
		policy = PolicyStrict
	}
	return &Manager{
		Store:  store,
		Policy: policy,
		Cache:  noopCache{},
		Events: noopPublisher{},
		Log:    log,
		Now:    time.Now,
	}
}

// PlaceOrder reserves qty units of the product and records a PENDING order in
// one transaction. A zero createdAt means now.
func (m *Manager) PlaceOrder(ctx context.Context, productID int64, qty int, createdAt time.Time) (Order, error) {
	if qty <= 0 || qty > catalog.MaxQuantity {
		return Order{}, m.reject(ctx, "place", ErrInvalidQuantity)
	}
	if productID <= 0 {
		return Order{}, m.reject(ctx, "place", catalog.ErrProductNotFound)
	}
	if createdAt.IsZero() {
		createdAt = m.Now()
	}
	createdAt = createdAt.UTC()

	var (
		placed    Order
		remaining int
	)
	err := m.Store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}
		if qty > p.StockQuantity {
			return insufficientStock(p, qty)
		}
		p, err = tx.DecrementStock(ctx, productID, qty)
		if err != nil {
			return err
		}
		remaining = p.StockQuantity

		placed, err = tx.InsertOrder(ctx, Order{
			ProductID: productID,
			Quantity:  qty,
			Status:    StatusPending,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
		return err
	})
	if err != nil {
		return Order{}, m.reject(ctx, "place", err)
	}

	metrics.OrdersPlaced.Inc()
	m.log(ctx).InfoContext(ctx, "order placed",
		"order_id", placed.ID, "product_id", productID, "quantity", qty, "remaining_stock", remaining)
	m.publish(ctx, TopicOrderPlaced, EventOrderPlaced, placed.ID, OrderPlacedPayload{
		OrderID:        placed.ID,
		ProductID:      productID,
		Quantity:       qty,
		Status:         placed.Status,
		RemainingStock: remaining,
	})
	return placed, nil
}

// UpdateStatus moves an order to a new status under the configured policy.
func (m *Manager) UpdateStatus(ctx context.Context, orderID int64, raw string) (Order, error) {
	next, err := ParseStatus(raw)
	if err != nil {
		return Order{}, m.reject(ctx, "update_status", err)
	}

	var prev Status
	var updated Order
	err = m.Store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := m.Policy.Check(cur.Status, next); err != nil {
			return err
		}
		prev = cur.Status
		updated, err = tx.SetOrderStatus(ctx, orderID, next, m.Now().UTC())
		return err
	})
	if err != nil {
		return Order{}, m.reject(ctx, "update_status", err)
	}

	m.Cache.SetOrder(ctx, updated)
	metrics.StatusTransitions.WithLabelValues(string(prev), string(next)).Inc()
	m.log(ctx).InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", prev, "to", next)
	m.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, orderID, OrderStatusChangedPayload{
		OrderID: orderID, From: prev, To: next,
	})
	return updated, nil
}

// DeleteOrder removes a non-terminal order. Reserved stock stays consumed.
func (m *Manager) DeleteOrder(ctx context.Context, orderID int64) error {
	var removed Order
	err := m.Store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return ErrTerminalDelete
		}
		removed = cur
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return m.reject(ctx, "delete", err)
	}

	m.Cache.ForgetOrder(ctx, orderID)
	m.log(ctx).InfoContext(ctx, "order deleted", "order_id", orderID, "status", removed.Status)
	m.publish(ctx, TopicOrderDeleted, EventOrderDeleted, orderID, OrderDeletedPayload{
		OrderID: orderID, ProductID: removed.ProductID, Status: removed.Status,
	})
	return nil
}

func (m *Manager) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	if orderID <= 0 {
		return Order{}, ErrOrderNotFound
	}
	if c, ok := m.Cache.GetOrder(ctx, orderID); ok {
		if c.Gone {
			return Order{}, ErrOrderNotFound
		}
		return c.Order, nil
	}
	o, err := m.Store.FindOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	m.Cache.FillOrder(ctx, o)
	return o, nil
}

func (m *Manager) ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Newf(apperr.KindInvalidStatus, "invalid status %q", string(f.Status))
	}
	return m.Store.ListOrders(ctx, f.normalize())
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	return logger.FromCtxOr(ctx, m.Log)
}

func (m *Manager) reject(ctx context.Context, op string, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		err = apperr.Storage(err, op+" order")
	}
	kind := apperr.KindOf(err)
	metrics.OrdersRejected.WithLabelValues(op, kind.String()).Inc()

	log := m.log(ctx)
	if kind == apperr.KindStorage || kind == apperr.KindInternal {
		log.ErrorContext(ctx, "order operation failed", "operation", op, "err", err)
	} else {
		log.DebugContext(ctx, "order operation rejected", "operation", op, "reason", kind, "err", err)
	}
	return err
}

func (m *Manager) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	ev, err := NewEnvelope(eventType, m.Service, logger.RequestID(ctx), orderID, payload)
	if err == nil {
		err = m.Events.Publish(ctx, topic, ev)
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		m.log(ctx).WarnContext(ctx, "publish lifecycle event",
			"topic", topic, "order_id", orderID, "err", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()
}
