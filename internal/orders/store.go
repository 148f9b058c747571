package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-order-catalog/internal/catalog"
)

// Tx is the unit of work the manager runs its rules in. Every method sees and
// writes through the same storage transaction.
type Tx interface {
	// LockProduct reads a product and holds it against concurrent reservations
	// until the transaction ends.
	LockProduct(ctx context.Context, productID int64) (catalog.Product, error)
	// DecrementStock must fail with InsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, productID int64, qty int) (catalog.Product, error)
	InsertOrder(ctx context.Context, o Order) (Order, error)
	LockOrder(ctx context.Context, id int64) (Order, error)
	SetOrderStatus(ctx context.Context, id int64, s Status, at time.Time) (Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type Store interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	FindOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error)
}

// CachedOrder is one cache entry. Gone marks the tombstone of a deleted order.
type CachedOrder struct {
	Order Order `json:"order"`
	Gone  bool  `json:"gone,omitempty"`
}

// Cache is a best-effort read cache in front of FindOrder.
type Cache interface {
	GetOrder(ctx context.Context, id int64) (CachedOrder, bool)
	// FillOrder stores a value read from the store only when nothing is cached
	// for its id, so a slow reader never replaces a later write.
	FillOrder(ctx context.Context, o Order)
	// SetOrder stores a committed write unless the entry holds a newer
	// UpdatedAt or a tombstone.
	SetOrder(ctx context.Context, o Order)
	// ForgetOrder leaves a tombstone that reads as not found until it expires.
	ForgetOrder(ctx context.Context, id int64)
}

// Publisher ships lifecycle events after their transaction committed.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Envelope) error
}

type noopCache struct{}

func (noopCache) GetOrder(context.Context, int64) (CachedOrder, bool) { return CachedOrder{}, false }
func (noopCache) FillOrder(context.Context, Order)                    {}
func (noopCache) SetOrder(context.Context, Order)                     {}
func (noopCache) ForgetOrder(context.Context, int64)                  {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, Envelope) error { return nil }
