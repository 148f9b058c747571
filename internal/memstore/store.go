// Package memstore is an in-process implementation of the catalog and order
// stores. Transactions are serialised by one mutex and applied to a copy of
// the state that replaces the live state only on commit.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

type state struct {
	products    map[int64]catalog.Product
	orders      map[int64]orders.Order
	nextProduct int64
	nextOrder   int64
}

func (s *state) clone() *state {
	c := &state{
		products:    make(map[int64]catalog.Product, len(s.products)),
		orders:      make(map[int64]orders.Order, len(s.orders)),
		nextProduct: s.nextProduct,
		nextOrder:   s.nextOrder,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var (
	_ catalog.Store = (*Store)(nil)
	_ orders.Store  = (*Store)(nil)
)

func New() *Store {
	return &Store{
		st: &state{
			products: map[int64]catalog.Product{},
			orders:   map[int64]orders.Order{},
		},
		now: time.Now,
	}
}

// ---- catalog.Store ----

func (s *Store) CreateProduct(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.st.products {
		if p.SKU == in.SKU {
			return catalog.Product{}, catalog.ErrDuplicateSKU
		}
	}
	s.st.nextProduct++
	created := in.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	p := catalog.Product{
		ID:            s.st.nextProduct,
		SKU:           in.SKU,
		Name:          in.Name,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	s.st.products[p.ID] = p
	return p, nil
}

func (s *Store) FindProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *Store) FindProductBySKU(ctx context.Context, sku string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.st.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrProductNotFound
}

func (s *Store) ListProducts(ctx context.Context, page catalog.Page) ([]catalog.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]catalog.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, page.Limit, page.Offset), len(all), nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, in catalog.ProductInput) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.st.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	for _, other := range s.st.products {
		if other.ID != id && other.SKU == in.SKU {
			return catalog.Product{}, catalog.ErrDuplicateSKU
		}
	}
	p.SKU = in.SKU
	p.Name = in.Name
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.UpdatedAt = s.now().UTC()
	s.st.products[id] = p
	return p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	for _, o := range s.st.orders {
		if o.ProductID == id {
			return catalog.ErrProductInUse
		}
	}
	delete(s.st.products, id)
	return nil
}

// ---- orders.Store ----

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Storage(err, "begin transaction")
	}
	work := s.st.clone()
	if err := fn(ctx, &tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) FindOrder(ctx context.Context, id int64) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, f orders.ListFilter) ([]orders.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []orders.Order
	for _, o := range s.st.orders {
		if f.ProductID != 0 && o.ProductID != f.ProductID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, f.Limit, f.Offset), len(all), nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) LockProduct(ctx context.Context, productID int64) (catalog.Product, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (t *tx) DecrementStock(ctx context.Context, productID int64, qty int) (catalog.Product, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if p.StockQuantity < qty {
		return catalog.Product{}, apperr.Newf(apperr.KindInsufficientStock,
			"insufficient stock for product %d", productID)
	}
	p.StockQuantity -= qty
	p.UpdatedAt = t.now().UTC()
	t.st.products[productID] = p
	return p, nil
}

func (t *tx) InsertOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	if _, ok := t.st.products[o.ProductID]; !ok {
		return orders.Order{}, catalog.ErrProductNotFound
	}
	t.st.nextOrder++
	o.ID = t.st.nextOrder
	t.st.orders[o.ID] = o
	return o, nil
}

func (t *tx) LockOrder(ctx context.Context, id int64) (orders.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (t *tx) SetOrderStatus(ctx context.Context, id int64, s orders.Status, at time.Time) (orders.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	o.Status = s
	o.UpdatedAt = at
	t.st.orders[id] = o
	return o, nil
}

func (t *tx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := t.st.orders[id]; !ok {
		return orders.ErrOrderNotFound
	}
	delete(t.st.orders, id)
	return nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
