package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-order-catalog/internal/metrics"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

// OrderCache is the Redis read-through cache in front of order lookups.
// Failures are logged and treated as misses.
type OrderCache struct {
	RDB redis.UniversalClient
	TTL time.Duration
	Log *slog.Logger
}

var _ orders.Cache = (*OrderCache)(nil)

func NewOrderCache(rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *OrderCache {
	if ttl <= 0 {
		ttl = TTLOrderCache
	}
	if log == nil {
		log = slog.Default()
	}
	return &OrderCache{RDB: rdb, TTL: ttl, Log: log}
}

const setRetries = 3

func orderKey(id int64) string { return fmt.Sprintf(KeyOrder, id) }

func (c *OrderCache) GetOrder(ctx context.Context, id int64) (orders.CachedOrder, bool) {
	b, err := c.RDB.Get(ctx, orderKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.Log.WarnContext(ctx, "order cache get", "order_id", id, "err", err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return orders.CachedOrder{}, false
	}
	var e orders.CachedOrder
	if err := json.Unmarshal(b, &e); err != nil {
		c.Log.WarnContext(ctx, "order cache decode", "order_id", id, "err", err)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return orders.CachedOrder{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e, true
}

func (c *OrderCache) FillOrder(ctx context.Context, o orders.Order) {
	b, err := json.Marshal(orders.CachedOrder{Order: o})
	if err != nil {
		return
	}
	if err := c.RDB.SetNX(ctx, orderKey(o.ID), b, c.TTL).Err(); err != nil {
		c.Log.WarnContext(ctx, "order cache fill", "order_id", o.ID, "err", err)
	}
}

// SetOrder compares against the cached entry inside WATCH/MULTI so two
// concurrent writers cannot leave the older status behind.
func (c *OrderCache) SetOrder(ctx context.Context, o orders.Order) {
	key := orderKey(o.ID)
	b, err := json.Marshal(orders.CachedOrder{Order: o})
	if err != nil {
		return
	}
	write := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var e orders.CachedOrder
			if json.Unmarshal(cur, &e) == nil && (e.Gone || e.Order.UpdatedAt.After(o.UpdatedAt)) {
				return nil
			}
		case !errors.Is(err, redis.Nil):
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, c.TTL)
			return nil
		})
		return err
	}
	for i := 0; i < setRetries; i++ {
		err = c.RDB.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		c.Log.WarnContext(ctx, "order cache set", "order_id", o.ID, "err", err)
		// Drop the entry rather than leave a value we could not order.
		_ = c.RDB.Del(ctx, key).Err()
	}
}

func (c *OrderCache) ForgetOrder(ctx context.Context, id int64) {
	b, err := json.Marshal(orders.CachedOrder{Order: orders.Order{ID: id}, Gone: true})
	if err != nil {
		return
	}
	if err := c.RDB.Set(ctx, orderKey(id), b, c.TTL).Err(); err != nil {
		c.Log.WarnContext(ctx, "order cache tombstone", "order_id", id, "err", err)
	}
}
