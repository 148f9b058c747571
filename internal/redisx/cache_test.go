package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-catalog/internal/orders"
	"github.com/ariefcatur/go-order-catalog/internal/testinfra"
)

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "order:42", orderKey(42))
}

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := New(testinfra.RedisAddr(t))
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, Ping(context.Background(), rdb))
	return rdb
}

func TestOrderCacheRoundTrip(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	c := NewOrderCache(rdb, time.Minute, nil)

	o := orders.Order{ID: 9001, ProductID: 1, Quantity: 2, Status: orders.StatusPaid,
		CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, rdb.Del(ctx, orderKey(o.ID)).Err())

	_, ok := c.GetOrder(ctx, o.ID)
	assert.False(t, ok)

	c.FillOrder(ctx, o)
	got, ok := c.GetOrder(ctx, o.ID)
	require.True(t, ok)
	assert.False(t, got.Gone)
	assert.Equal(t, o.Status, got.Order.Status)
	assert.True(t, o.CreatedAt.Equal(got.Order.CreatedAt))

	c.ForgetOrder(ctx, o.ID)
	got, ok = c.GetOrder(ctx, o.ID)
	require.True(t, ok)
	assert.True(t, got.Gone)
}

func TestOrderCacheKeepsNewestWrite(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	c := NewOrderCache(rdb, time.Minute, nil)

	now := time.Now().UTC()
	pending := orders.Order{ID: 9002, Status: orders.StatusPending, UpdatedAt: now.Add(-2 * time.Second)}
	paid := orders.Order{ID: 9002, Status: orders.StatusPaid, UpdatedAt: now.Add(-time.Second)}
	processing := orders.Order{ID: 9002, Status: orders.StatusProcessing, UpdatedAt: now}
	require.NoError(t, rdb.Del(ctx, orderKey(pending.ID)).Err())

	c.SetOrder(ctx, processing)
	c.SetOrder(ctx, paid)     // late writer
	c.FillOrder(ctx, pending) // slow reader

	got, ok := c.GetOrder(ctx, pending.ID)
	require.True(t, ok)
	assert.Equal(t, orders.StatusProcessing, got.Order.Status)

	c.ForgetOrder(ctx, pending.ID)
	c.SetOrder(ctx, processing)
	got, ok = c.GetOrder(ctx, pending.ID)
	require.True(t, ok)
	assert.True(t, got.Gone)
}

func TestDedupClaimOnce(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	d := NewDedup(rdb, "test")
	id := "evt-" + time.Now().Format(time.RFC3339Nano)

	first, err := d.Claim(ctx, id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.Claim(ctx, id)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, d.Release(ctx, id))
	retry, err := d.Claim(ctx, id)
	require.NoError(t, err)
	assert.True(t, retry)
}
