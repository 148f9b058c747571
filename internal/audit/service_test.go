package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-catalog/internal/metrics"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

type memRecorder struct {
	mu   sync.Mutex
	seen map[string]Record
	err  error
}

func (r *memRecorder) Record(_ context.Context, rec Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.seen == nil {
		r.seen = map[string]Record{}
	}
	if _, ok := r.seen[rec.Envelope.EventID]; ok {
		return false, nil
	}
	r.seen[rec.Envelope.EventID] = rec
	return true, nil
}

type memDedup struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
	err      error
}

func (d *memDedup) Claim(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.claimed == nil {
		d.claimed = map[string]bool{}
	}
	if d.claimed[id] {
		return false, nil
	}
	d.claimed[id] = true
	return true, nil
}

func (d *memDedup) Release(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, id)
	d.released = append(d.released, id)
	return nil
}

func message(t *testing.T, eventType string, orderID int64) (kafkago.Message, orders.Envelope) {
	t.Helper()
	ev, err := orders.NewEnvelope(eventType, "test", "req-1", orderID,
		orders.OrderStatusChangedPayload{OrderID: orderID, From: orders.StatusPending, To: orders.StatusPaid})
	require.NoError(t, err)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkago.Message{Topic: orders.TopicOrderStatusChanged, Value: b}, ev
}

func TestHandleEventRecordsOnce(t *testing.T) {
	rec, dd := &memRecorder{}, &memDedup{}
	svc := NewService(rec, dd, nil)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.Now = func() time.Time { return fixed }

	m, ev := message(t, orders.EventOrderStatusChanged, 9)
	dupBefore := testutil.ToFloat64(metrics.EventsRecorded.WithLabelValues("duplicate"))

	require.NoError(t, svc.HandleEvent(context.Background(), m))
	require.NoError(t, svc.HandleEvent(context.Background(), m))

	require.Len(t, rec.seen, 1)
	got := rec.seen[ev.EventID]
	assert.EqualValues(t, 9, got.OrderID)
	assert.Equal(t, orders.TopicOrderStatusChanged, got.Topic)
	assert.Equal(t, fixed, got.RecordedAt)
	assert.Equal(t, dupBefore+1, testutil.ToFloat64(metrics.EventsRecorded.WithLabelValues("duplicate")))
}

func TestHandleEventFallsBackToTableWhenDedupFails(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(rec, &memDedup{err: errors.New("redis down")}, nil)

	m, _ := message(t, orders.EventOrderPlaced, 1)
	require.NoError(t, svc.HandleEvent(context.Background(), m))
	require.NoError(t, svc.HandleEvent(context.Background(), m))
	assert.Len(t, rec.seen, 1)
}

func TestHandleEventReleasesClaimOnStorageError(t *testing.T) {
	rec, dd := &memRecorder{err: errors.New("db down")}, &memDedup{}
	svc := NewService(rec, dd, nil)

	m, ev := message(t, orders.EventOrderDeleted, 4)
	require.Error(t, svc.HandleEvent(context.Background(), m))
	assert.Equal(t, []string{ev.EventID}, dd.released)

	// The redelivery is processed once storage recovers.
	rec.err = nil
	require.NoError(t, svc.HandleEvent(context.Background(), m))
	assert.Len(t, rec.seen, 1)
}

func TestHandleEventSkipsMalformedMessages(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(rec, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, kafkago.Message{Value: []byte("{not json")}))

	unknown, _ := message(t, "StockReserved", 1)
	require.NoError(t, svc.HandleEvent(ctx, unknown))

	bad, _ := message(t, orders.EventOrderPlaced, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(bad.Value, &env))
	env.CorrelationID = "abc"
	bad.Value, _ = json.Marshal(env)
	require.NoError(t, svc.HandleEvent(ctx, bad))

	assert.Empty(t, rec.seen)
}
