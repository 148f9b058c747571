package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
	err    error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducerFlushesInboxOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, nil)
	p.Start(context.Background())

	ctx := context.Background()
	for _, k := range []string{"1", "2", "3"} {
		require.NoError(t, p.Publish(ctx, "t", []byte(k), []byte("v")))
	}
	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 3)
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(ctx, "t", nil, nil), ErrProducerClosed)

	p.Close() // second close is a no-op
}

func TestProducerSurvivesWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newProducer(w, 1, nil)
	p.Start(context.Background())

	require.NoError(t, p.Publish(context.Background(), "t", nil, []byte("x")))
	p.Close()
	p.WaitClosed()
	assert.True(t, w.closed)
}

func TestPublishDropsWhenInboxFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, nil)
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "t", nil, nil))

	// Nothing drains the inbox yet; the second message must not block.
	done := make(chan error, 1)
	go func() { done <- p.Publish(ctx, "t", nil, nil) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrInboxFull)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full inbox")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, p.Publish(cancelled, "t", nil, nil), context.Canceled)

	p.Start(ctx)
	p.Close()
	p.WaitClosed()
}

func TestEventPublisherSetsKeyAndHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, nil)
	p.Start(context.Background())

	ev, err := orders.NewEnvelope(orders.EventOrderPlaced, "svc", "", 77,
		orders.OrderPlacedPayload{OrderID: 77, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, EventPublisher{P: p}.Publish(context.Background(), orders.TopicOrderPlaced, ev))
	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, orders.TopicOrderPlaced, m.Topic)
	assert.Equal(t, []byte("77"), m.Key)
	assert.Equal(t, HeaderEventType, m.Headers[0].Key)
	assert.Equal(t, orders.EventOrderPlaced, string(m.Headers[0].Value))

	var got orders.Envelope
	require.NoError(t, json.Unmarshal(m.Value, &got))
	payload, err := UnwrapPayload[orders.OrderPlacedPayload](got.Payload)
	require.NoError(t, err)
	assert.EqualValues(t, 77, payload.OrderID)
	assert.Equal(t, 2, payload.Quantity)
}
