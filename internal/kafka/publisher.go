package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// EventPublisher adapts a Producer to orders.Publisher.
type EventPublisher struct{ P *Producer }

var _ orders.Publisher = EventPublisher{}

func (e EventPublisher) Publish(ctx context.Context, topic string, ev orders.Envelope) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	orderID, err := ev.OrderID()
	if err != nil {
		return fmt.Errorf("envelope correlation id: %w", err)
	}
	return e.P.Publish(ctx, topic, orders.PartitionKey(orderID), b,
		kafka.Header{Key: HeaderEventType, Value: []byte(ev.EventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
