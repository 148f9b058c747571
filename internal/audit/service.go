// Package audit records every order lifecycle event exactly once in the
// order_events table.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-order-catalog/internal/kafka"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
	"github.com/ariefcatur/go-order-catalog/internal/metrics"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

// Deduper is satisfied by redisx.Dedup.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Recorder interface {
	// Record returns false when the event id was already stored.
	Record(ctx context.Context, rec Record) (bool, error)
}

type Record struct {
	Envelope   orders.Envelope
	OrderID    int64
	Topic      string
	RecordedAt time.Time
}

type Service struct {
	Repo  Recorder
	Dedup Deduper
	Log   *slog.Logger
	Now   func() time.Time
}

func NewService(repo Recorder, dedup Deduper, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Repo: repo, Dedup: dedup, Log: log, Now: time.Now}
}

// HandleEvent is installed as the consumer handler. Malformed messages are
// logged and skipped so they do not block the partition.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		s.skip(ctx, m, "decode envelope", err)
		return nil
	}
	if !known(env.EventType) || env.EventID == "" {
		s.skip(ctx, m, "unknown event", fmt.Errorf("type=%q id=%q", env.EventType, env.EventID))
		return nil
	}
	orderID, err := env.OrderID()
	if err != nil {
		s.skip(ctx, m, "correlation id", err)
		return nil
	}

	log := logger.FromCtxOr(ctx, s.Log).With("event_id", env.EventID, "event_type", env.EventType, "order_id", orderID)

	if s.Dedup != nil {
		first, err := s.Dedup.Claim(ctx, env.EventID)
		if err != nil {
			// Redis is an optimisation; the unique event id still protects the table.
			log.Warn("dedup claim failed", "err", err)
			first = true
		}
		if !first {
			metrics.EventsRecorded.WithLabelValues("duplicate").Inc()
			return nil
		}
	}

	inserted, err := s.Repo.Record(ctx, Record{
		Envelope:   env,
		OrderID:    orderID,
		Topic:      m.Topic,
		RecordedAt: s.Now().UTC(),
	})
	if err != nil {
		if s.Dedup != nil {
			if rerr := s.Dedup.Release(ctx, env.EventID); rerr != nil {
				log.Warn("dedup release failed", "err", rerr)
			}
		}
		metrics.EventsRecorded.WithLabelValues("error").Inc()
		return fmt.Errorf("record event %s: %w", env.EventID, err)
	}
	if !inserted {
		metrics.EventsRecorded.WithLabelValues("duplicate").Inc()
		return nil
	}
	metrics.EventsRecorded.WithLabelValues("ok").Inc()
	log.Debug("event recorded")
	return nil
}

func (s *Service) skip(ctx context.Context, m kafkago.Message, reason string, err error) {
	metrics.EventsRecorded.WithLabelValues("skipped").Inc()
	logger.FromCtxOr(ctx, s.Log).Warn("skip message", "reason", reason, "topic", m.Topic, "offset", m.Offset, "err", err)
}

func known(eventType string) bool {
	switch eventType {
	case orders.EventOrderPlaced, orders.EventOrderStatusChanged, orders.EventOrderDeleted:
		return true
	}
	return false
}
