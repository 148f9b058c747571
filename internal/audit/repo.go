package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Record(ctx context.Context, rec Record) (bool, error) {
	env := rec.Envelope
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO order_events
			(event_id, event_type, event_version, order_id, topic, producer, trace_id, occurred_at, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING`,
		env.EventID, env.EventType, env.EventVersion, rec.OrderID, rec.Topic,
		env.Producer, env.TraceID, env.OccurredAt, []byte(env.Payload), rec.RecordedAt,
	)
	if err != nil {
		return false, apperr.Storage(err, "insert order event")
	}
	return tag.RowsAffected() == 1, nil
}

type Entry struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OrderID    int64     `json:"order_id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
}

// History lists the recorded events of one order, oldest first.
func (r *Repo) History(ctx context.Context, orderID int64) ([]Entry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT event_id::text, event_type, order_id, topic, occurred_at
		FROM order_events WHERE order_id = $1
		ORDER BY occurred_at, recorded_at`, orderID)
	if err != nil {
		return nil, apperr.Storage(err, "query order events")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EventID, &e.EventType, &e.OrderID, &e.Topic, &e.OccurredAt); err != nil {
			return nil, apperr.Storage(err, "scan order event")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "iterate order events")
	}
	return out, nil
}
