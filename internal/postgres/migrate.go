package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id     BIGSERIAL PRIMARY KEY,
		sku            TEXT NOT NULL UNIQUE,
		product_name   TEXT NOT NULL,
		price          DOUBLE PRECISION NOT NULL,
		stock_quantity INTEGER NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT check_price_positive CHECK (price > 0),
		CONSTRAINT check_stock_non_negative CHECK (stock_quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id   BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(product_id),
		quantity   INTEGER NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT check_quantity_positive CHECK (quantity > 0),
		CONSTRAINT check_status_known CHECK (status IN
			('PENDING','PAID','PROCESSING','SHIPPED','DELIVERED','COMPLETED','CANCELLED'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_product_id ON orders(product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
	`CREATE TABLE IF NOT EXISTS order_events (
		event_id      UUID PRIMARY KEY,
		event_type    TEXT NOT NULL,
		event_version INTEGER NOT NULL,
		order_id      BIGINT NOT NULL,
		topic         TEXT NOT NULL DEFAULT '',
		producer      TEXT NOT NULL,
		trace_id      TEXT,
		occurred_at   TIMESTAMPTZ NOT NULL,
		payload       JSONB NOT NULL,
		recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id, occurred_at)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
