package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS instruments (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		maker TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		availability TEXT NOT NULL DEFAULT 'available',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		customer_account_id TEXT,
		guest_email TEXT,
		total_cents BIGINT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK ((customer_account_id IS NULL) <> (guest_email IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS orders_identity_status_idx
		ON orders (customer_account_id, guest_email, status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL REFERENCES orders(id),
		instrument_id TEXT NOT NULL REFERENCES instruments(id),
		title TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		PRIMARY KEY (order_id, instrument_id)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload BYTEA NOT NULL,
		headers JSONB,
		traceparent TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TIMESTAMPTZ,
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables the service needs. Deployments with
// managed migrations can skip it; local and test runs call it at boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
