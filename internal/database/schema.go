package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the full DDL for the sasabot store. Stock and price carry
// CHECK constraints so the invariants hold even against a buggy writer.
const Schema = `
CREATE TABLE IF NOT EXISTS businesses (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	owner_phone TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	business_id TEXT NOT NULL REFERENCES businesses(id),
	name        TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL CHECK (price > 0),
	stock       INTEGER NOT NULL CHECK (stock >= 0),
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	brand       TEXT NOT NULL DEFAULT '',
	warranty    TEXT NOT NULL DEFAULT '',
	sku         TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_business ON products(business_id);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	business_id    TEXT NOT NULL REFERENCES businesses(id),
	customer_phone TEXT NOT NULL DEFAULT '',
	items          JSONB NOT NULL DEFAULT '[]',
	total_amount   NUMERIC(12,2) NOT NULL DEFAULT 0,
	delivery_fee   NUMERIC(12,2) NOT NULL DEFAULT 0,
	grand_total    NUMERIC(12,2) NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'pending',
	payment_status TEXT NOT NULL DEFAULT 'pending',
	payment_id     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
	payment_id           TEXT PRIMARY KEY,
	order_id             TEXT NOT NULL REFERENCES orders(id),
	customer_phone       TEXT NOT NULL,
	amount               NUMERIC(12,2) NOT NULL,
	method               TEXT NOT NULL DEFAULT 'mpesa',
	status               TEXT NOT NULL DEFAULT 'pending',
	transaction_id       TEXT,
	failure_reason       TEXT,
	processing_delay_sec INTEGER NOT NULL DEFAULT 0,
	initiated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_payments_order ON payments(order_id);
`

// Migrate applies the schema to the connected database. The DDL is
// idempotent, so it is safe to run at every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		logger.Error().Err(err).Msg("failed to apply schema")
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Msg("database schema applied")
	return nil
}
