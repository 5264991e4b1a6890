package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// ordersSchema is applied on start; it must stay idempotent
const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id                UUID PRIMARY KEY,
	company_name      TEXT NOT NULL,
	email             TEXT NOT NULL,
	delivery_address  TEXT NOT NULL,
	note              TEXT NOT NULL DEFAULT '',
	delivery_date     DATE NOT NULL,
	team_size         INTEGER NOT NULL,
	mood              TEXT NOT NULL DEFAULT '',
	frequency         TEXT NOT NULL,
	add_ons           JSONB NOT NULL DEFAULT '[]',
	box_items         JSONB NOT NULL,
	per_delivery      BIGINT NOT NULL,
	multiplier        BIGINT NOT NULL,
	total_price       BIGINT NOT NULL,
	amount_minor      BIGINT NOT NULL,
	currency          TEXT NOT NULL,
	payment_reference TEXT,
	status            TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC);
`

// Connect opens a Postgres connection through the pgx stdlib driver and pings it
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connect: database connection established")
	return conn, nil
}

// Migrate creates the orders table when it does not exist
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, ordersSchema); err != nil {
		return fmt.Errorf("failed to migrate orders table: %w", err)
	}
	return nil
}
