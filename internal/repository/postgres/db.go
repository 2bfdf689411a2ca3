// Package postgres is the durable click store built on pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitDB creates a connection pool and checks that the database answers
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS platform_clicks (
	id            BIGSERIAL PRIMARY KEY,
	track_id      TEXT        NOT NULL,
	track_name    TEXT        NOT NULL,
	artist_name   TEXT        NOT NULL DEFAULT '',
	platform      TEXT        NOT NULL,
	platform_name TEXT        NOT NULL DEFAULT '',
	url           TEXT        NOT NULL DEFAULT '',
	clicked_at    TIMESTAMPTZ NOT NULL,
	user_agent    TEXT        NOT NULL DEFAULT '',
	referrer      TEXT        NOT NULL DEFAULT '',
	country       TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_platform_clicks_track ON platform_clicks (track_id);
CREATE INDEX IF NOT EXISTS idx_platform_clicks_platform ON platform_clicks (platform);
CREATE INDEX IF NOT EXISTS idx_platform_clicks_clicked_at ON platform_clicks (clicked_at DESC);
`

// EnsureSchema creates the click table and its indexes if they are missing
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
