package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// ConnectPostgres opens an instrumented connection pool and checks it is reachable.
func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq            BIGSERIAL PRIMARY KEY,
		id             UUID NOT NULL UNIQUE,
		aggregate_id   TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		data           JSONB NOT NULL,
		version        INTEGER NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		UNIQUE (aggregate_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		aggregate_id   TEXT PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		version        INTEGER NOT NULL,
		state          JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS read_products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12, 2) NOT NULL,
		category    TEXT NOT NULL,
		image       TEXT NOT NULL,
		images      JSONB NOT NULL DEFAULT '[]',
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS read_products_created_at_idx ON read_products (created_at DESC)`,
}

// Migrate creates the tables the stores need when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
