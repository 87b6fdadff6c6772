// Package db provides PostgreSQL access for interviews, turn transcripts, and
// user accounts.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the application tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			password_set BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS interviews (
			id TEXT PRIMARY KEY,
			position TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			experience INT NOT NULL DEFAULT 0,
			tech_stack TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT 'Moderate',
			user_id TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			questions JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id TEXT NOT NULL,
			question TEXT NOT NULL,
			ideal_answer TEXT NOT NULL DEFAULT '',
			candidate_answer TEXT NOT NULL DEFAULT '',
			rating INT NOT NULL DEFAULT 0,
			feedback TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS fetched_pages (
			url TEXT PRIMARY KEY,
			html TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			http_status INT NOT NULL DEFAULT 0,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns (session_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews (user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
