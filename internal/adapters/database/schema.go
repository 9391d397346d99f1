package database

import (
	"context"
	"fmt"

	"github.com/gotham-app/backend/internal/infrastructure/clients/postgres"
)

// schema mirrors the document store's indexes: unique like pairs and one
// check-in per user, place and day
var schema = []string{
	`CREATE TABLE IF NOT EXISTS places (
		id                TEXT PRIMARY KEY,
		text              TEXT NOT NULL,
		image_url         TEXT NOT NULL DEFAULT '',
		percent           DOUBLE PRECISION NOT NULL DEFAULT 0,
		capacity          INTEGER NOT NULL DEFAULT 0,
		current_occupancy INTEGER NOT NULL DEFAULT 0 CHECK (current_occupancy >= 0),
		photos            TEXT[] NOT NULL DEFAULT '{}',
		tags              TEXT[] NOT NULL DEFAULT '{}',
		description       TEXT NOT NULL DEFAULT '',
		address           TEXT NOT NULL DEFAULT '',
		phone             TEXT NOT NULL DEFAULT '',
		latitude          DOUBLE PRECISION,
		longitude         DOUBLE PRECISION,
		owner             TEXT NOT NULL DEFAULT '',
		members           TEXT[] NOT NULL DEFAULT '{}',
		like_count        INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS places_created_at_idx ON places (created_at DESC, id)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		place_id   TEXT NOT NULL REFERENCES places (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, place_id)
	)`,
	`CREATE INDEX IF NOT EXISTS likes_created_at_idx ON likes (created_at)`,
	`CREATE TABLE IF NOT EXISTS checkins (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		place_id   TEXT NOT NULL REFERENCES places (id) ON DELETE CASCADE,
		day        TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, place_id, day)
	)`,
	`CREATE INDEX IF NOT EXISTS checkins_created_at_idx ON checkins (created_at)`,
}

// EnsureSchema creates the tables and indexes when missing
func EnsureSchema(ctx context.Context, client *postgres.Client) error {
	for _, stmt := range schema {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
