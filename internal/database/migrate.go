package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS image_records (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	url         TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
	status      TEXT NOT NULL DEFAULT 'pending',
	uploaded_at TIMESTAMPTZ NOT NULL,
	approved_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_image_records_status ON image_records (status);
`

// Migrate applies the schema. Idempotent, runs at every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
