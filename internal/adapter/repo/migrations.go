package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS jobs (
    id               TEXT PRIMARY KEY,
    camera_control   TEXT NOT NULL DEFAULT 'stationary',
    video_size       TEXT NOT NULL DEFAULT '720p',
    duration_seconds INT  NOT NULL DEFAULT 5,
    small_image_url  TEXT NOT NULL DEFAULT '',
    prompt           TEXT NOT NULL DEFAULT '',
    prediction_id    TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'pending',
    error_message    TEXT NOT NULL DEFAULT '',
    video_url        TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	`CREATE INDEX IF NOT EXISTS jobs_prediction_id_idx ON jobs (prediction_id) WHERE prediction_id <> '';`,
	`CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status);`,
}

// RunMigrations executes the schema migrations in order.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for i, sql := range migrations {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("exec migration %d: %w", i, err)
		}
	}
	return nil
}
