package postgres

import (
	"context"
	"fmt"
)

// migrations are applied in order; each must be idempotent so repeated runs
// (server start plus the migrate CLI command) are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS participation_records (
		course_id   TEXT NOT NULL,
		student_id  TEXT NOT NULL,
		date        TEXT NOT NULL,
		preparation INTEGER NOT NULL DEFAULT 0,
		engagement  INTEGER NOT NULL DEFAULT 0,
		critical    INTEGER NOT NULL DEFAULT 0,
		score       INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (course_id, student_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participation_course_student
		ON participation_records (course_id, student_id, date DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, conn *Connection) error {
	for i, stmt := range migrations {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
