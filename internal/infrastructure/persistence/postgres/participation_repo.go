package postgres

import (
	"context"

	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/internal/domain/shared"
)

// ParticipationRepository implements participation.Repository for PostgreSQL.
// The composite primary key (course_id, student_id, date) enforces the
// one-record-per-day invariant; the upsert is a single atomic statement, so
// concurrent writers to the same key settle as last-write-wins with no
// interleaved category sets.
type ParticipationRepository struct {
	conn *Connection
}

// NewParticipationRepository creates a new ParticipationRepository.
func NewParticipationRepository(conn *Connection) *ParticipationRepository {
	return &ParticipationRepository{conn: conn}
}

// Upsert inserts or fully replaces the record at (courseID, studentID, date).
func (r *ParticipationRepository) Upsert(ctx context.Context, courseID, studentID, date string, scores participation.CategoryScores) (participation.Record, error) {
	rec, err := participation.NewRecord(courseID, studentID, date, scores)
	if err != nil {
		return participation.Record{}, err
	}

	query := `
		INSERT INTO participation_records (
			course_id, student_id, date, preparation, engagement, critical, score
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (course_id, student_id, date) DO UPDATE SET
			preparation = EXCLUDED.preparation,
			engagement  = EXCLUDED.engagement,
			critical    = EXCLUDED.critical,
			score       = EXCLUDED.score,
			updated_at  = now()
		RETURNING created_at, updated_at
	`

	row := r.conn.QueryRow(ctx, query,
		rec.CourseID,
		rec.StudentID,
		rec.Date,
		rec.Scores.Preparation,
		rec.Scores.Engagement,
		rec.Scores.Critical,
		rec.Score,
	)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return participation.Record{}, shared.WrapError("participation", "Upsert",
			shared.ErrStorageUnavailable, "failed to persist record", err)
	}

	return rec, nil
}

// ListByStudent returns the student's records, newest day first.
func (r *ParticipationRepository) ListByStudent(ctx context.Context, courseID, studentID string, limit int) ([]participation.Record, error) {
	query := `
		SELECT course_id, student_id, date, preparation, engagement, critical, score,
			   created_at, updated_at
		FROM participation_records
		WHERE course_id = $1 AND student_id = $2
		ORDER BY date DESC
	`
	args := []any{courseID, studentID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.WrapError("participation", "ListByStudent",
			shared.ErrStorageUnavailable, "failed to query records", err)
	}
	defer rows.Close()

	var records []participation.Record
	for rows.Next() {
		var rec participation.Record
		if err := rows.Scan(
			&rec.CourseID,
			&rec.StudentID,
			&rec.Date,
			&rec.Scores.Preparation,
			&rec.Scores.Engagement,
			&rec.Scores.Critical,
			&rec.Score,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, shared.WrapError("participation", "ListByStudent",
				shared.ErrStorageUnavailable, "failed to scan record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapError("participation", "ListByStudent",
			shared.ErrStorageUnavailable, "row iteration failed", err)
	}

	return records, nil
}
