package participation

import (
	"context"
	"time"
)

// Repository is durable keyed storage for participation records.
type Repository interface {
	// Upsert atomically replaces the record at (courseID, studentID, date)
	// with the given scores, computing the daily total. Last write wins; no
	// partial category sets are ever observable. Fails with a storage error
	// when the backing store is unreachable.
	Upsert(ctx context.Context, courseID, studentID, date string, scores CategoryScores) (Record, error)

	// ListByStudent returns the student's records for a course, ordered date
	// descending, one per distinct date. limit <= 0 means unbounded; the
	// unbounded form feeds Summarize, the bounded form feeds history display.
	ListByStudent(ctx context.Context, courseID, studentID string, limit int) ([]Record, error)
}

// AggregateCache is an optional read-side cache of per-student aggregates.
// Implementations must be safe to skip: a miss or cache failure falls back to
// recomputing from the Repository.
type AggregateCache interface {
	Get(ctx context.Context, courseID, studentID string) (*Aggregate, error)
	Set(ctx context.Context, courseID, studentID string, agg Aggregate, ttl time.Duration) error
	Invalidate(ctx context.Context, courseID, studentID string) error
}
