// Package memory provides an in-memory participation.Repository. It backs
// local development without a database and the command/query test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/participation"
)

// ParticipationRepository is a mutex-guarded map keyed by
// (courseID, studentID, date). Upserts replace whole records, so readers
// never observe a partial category set.
type ParticipationRepository struct {
	mu      sync.RWMutex
	records map[string]participation.Record
}

// NewParticipationRepository creates an empty repository.
func NewParticipationRepository() *ParticipationRepository {
	return &ParticipationRepository{records: make(map[string]participation.Record)}
}

// Upsert inserts or fully replaces the record at the composite key.
func (r *ParticipationRepository) Upsert(ctx context.Context, courseID, studentID, date string, scores participation.CategoryScores) (participation.Record, error) {
	rec, err := participation.NewRecord(courseID, studentID, date, scores)
	if err != nil {
		return participation.Record{}, err
	}

	now := time.Now().UTC()
	rec.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[rec.Key()]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	r.records[rec.Key()] = rec

	return rec, nil
}

// ListByStudent returns the student's records, newest day first.
func (r *ParticipationRepository) ListByStudent(ctx context.Context, courseID, studentID string, limit int) ([]participation.Record, error) {
	r.mu.RLock()
	var records []participation.Record
	for _, rec := range r.records {
		if rec.CourseID == courseID && rec.StudentID == studentID {
			records = append(records, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Len returns the number of stored records.
func (r *ParticipationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
