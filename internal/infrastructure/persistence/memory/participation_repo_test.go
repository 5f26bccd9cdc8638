package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/participation-hub/internal/domain/participation"
)

func TestUpsertIsLastWriteWins(t *testing.T) {
	repo := NewParticipationRepository()
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "c1", "s1", "2025-03-01", participation.CategoryScores{Preparation: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Score)

	second, err := repo.Upsert(ctx, "c1", "s1", "2025-03-01", participation.CategoryScores{Preparation: 5, Engagement: 5, Critical: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, second.Score)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "replacement keeps the original creation time")

	records, err := repo.ListByStudent(ctx, "c1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1, "exactly one record per (course, student, date)")
	assert.Equal(t, participation.CategoryScores{Preparation: 5, Engagement: 5, Critical: 5}, records[0].Scores)
}

func TestListByStudentOrderAndLimit(t *testing.T) {
	repo := NewParticipationRepository()
	ctx := context.Background()

	for _, date := range []string{"2025-03-02", "2025-03-01", "2025-03-03"} {
		_, err := repo.Upsert(ctx, "c1", "s1", date, participation.CategoryScores{Preparation: 1})
		require.NoError(t, err)
	}
	// Another student's records must not leak in.
	_, err := repo.Upsert(ctx, "c1", "s2", "2025-03-01", participation.CategoryScores{Preparation: 5})
	require.NoError(t, err)

	records, err := repo.ListByStudent(ctx, "c1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2025-03-03", records[0].Date)
	assert.Equal(t, "2025-03-02", records[1].Date)
	assert.Equal(t, "2025-03-01", records[2].Date)

	limited, err := repo.ListByStudent(ctx, "c1", "s1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2025-03-03", limited[0].Date)
}

func TestUpsertValidates(t *testing.T) {
	repo := NewParticipationRepository()
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "", "s1", "2025-03-01", participation.CategoryScores{})
	assert.ErrorIs(t, err, participation.ErrMissingCourseID)

	_, err = repo.Upsert(ctx, "c1", "s1", "2025-03-01", participation.CategoryScores{Preparation: 9})
	assert.Error(t, err)
	assert.Equal(t, 0, repo.Len())
}

func TestConcurrentUpsertsSameKey(t *testing.T) {
	repo := NewParticipationRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, err := repo.Upsert(ctx, "c1", "s1", "2025-03-01", participation.CategoryScores{Preparation: score % 6})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := repo.ListByStudent(ctx, "c1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	// Whichever write won, the record is internally consistent.
	assert.Equal(t, records[0].Scores.Total(), records[0].Score)
}
