package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/internal/domain/shared"
	"github.com/classpulse/participation-hub/internal/infrastructure/persistence/memory"
)

// fakeCache is an in-memory participation.AggregateCache with call counters.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]participation.Aggregate
	gets    int
	sets    int
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]participation.Aggregate)}
}

func (c *fakeCache) key(courseID, studentID string) string { return courseID + ":" + studentID }

func (c *fakeCache) Get(ctx context.Context, courseID, studentID string) (*participation.Aggregate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failing {
		return nil, errors.New("cache down")
	}
	if agg, ok := c.data[c.key(courseID, studentID)]; ok {
		return &agg, nil
	}
	return nil, nil
}

func (c *fakeCache) Set(ctx context.Context, courseID, studentID string, agg participation.Aggregate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.failing {
		return errors.New("cache down")
	}
	c.data[c.key(courseID, studentID)] = agg
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, courseID, studentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, c.key(courseID, studentID))
	return nil
}

// seedDays writes n consecutive graded days, 9 points each, starting Jan 1.
func seedDays(t *testing.T, store *memory.ParticipationRepository, courseID, studentID string, n int) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		_, err := store.Upsert(context.Background(), courseID, studentID, date,
			participation.CategoryScores{Preparation: 3, Engagement: 3, Critical: 3})
		require.NoError(t, err)
	}
}

func TestGetHistoryWindowedEntriesFullAggregate(t *testing.T) {
	store := memory.NewParticipationRepository()
	seedDays(t, store, "c1", "s1", 40)

	h := NewGetHistoryHandler(store, nil, GetHistoryHandlerConfig{})
	res, err := h.Handle(context.Background(), GetHistoryQuery{CourseID: "c1", StudentID: "s1", Limit: 30})
	require.NoError(t, err)

	// The window shows 30 days; the aggregate covers all 40.
	assert.Len(t, res.Entries, 30)
	assert.Equal(t, participation.Aggregate{Cumulative: 360, DaysGraded: 40, MaxPointsSoFar: 600}, res.Aggregate)

	// Newest first.
	assert.Equal(t, "2026-02-09", res.Entries[0].Date)
	assert.Greater(t, res.Entries[0].Date, res.Entries[29].Date)
}

func TestGetHistoryDefaultLimit(t *testing.T) {
	store := memory.NewParticipationRepository()
	seedDays(t, store, "c1", "s1", 45)

	h := NewGetHistoryHandler(store, nil, GetHistoryHandlerConfig{})
	res, err := h.Handle(context.Background(), GetHistoryQuery{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, res.Entries, DefaultHistoryLimit)
	assert.Equal(t, 45, res.Aggregate.DaysGraded)
}

func TestGetHistoryEmptyLedger(t *testing.T) {
	store := memory.NewParticipationRepository()

	h := NewGetHistoryHandler(store, nil, GetHistoryHandlerConfig{})
	res, err := h.Handle(context.Background(), GetHistoryQuery{CourseID: "c1", StudentID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Equal(t, participation.Aggregate{}, res.Aggregate)
}

func TestGetHistoryCacheHitSkipsFullScan(t *testing.T) {
	store := memory.NewParticipationRepository()
	seedDays(t, store, "c1", "s1", 5)
	cache := newFakeCache()

	h := NewGetHistoryHandler(store, cache, GetHistoryHandlerConfig{})
	ctx := context.Background()

	// First query computes and fills the cache.
	res, err := h.Handle(ctx, GetHistoryQuery{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second query serves the aggregate from the cache.
	res2, err := h.Handle(ctx, GetHistoryQuery{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, res.Aggregate, res2.Aggregate)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestGetHistoryCacheFailureFallsBack(t *testing.T) {
	store := memory.NewParticipationRepository()
	seedDays(t, store, "c1", "s1", 3)
	cache := newFakeCache()
	cache.failing = true

	h := NewGetHistoryHandler(store, cache, GetHistoryHandlerConfig{})
	res, err := h.Handle(context.Background(), GetHistoryQuery{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, participation.Aggregate{Cumulative: 27, DaysGraded: 3, MaxPointsSoFar: 45}, res.Aggregate)
}

func TestGetHistoryValidation(t *testing.T) {
	h := NewGetHistoryHandler(memory.NewParticipationRepository(), nil, GetHistoryHandlerConfig{})
	ctx := context.Background()

	tests := []struct {
		name string
		q    GetHistoryQuery
	}{
		{"missing course", GetHistoryQuery{StudentID: "s1"}},
		{"missing student", GetHistoryQuery{CourseID: "c1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(ctx, tt.q)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestGetHistoryResubmittedDayCountsOnce(t *testing.T) {
	store := memory.NewParticipationRepository()
	ctx := context.Background()

	for i, scores := range []participation.CategoryScores{
		{Preparation: 1, Engagement: 1, Critical: 1},
		{Preparation: 5, Engagement: 5, Critical: 5},
	} {
		_, err := store.Upsert(ctx, "c1", "s1", "2026-03-09", scores)
		require.NoError(t, err, "upsert %d", i)
	}

	h := NewGetHistoryHandler(store, nil, GetHistoryHandlerConfig{})
	res, err := h.Handle(ctx, GetHistoryQuery{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, participation.Aggregate{Cumulative: 15, DaysGraded: 1, MaxPointsSoFar: 15}, res.Aggregate)
}

func TestRosterHandlerValidation(t *testing.T) {
	h := NewRosterHandler(nil)
	ctx := context.Background()

	_, err := h.ListStudents(ctx, ListStudentsQuery{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = h.ListAssignments(ctx, ListAssignmentsQuery{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
