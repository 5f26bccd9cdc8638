// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HISTORY QUERY
// Returns a student's recent daily records plus their cumulative standing.
// The display window is bounded; the aggregate never is. A student's total
// must not shrink just because the page only shows the last month.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHistoryLimit is the display window when the caller does not set one.
const DefaultHistoryLimit = 30

// GetHistoryQuery identifies the student and bounds the display window.
type GetHistoryQuery struct {
	CourseID  string
	StudentID string

	// Limit bounds the returned entries; <= 0 means DefaultHistoryLimit.
	Limit int
}

// Validate validates the query.
func (q GetHistoryQuery) Validate() error {
	if q.CourseID == "" {
		return participation.ErrMissingCourseID
	}
	if q.StudentID == "" {
		return participation.ErrMissingStudentID
	}
	return nil
}

// GetHistoryResult contains the windowed history and the full aggregate.
type GetHistoryResult struct {
	// Entries are the most recent records, newest first.
	Entries []participation.Record `json:"entries"`

	// Aggregate is computed over the student's entire ledger, regardless of
	// how many entries the window shows.
	Aggregate participation.Aggregate `json:"aggregate"`
}

// GetHistoryHandler handles the GetHistoryQuery.
type GetHistoryHandler struct {
	store    participation.Repository
	cache    participation.AggregateCache // optional
	logger   *logger.Logger
	cacheTTL time.Duration
}

// GetHistoryHandlerConfig contains configuration for the handler.
type GetHistoryHandlerConfig struct {
	// CacheTTL bounds staleness of cached aggregates. Default: 10m.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// NewGetHistoryHandler creates a new GetHistoryHandler. The cache may be nil.
func NewGetHistoryHandler(store participation.Repository, cache participation.AggregateCache, config GetHistoryHandlerConfig) *GetHistoryHandler {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	return &GetHistoryHandler{
		store:    store,
		cache:    cache,
		logger:   config.Logger.With(logger.Component("get-history")),
		cacheTTL: config.CacheTTL,
	}
}

// Handle executes the get history query.
func (h *GetHistoryHandler) Handle(ctx context.Context, q GetHistoryQuery) (*GetHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	entries, err := h.store.ListByStudent(ctx, q.CourseID, q.StudentID, limit)
	if err != nil {
		return nil, fmt.Errorf("get_history: list records: %w", err)
	}

	agg, err := h.aggregate(ctx, q.CourseID, q.StudentID)
	if err != nil {
		return nil, err
	}

	return &GetHistoryResult{Entries: entries, Aggregate: agg}, nil
}

// aggregate returns the full-ledger aggregate, reading through the cache.
// Cache failures fall back to the store; they never fail the query.
func (h *GetHistoryHandler) aggregate(ctx context.Context, courseID, studentID string) (participation.Aggregate, error) {
	if h.cache != nil {
		cached, err := h.cache.Get(ctx, courseID, studentID)
		if err != nil {
			h.logger.Warn("aggregate cache get failed",
				logger.CourseID(courseID),
				logger.StudentID(studentID),
				logger.Err(err),
			)
		} else if cached != nil {
			return *cached, nil
		}
	}

	records, err := h.store.ListByStudent(ctx, courseID, studentID, 0)
	if err != nil {
		return participation.Aggregate{}, fmt.Errorf("get_history: list full ledger: %w", err)
	}
	agg := participation.Summarize(records)

	if h.cache != nil {
		if err := h.cache.Set(ctx, courseID, studentID, agg, h.cacheTTL); err != nil {
			h.logger.Warn("aggregate cache set failed",
				logger.CourseID(courseID),
				logger.StudentID(studentID),
				logger.Err(err),
			)
		}
	}
	return agg, nil
}
