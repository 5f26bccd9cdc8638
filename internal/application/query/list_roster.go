package query

import (
	"context"
	"fmt"

	"github.com/classpulse/participation-hub/internal/domain/gradebook"
	"github.com/classpulse/participation-hub/internal/domain/participation"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER QUERIES
// Read-only pass-throughs to the gradebook service. The gradebook stays
// authoritative for courses, rosters, and assignments; nothing here is cached
// or persisted locally.
// ══════════════════════════════════════════════════════════════════════════════

// ListCoursesQuery lists the caller's active courses.
type ListCoursesQuery struct{}

// ListStudentsQuery lists the roster of one course.
type ListStudentsQuery struct {
	CourseID string
}

// Validate validates the query.
func (q ListStudentsQuery) Validate() error {
	if q.CourseID == "" {
		return participation.ErrMissingCourseID
	}
	return nil
}

// ListAssignmentsQuery lists the course work of one course.
type ListAssignmentsQuery struct {
	CourseID string
}

// Validate validates the query.
func (q ListAssignmentsQuery) Validate() error {
	if q.CourseID == "" {
		return participation.ErrMissingCourseID
	}
	return nil
}

// RosterHandler handles the read-only gradebook queries.
type RosterHandler struct {
	gb gradebook.Client
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(gb gradebook.Client) *RosterHandler {
	return &RosterHandler{gb: gb}
}

// ListCourses executes the list courses query.
func (h *RosterHandler) ListCourses(ctx context.Context, _ ListCoursesQuery) ([]gradebook.Course, error) {
	courses, err := h.gb.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_roster: list courses: %w", err)
	}
	return courses, nil
}

// ListStudents executes the list students query.
func (h *RosterHandler) ListStudents(ctx context.Context, q ListStudentsQuery) ([]gradebook.Student, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	students, err := h.gb.ListStudents(ctx, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list_roster: list students: %w", err)
	}
	return students, nil
}

// ListAssignments executes the list assignments query.
func (h *RosterHandler) ListAssignments(ctx context.Context, q ListAssignmentsQuery) ([]gradebook.Assignment, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	assignments, err := h.gb.ListAssignments(ctx, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list_roster: list assignments: %w", err)
	}
	return assignments, nil
}
