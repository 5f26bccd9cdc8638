// Package participation models the participation ledger: one rubric score
// record per student per course per calendar day, and the cumulative
// aggregate derived from it. The ledger is the system of record; the external
// gradebook only mirrors it.
package participation

import (
	"fmt"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/shared"
	"github.com/classpulse/participation-hub/pkg/timeutil"
)

const (
	// PerCategoryMax is the top score of one rubric category.
	PerCategoryMax = 5

	// PerDayMax is the maximum daily total: three categories of five points.
	PerDayMax = 3 * PerCategoryMax
)

// Domain errors.
var (
	ErrMissingCourseID  = shared.NewDomainError("participation", "Validate", shared.ErrEmptyValue, "courseId is required")
	ErrMissingStudentID = shared.NewDomainError("participation", "Validate", shared.ErrEmptyValue, "studentId is required")
	ErrInvalidDate      = shared.NewDomainError("participation", "Validate", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
)

// CategoryScores holds the three rubric categories, each 0..5.
type CategoryScores struct {
	Preparation int `json:"preparation"`
	Engagement  int `json:"engagement"`
	Critical    int `json:"critical"`
}

// Total returns the daily score: the sum of all categories.
func (c CategoryScores) Total() int {
	return c.Preparation + c.Engagement + c.Critical
}

// Validate checks every category is within 0..PerCategoryMax.
func (c CategoryScores) Validate() error {
	for _, cat := range []struct {
		name  string
		value int
	}{
		{"preparation", c.Preparation},
		{"engagement", c.Engagement},
		{"critical", c.Critical},
	} {
		if cat.value < 0 || cat.value > PerCategoryMax {
			return shared.NewDomainError("participation", "Validate", shared.ErrValueOutOfRange,
				fmt.Sprintf("%s must be between 0 and %d, got %d", cat.name, PerCategoryMax, cat.value))
		}
	}
	return nil
}

// Record is one day's participation score for one student in one course.
// Exactly one record exists per (CourseID, StudentID, Date); a later upsert
// for the same key fully replaces the category scores.
type Record struct {
	CourseID  string         `json:"courseId"`
	StudentID string         `json:"studentId"`
	Date      string         `json:"date"` // calendar day in the reference timezone
	Scores    CategoryScores `json:"categoryScores"`
	Score     int            `json:"score"` // Total() of Scores, denormalized
	CreatedAt time.Time      `json:"createdAt,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt,omitempty"`
}

// NewRecord validates the inputs and builds a Record with the derived Score.
func NewRecord(courseID, studentID, date string, scores CategoryScores) (Record, error) {
	if courseID == "" {
		return Record{}, ErrMissingCourseID
	}
	if studentID == "" {
		return Record{}, ErrMissingStudentID
	}
	if !timeutil.IsValidDay(date) {
		return Record{}, ErrInvalidDate
	}
	if err := scores.Validate(); err != nil {
		return Record{}, err
	}
	return Record{
		CourseID:  courseID,
		StudentID: studentID,
		Date:      date,
		Scores:    scores,
		Score:     scores.Total(),
	}, nil
}

// Key returns the composite identity of the record.
func (r Record) Key() string {
	return r.CourseID + "|" + r.StudentID + "|" + r.Date
}
