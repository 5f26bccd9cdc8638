// Package gradebook defines the contract with the external gradebook
// service: the assignment/submission entities it owns and the client
// capability used to read and write them. The gradebook is authoritative for
// its own entities; this service only mirrors aggregates into it.
package gradebook

import (
	"fmt"

	"github.com/classpulse/participation-hub/internal/domain/shared"
)

const (
	// ParticipationTitle is the assignment this service recognizes as its
	// own. It is created on first use and updated on every reconciliation.
	ParticipationTitle = "Participation"

	// ParticipationDescription is set when the assignment is first created.
	ParticipationDescription = "Ongoing participation (cumulative, updated daily)."
)

// Course is a read-only course listing entry.
type Course struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
}

// Student is a read-only roster entry.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Assignment is a gradable item owned by the gradebook service.
type Assignment struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	MaxPoints int    `json:"maxPoints"`
}

// Submission is one student's graded instance of an assignment. Grades are
// pointers because the gradebook distinguishes "zero" from "not graded yet".
type Submission struct {
	ID            string `json:"id"`
	StudentID     string `json:"studentId"`
	DraftGrade    *int   `json:"draftGrade,omitempty"`
	AssignedGrade *int   `json:"assignedGrade,omitempty"`
}

// Grade is a draft/assigned pair pushed to a submission.
type Grade struct {
	Draft    int
	Assigned int
}

// Error codes reported by the gradebook client.
const (
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeRateLimited    = "rate_limited"
	CodeUnavailable    = "unavailable"
	CodeTransport      = "transport"
)

// Error is a failure reported by the gradebook service or its transport.
type Error struct {
	Code       string
	Message    string
	StatusCode int // HTTP status, 0 for transport failures
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gradebook: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gradebook: %s: %s", e.Code, e.Message)
}

// Is maps the error onto the shared taxonomy so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case shared.ErrExternalService:
		return true
	case shared.ErrUnauthorized:
		return e.Code == CodeUnauthorized || e.Code == CodeForbidden
	case shared.ErrNotFound:
		return e.Code == CodeNotFound
	case shared.ErrRateLimited:
		return e.Code == CodeRateLimited
	}
	return false
}

// Temporary reports whether a retry might succeed. Rate limits, transport
// failures, and server-side errors are temporary; validation and auth
// failures are not.
func (e *Error) Temporary() bool {
	switch e.Code {
	case CodeRateLimited, CodeUnavailable, CodeTransport:
		return true
	}
	return e.StatusCode >= 500
}
