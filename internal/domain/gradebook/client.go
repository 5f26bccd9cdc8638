package gradebook

import "context"

// Client is the capability for talking to the external gradebook service.
// Every method blocks, honors the context, and fails with *Error on
// transport, auth, or validation failure.
type Client interface {
	// ListCourses returns the caller's active courses.
	ListCourses(ctx context.Context) ([]Course, error)

	// ListStudents returns the roster of a course.
	ListStudents(ctx context.Context, courseID string) ([]Student, error)

	// ListAssignments returns all assignments of a course.
	ListAssignments(ctx context.Context, courseID string) ([]Assignment, error)

	// CreateAssignment creates an assignment and returns it with the
	// service-assigned ID.
	CreateAssignment(ctx context.Context, courseID string, a Assignment) (Assignment, error)

	// PatchAssignmentMaxPoints updates only the assignment's maximum score.
	// Setting the same value repeatedly is an effective no-op.
	PatchAssignmentMaxPoints(ctx context.Context, courseID, assignmentID string, maxPoints int) error

	// ListSubmissions returns the submissions of an assignment, optionally
	// filtered to one student (empty studentID means all).
	ListSubmissions(ctx context.Context, courseID, assignmentID, studentID string) ([]Submission, error)

	// CreateSubmissionPlaceholder asks the service to materialize missing
	// submissions for an assignment. The service decides which students get
	// one; callers must re-list afterwards.
	CreateSubmissionPlaceholder(ctx context.Context, courseID, assignmentID string) error

	// PatchSubmissionGrades writes the draft and assigned grade of one
	// submission.
	PatchSubmissionGrades(ctx context.Context, courseID, assignmentID, submissionID string, grade Grade) error
}
