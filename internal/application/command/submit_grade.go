// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/classpulse/participation-hub/internal/domain/gradebook"
	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/internal/domain/shared"
	"github.com/classpulse/participation-hub/pkg/keylock"
	"github.com/classpulse/participation-hub/pkg/logger"
	"github.com/classpulse/participation-hub/pkg/retry"
	"github.com/classpulse/participation-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT GRADE COMMAND
// Records one day's rubric scores in the local ledger, then reconciles the
// student's cumulative standing into the external gradebook. The local upsert
// is the durability boundary: once it commits, the grade is never lost, and
// every remote failure after it is repairable by resubmitting.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitGradeCommand contains one day's participation scores.
type SubmitGradeCommand struct {
	// CourseID is the gradebook course the student belongs to.
	CourseID string

	// StudentID is the gradebook identity of the student.
	StudentID string

	// Date is the grading day. Accepts a bare ISO date or an RFC 3339
	// timestamp; empty means "today" in the reference timezone.
	Date string

	// AssignmentID optionally pins the gradebook assignment to grade. Empty
	// means find-or-create the participation assignment by title.
	AssignmentID string

	// Scores are the three rubric categories, each 0..5.
	Scores participation.CategoryScores

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command. Score ranges and date syntax are checked
// later, where the record is built.
func (c SubmitGradeCommand) Validate() error {
	if c.CourseID == "" {
		return participation.ErrMissingCourseID
	}
	if c.StudentID == "" {
		return participation.ErrMissingStudentID
	}
	return nil
}

// SubmitGradeResult contains the result of a reconciled submission.
type SubmitGradeResult struct {
	// Record is the persisted daily record.
	Record participation.Record

	// Aggregate is the student's standing over the full ledger after this
	// submission.
	Aggregate participation.Aggregate

	// AssignmentID is the gradebook assignment the aggregate was written to.
	AssignmentID string

	// AssignmentCreated is true when this submission created the assignment.
	AssignmentCreated bool

	// SubmissionID is the gradebook submission that received the grade.
	SubmissionID string

	// SyncedAt is when the gradebook write completed.
	SyncedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitGradeHandler handles the SubmitGradeCommand.
type SubmitGradeHandler struct {
	store       participation.Repository
	cache       participation.AggregateCache // optional
	gb          gradebook.Client
	credentials gradebook.CredentialProvider
	calendar    timeutil.Calendar
	clock       timeutil.Clock
	logger      *logger.Logger

	// locks serializes reconciliation per (course, student) pair so two
	// concurrent submissions cannot interleave their remote phases.
	locks *keylock.KeyLock

	// createGroup collapses concurrent create-assignment attempts for the
	// same course into one, closing the duplicate-assignment window within
	// this process. Across processes the title lookup keeps creation rare
	// but not impossible; resubmission repairs the grade either way.
	createGroup singleflight.Group

	gbRetry  *retry.Retrier
	dbRetry  *retry.Retrier
	cacheTTL time.Duration
}

// SubmitGradeHandlerConfig contains configuration for the handler.
type SubmitGradeHandlerConfig struct {
	// Clock supplies "now"; nil means the system clock.
	Clock timeutil.Clock

	// CacheTTL bounds staleness of cached aggregates. Default: 10m.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// NewSubmitGradeHandler creates a new SubmitGradeHandler. The cache may be
// nil; aggregates are then always recomputed from the store.
func NewSubmitGradeHandler(
	store participation.Repository,
	cache participation.AggregateCache,
	gb gradebook.Client,
	credentials gradebook.CredentialProvider,
	calendar timeutil.Calendar,
	config SubmitGradeHandlerConfig,
) *SubmitGradeHandler {
	if config.Clock == nil {
		config.Clock = timeutil.SystemClock
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}

	return &SubmitGradeHandler{
		store:       store,
		cache:       cache,
		gb:          gb,
		credentials: credentials,
		calendar:    calendar,
		clock:       config.Clock,
		logger:      config.Logger.With(logger.Component("submit-grade")),
		locks:       keylock.New(),
		gbRetry:     retry.GradebookRetrier(),
		dbRetry:     retry.DatabaseRetrier(),
		cacheTTL:    config.CacheTTL,
	}
}

// Handle executes the submit grade command.
func (h *SubmitGradeHandler) Handle(ctx context.Context, cmd SubmitGradeCommand) (*SubmitGradeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	day, err := h.resolveDay(cmd.Date)
	if err != nil {
		return nil, err
	}

	log := h.logger.With(
		logger.CourseID(cmd.CourseID),
		logger.StudentID(cmd.StudentID),
		logger.Day(day),
	)

	// One reconciliation at a time per (course, student). Everything from
	// the upsert to the gradebook patch runs under this lock, so a slower
	// earlier submission cannot overwrite a newer cumulative grade.
	release := h.locks.Lock(cmd.CourseID + "|" + cmd.StudentID)
	defer release()

	record, err := h.persistRecord(ctx, cmd, day)
	if err != nil {
		return nil, err
	}

	agg, err := h.recomputeAggregate(ctx, cmd.CourseID, cmd.StudentID)
	if err != nil {
		return nil, err
	}

	log.Info("record persisted",
		logger.Points(record.Score),
		logger.Cumulative(agg.Cumulative),
		logger.Int("days_graded", agg.DaysGraded),
	)

	// Fail fast before touching the gradebook: a missing credential should
	// not cost remote round-trips, and the local record is already safe.
	if _, err := h.credentials.Resolve(ctx); err != nil {
		return nil, fmt.Errorf("submit_grade: resolve credential: %w", err)
	}

	assignment, created, err := h.ensureAssignment(ctx, cmd.CourseID, cmd.AssignmentID, agg)
	if err != nil {
		return nil, fmt.Errorf("submit_grade: ensure assignment: %w", err)
	}
	if created {
		log.Info("participation assignment created", logger.AssignmentID(assignment.ID))
	}

	submission, err := h.ensureSubmission(ctx, cmd.CourseID, assignment.ID, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("submit_grade: ensure submission: %w", err)
	}

	grade := gradebook.Grade{Draft: agg.Cumulative, Assigned: agg.Cumulative}
	err = h.gbRetry.Do(ctx, func(ctx context.Context) error {
		return markTemporary(h.gb.PatchSubmissionGrades(ctx, cmd.CourseID, assignment.ID, submission.ID, grade))
	})
	if err != nil {
		return nil, fmt.Errorf("submit_grade: patch grades: %w", err)
	}

	log.Info("gradebook reconciled",
		logger.AssignmentID(assignment.ID),
		logger.SubmissionID(submission.ID),
		logger.Cumulative(agg.Cumulative),
	)

	return &SubmitGradeResult{
		Record:            record,
		Aggregate:         agg,
		AssignmentID:      assignment.ID,
		AssignmentCreated: created,
		SubmissionID:      submission.ID,
		SyncedAt:          h.clock.Now(),
	}, nil
}

// resolveDay normalizes the requested date, defaulting to today.
func (h *SubmitGradeHandler) resolveDay(raw string) (string, error) {
	if raw == "" {
		return h.calendar.Today(h.clock), nil
	}
	day, err := h.calendar.NormalizeDay(raw)
	if err != nil {
		return "", participation.ErrInvalidDate
	}
	return day, nil
}

// persistRecord upserts the daily record, retrying transient storage faults.
func (h *SubmitGradeHandler) persistRecord(ctx context.Context, cmd SubmitGradeCommand, day string) (participation.Record, error) {
	var record participation.Record
	err := h.dbRetry.Do(ctx, func(ctx context.Context) error {
		var upErr error
		record, upErr = h.store.Upsert(ctx, cmd.CourseID, cmd.StudentID, day, cmd.Scores)
		if upErr != nil && shared.IsStorage(upErr) {
			return retry.Retryable(upErr)
		}
		return upErr
	})
	return record, err
}

// recomputeAggregate folds the student's full ledger and refreshes the cache.
// Cache failures are logged and swallowed; the store remains the truth.
func (h *SubmitGradeHandler) recomputeAggregate(ctx context.Context, courseID, studentID string) (participation.Aggregate, error) {
	records, err := h.store.ListByStudent(ctx, courseID, studentID, 0)
	if err != nil {
		return participation.Aggregate{}, fmt.Errorf("submit_grade: list records: %w", err)
	}
	agg := participation.Summarize(records)

	if h.cache != nil {
		if err := h.cache.Set(ctx, courseID, studentID, agg, h.cacheTTL); err != nil {
			h.logger.Warn("aggregate cache set failed",
				logger.CourseID(courseID),
				logger.StudentID(studentID),
				logger.Err(err),
			)
			// Drop whatever is cached rather than leave a stale aggregate
			// behind a failed refresh.
			if err := h.cache.Invalidate(ctx, courseID, studentID); err != nil {
				h.logger.Warn("aggregate cache invalidate failed",
					logger.CourseID(courseID),
					logger.StudentID(studentID),
					logger.Err(err),
				)
			}
		}
	}
	return agg, nil
}

// ensureAssignment resolves the gradebook assignment to grade and grows its
// maxPoints ceiling to match the ledger. A caller-supplied id is used as-is;
// otherwise the participation assignment is found by title, creating it when
// absent.
func (h *SubmitGradeHandler) ensureAssignment(ctx context.Context, courseID, assignmentID string, agg participation.Aggregate) (gradebook.Assignment, bool, error) {
	type found struct {
		assignment gradebook.Assignment
		created    bool
	}

	var f found
	if assignmentID != "" {
		// The current maxPoints is unknown, so the patch below always runs;
		// a bogus id surfaces there as not-found.
		f.assignment = gradebook.Assignment{ID: assignmentID, Title: gradebook.ParticipationTitle}
	} else {
		// The flight is shared by concurrent submissions for the course, so
		// it must not die with the caller that happened to start it.
		flightCtx := context.WithoutCancel(ctx)

		v, err, _ := h.createGroup.Do(courseID, func() (any, error) {
			assignments, err := retry.DoWithData(flightCtx, func(ctx context.Context) ([]gradebook.Assignment, error) {
				list, err := h.gb.ListAssignments(ctx, courseID)
				return list, markTemporary(err)
			}, gradebookRetryOptions()...)
			if err != nil {
				return nil, err
			}

			for _, a := range assignments {
				if a.Title == gradebook.ParticipationTitle {
					return found{assignment: a}, nil
				}
			}

			created, err := retry.DoWithData(flightCtx, func(ctx context.Context) (gradebook.Assignment, error) {
				a, err := h.gb.CreateAssignment(ctx, courseID, gradebook.Assignment{
					Title:     gradebook.ParticipationTitle,
					MaxPoints: participation.PerDayMax,
				})
				return a, markTemporary(err)
			}, gradebookRetryOptions()...)
			if err != nil {
				return nil, err
			}
			return found{assignment: created, created: true}, nil
		})
		if err != nil {
			return gradebook.Assignment{}, false, err
		}
		f = v.(found)
	}

	if f.assignment.MaxPoints != agg.MaxPointsSoFar {
		err := h.gbRetry.Do(ctx, func(ctx context.Context) error {
			return markTemporary(h.gb.PatchAssignmentMaxPoints(ctx, courseID, f.assignment.ID, agg.MaxPointsSoFar))
		})
		if err != nil {
			return gradebook.Assignment{}, false, err
		}
		f.assignment.MaxPoints = agg.MaxPointsSoFar
	}

	return f.assignment, f.created, nil
}

// ensureSubmission finds the student's submission, asking the gradebook to
// materialize placeholders when the first lookup comes back empty.
func (h *SubmitGradeHandler) ensureSubmission(ctx context.Context, courseID, assignmentID, studentID string) (gradebook.Submission, error) {
	list := func(ctx context.Context) ([]gradebook.Submission, error) {
		subs, err := h.gb.ListSubmissions(ctx, courseID, assignmentID, studentID)
		return subs, markTemporary(err)
	}

	subs, err := retry.DoWithData(ctx, list, gradebookRetryOptions()...)
	if err != nil {
		return gradebook.Submission{}, err
	}
	if len(subs) > 0 {
		return subs[0], nil
	}

	// Freshly created assignments can lag behind their submissions. A
	// transient failure here only costs the second lookup a chance, but a
	// rejected create means the re-list cannot succeed either.
	if err := h.gb.CreateSubmissionPlaceholder(ctx, courseID, assignmentID); err != nil {
		var ge *gradebook.Error
		if errors.As(err, &ge) && !ge.Temporary() {
			return gradebook.Submission{}, err
		}
		h.logger.Warn("submission placeholder create failed",
			logger.CourseID(courseID),
			logger.AssignmentID(assignmentID),
			logger.Err(err),
		)
	}

	subs, err = retry.DoWithData(ctx, list, gradebookRetryOptions()...)
	if err != nil {
		return gradebook.Submission{}, err
	}
	if len(subs) == 0 {
		return gradebook.Submission{}, &gradebook.Error{
			Code:    gradebook.CodeNotFound,
			Message: fmt.Sprintf("no submission for student %s on assignment %s", studentID, assignmentID),
		}
	}
	return subs[0], nil
}

// markTemporary wraps transient gradebook errors so the retrier attempts them
// again; permanent failures pass through untouched and stop the retry loop.
func markTemporary(err error) error {
	if err == nil {
		return nil
	}
	var ge *gradebook.Error
	if errors.As(err, &ge) && ge.Temporary() {
		return retry.Retryable(err)
	}
	return err
}

// gradebookRetryOptions mirrors retry.GradebookRetrier for DoWithData call sites.
func gradebookRetryOptions() []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(500 * time.Millisecond),
		retry.WithMaxDelay(10 * time.Second),
		retry.WithMultiplier(2.0),
		retry.WithJitter(0.2),
	}
}
