package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/classpulse/participation-hub/internal/application/command"
	"github.com/classpulse/participation-hub/internal/application/query"
	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/internal/domain/shared"
	"github.com/classpulse/participation-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE DTOS
// ══════════════════════════════════════════════════════════════════════════════

// submitGradeRequest is the body of POST /api/grade.
type submitGradeRequest struct {
	CourseID     string `json:"courseId"`
	StudentID    string `json:"studentId"`
	Date         string `json:"date,omitempty"`
	AssignmentID string `json:"assignmentId,omitempty"`
	Scores       struct {
		Preparation int `json:"preparation"`
		Engagement  int `json:"engagement"`
		Critical    int `json:"critical"`
	} `json:"scores"`
}

// submitGradeResponse is the success payload of POST /api/grade.
type submitGradeResponse struct {
	Record       participation.Record    `json:"record"`
	Aggregate    participation.Aggregate `json:"aggregate"`
	AssignmentID string                  `json:"assignmentId"`
	SubmissionID string                  `json:"submissionId"`
	SyncedAt     time.Time               `json:"syncedAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSubmitGrade handles POST /api/grade.
func (s *Server) handleSubmitGrade(w http.ResponseWriter, r *http.Request) {
	var req submitGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	result, err := s.deps.SubmitGradeHandler.Handle(r.Context(), command.SubmitGradeCommand{
		CourseID:     req.CourseID,
		StudentID:    req.StudentID,
		Date:         req.Date,
		AssignmentID: req.AssignmentID,
		Scores: participation.CategoryScores{
			Preparation: req.Scores.Preparation,
			Engagement:  req.Scores.Engagement,
			Critical:    req.Scores.Critical,
		},
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitGradeResponse{
		Record:       result.Record,
		Aggregate:    result.Aggregate,
		AssignmentID: result.AssignmentID,
		SubmissionID: result.SubmissionID,
		SyncedAt:     result.SyncedAt,
	})
}

// handleGetHistory handles GET /api/participation/history.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	q := query.GetHistoryQuery{
		CourseID:  r.URL.Query().Get("courseId"),
		StudentID: r.URL.Query().Get("studentId"),
		Limit:     getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADEBOOK LISTING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListClasses handles GET /api/classes.
func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.deps.RosterHandler.ListCourses(r.Context(), query.ListCoursesQuery{})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// handleListStudents handles GET /api/classes/{id}/students.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.deps.RosterHandler.ListStudents(r.Context(), query.ListStudentsQuery{
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

// handleListAssignments handles GET /api/classes/{id}/assignments.
func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.deps.RosterHandler.ListAssignments(r.Context(), query.ListAssignmentsQuery{
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": assignments})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error onto an HTTP status and error code.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "gradebook credential missing or rejected")
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsStorage(err):
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "the participation store is unavailable")
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "gradebook_error", "the gradebook service failed; the local record is saved")
	default:
		s.logger.Error("unhandled error",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// decodeJSON decodes a bounded request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, dst)
}
