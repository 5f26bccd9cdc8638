package classroom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/gradebook"
	"github.com/classpulse/participation-hub/pkg/circuitbreaker"
	"github.com/classpulse/participation-hub/pkg/logger"
)

// ClientConfig contains configuration for the gradebook API client.
type ClientConfig struct {
	// BaseURL is the gradebook API base URL, without a trailing slash.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RateLimiterConfig paces outgoing requests.
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// Client talks to the gradebook API. It implements gradebook.Client.
//
// Every call resolves a credential through the injected CredentialProvider,
// passes the rate limiter, and runs under the circuit breaker, so a dead
// gradebook fails fast instead of holding every submission for a timeout.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *logger.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	credentials gradebook.CredentialProvider
	mapper      *Mapper
}

var _ gradebook.Client = (*Client)(nil)

// NewClient creates a gradebook API client.
func NewClient(config ClientConfig, credentials gradebook.CredentialProvider) *Client {
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("classroom-client"))

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      log,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.New(
			"gradebook-api",
			circuitbreaker.WithFailureThreshold(3),
			circuitbreaker.WithSuccessThreshold(2),
			circuitbreaker.WithTimeout(60*time.Second),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state change",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			}),
			// A 404 or a validation rejection says nothing about service
			// health; only transient failures should trip the breaker.
			circuitbreaker.WithIsFailure(func(err error) bool {
				var ge *gradebook.Error
				if errors.As(err, &ge) {
					return ge.Temporary()
				}
				return true
			}),
		),
		credentials: credentials,
		mapper:      NewMapper(),
	}
}

// ListCourses returns the caller's active courses.
func (c *Client) ListCourses(ctx context.Context) ([]gradebook.Course, error) {
	var out courseListDTO
	query := url.Values{"courseStates": {"ACTIVE"}}
	if err := c.do(ctx, http.MethodGet, "/v1/courses", query, nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.Courses(out.Courses), nil
}

// ListStudents returns the roster of a course.
func (c *Client) ListStudents(ctx context.Context, courseID string) ([]gradebook.Student, error) {
	path := fmt.Sprintf("/v1/courses/%s/students", url.PathEscape(courseID))
	var out studentListDTO
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.Students(out.Students), nil
}

// ListAssignments returns all course work of a course.
func (c *Client) ListAssignments(ctx context.Context, courseID string) ([]gradebook.Assignment, error) {
	path := fmt.Sprintf("/v1/courses/%s/courseWork", url.PathEscape(courseID))
	var out courseWorkListDTO
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.Assignments(out.CourseWork), nil
}

// CreateAssignment creates a published assignment.
func (c *Client) CreateAssignment(ctx context.Context, courseID string, a gradebook.Assignment) (gradebook.Assignment, error) {
	path := fmt.Sprintf("/v1/courses/%s/courseWork", url.PathEscape(courseID))
	body := courseWorkDTO{
		Title:       a.Title,
		Description: gradebook.ParticipationDescription,
		MaxPoints:   a.MaxPoints,
		WorkType:    "ASSIGNMENT",
		State:       "PUBLISHED",
	}
	var out courseWorkDTO
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return gradebook.Assignment{}, err
	}

	c.logger.Info("created assignment",
		logger.CourseID(courseID),
		logger.AssignmentID(out.ID),
		logger.Int("max_points", out.MaxPoints),
	)
	return c.mapper.Assignment(out), nil
}

// PatchAssignmentMaxPoints updates only the assignment's maximum score.
func (c *Client) PatchAssignmentMaxPoints(ctx context.Context, courseID, assignmentID string, maxPoints int) error {
	path := fmt.Sprintf("/v1/courses/%s/courseWork/%s",
		url.PathEscape(courseID), url.PathEscape(assignmentID))
	query := url.Values{"updateMask": {"maxPoints"}}
	return c.do(ctx, http.MethodPatch, path, query, maxPointsPatchDTO{MaxPoints: maxPoints}, nil)
}

// ListSubmissions returns the submissions of an assignment, optionally
// filtered to one student.
func (c *Client) ListSubmissions(ctx context.Context, courseID, assignmentID, studentID string) ([]gradebook.Submission, error) {
	path := fmt.Sprintf("/v1/courses/%s/courseWork/%s/studentSubmissions",
		url.PathEscape(courseID), url.PathEscape(assignmentID))
	var query url.Values
	if studentID != "" {
		query = url.Values{"userId": {studentID}}
	}
	var out submissionListDTO
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.Submissions(out.StudentSubmissions), nil
}

// CreateSubmissionPlaceholder asks the service to materialize missing
// submissions for the assignment.
func (c *Client) CreateSubmissionPlaceholder(ctx context.Context, courseID, assignmentID string) error {
	path := fmt.Sprintf("/v1/courses/%s/courseWork/%s/studentSubmissions:batchCreate",
		url.PathEscape(courseID), url.PathEscape(assignmentID))
	return c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil)
}

// PatchSubmissionGrades writes the draft and assigned grade of a submission.
func (c *Client) PatchSubmissionGrades(ctx context.Context, courseID, assignmentID, submissionID string, grade gradebook.Grade) error {
	path := fmt.Sprintf("/v1/courses/%s/courseWork/%s/studentSubmissions/%s",
		url.PathEscape(courseID), url.PathEscape(assignmentID), url.PathEscape(submissionID))
	query := url.Values{"updateMask": {"draftGrade,assignedGrade"}}
	body := gradePatchDTO{DraftGrade: grade.Draft, AssignedGrade: grade.Assigned}
	return c.do(ctx, http.MethodPatch, path, query, body, nil)
}

// do executes one API request: resolve credential, pace, run under the
// breaker, decode the response into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	auth, err := c.credentials.Resolve(ctx)
	if err != nil {
		return err
	}

	if err := c.rateLimiter.Allow(ctx); err != nil {
		return &gradebook.Error{Code: gradebook.CodeRateLimited, Message: err.Error()}
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		fullURL := c.config.BaseURL + path
		if len(query) > 0 {
			fullURL += "?" + query.Encode()
		}

		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return &gradebook.Error{Code: gradebook.CodeInvalidRequest, Message: fmt.Sprintf("encode request: %v", err)}
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return &gradebook.Error{Code: gradebook.CodeInvalidRequest, Message: fmt.Sprintf("create request: %v", err)}
		}
		req.Header.Set("Authorization", "Bearer "+auth.Token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return &gradebook.Error{Code: gradebook.CodeTransport, Message: err.Error()}
			}
			return &gradebook.Error{Code: gradebook.CodeTransport, Message: fmt.Sprintf("execute request: %v", err)}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &gradebook.Error{Code: gradebook.CodeTransport, Message: fmt.Sprintf("read response: %v", err)}
		}

		c.logger.Debug("gradebook request",
			logger.Operation(method+" "+path),
			logger.Int("status", resp.StatusCode),
			logger.Latency(time.Since(start)),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return statusError(resp.StatusCode, respBody)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return &gradebook.Error{Code: gradebook.CodeTransport, Message: fmt.Sprintf("decode response: %v", err)}
			}
		}
		return nil
	})
}

// statusError maps an API status code onto a gradebook.Error.
func statusError(status int, body []byte) *gradebook.Error {
	message := http.StatusText(status)
	var envelope errorDTO
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	code := gradebook.CodeInvalidRequest
	switch {
	case status == http.StatusUnauthorized:
		code = gradebook.CodeUnauthorized
	case status == http.StatusForbidden:
		code = gradebook.CodeForbidden
	case status == http.StatusNotFound:
		code = gradebook.CodeNotFound
	case status == http.StatusTooManyRequests:
		code = gradebook.CodeRateLimited
	case status >= 500:
		code = gradebook.CodeUnavailable
	}

	return &gradebook.Error{Code: code, Message: message, StatusCode: status}
}
