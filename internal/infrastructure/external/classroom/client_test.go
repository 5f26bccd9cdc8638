package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/participation-hub/internal/domain/gradebook"
	"github.com/classpulse/participation-hub/internal/domain/shared"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL)
	cfg.RateLimiterConfig.MinInterval = 0
	cfg.RateLimiterConfig.RequestsPerSecond = 1000
	return NewClient(cfg, NewStaticTokenProvider("test-token")), srv
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(courseListDTO{})
	}))

	_, err := client.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClientNoCredentialSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(DefaultClientConfig(srv.URL), NewStaticTokenProvider(""))

	_, err := client.ListCourses(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	assert.Equal(t, int32(0), calls.Load())
}

func TestClientListAssignments(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/courses/c1/courseWork", r.URL.Path)
		_ = json.NewEncoder(w).Encode(courseWorkListDTO{CourseWork: []courseWorkDTO{
			{ID: "cw1", Title: "Participation", MaxPoints: 15},
			{ID: "cw2", Title: "Homework 3", MaxPoints: 100},
		}})
	}))

	assignments, err := client.ListAssignments(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, gradebook.Assignment{ID: "cw1", Title: "Participation", MaxPoints: 15}, assignments[0])
}

func TestClientCreateAssignment(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/courses/c1/courseWork", r.URL.Path)

		var body courseWorkDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Participation", body.Title)
		assert.Equal(t, gradebook.ParticipationDescription, body.Description)
		assert.Equal(t, 15, body.MaxPoints)
		assert.Equal(t, "ASSIGNMENT", body.WorkType)
		assert.Equal(t, "PUBLISHED", body.State)

		body.ID = "cw9"
		_ = json.NewEncoder(w).Encode(body)
	}))

	created, err := client.CreateAssignment(context.Background(), "c1", gradebook.Assignment{
		Title:     gradebook.ParticipationTitle,
		MaxPoints: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, "cw9", created.ID)
	assert.Equal(t, 15, created.MaxPoints)
}

func TestClientPatchSubmissionGrades(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/courses/c1/courseWork/cw1/studentSubmissions/sub1", r.URL.Path)
		assert.Equal(t, "draftGrade,assignedGrade", r.URL.Query().Get("updateMask"))

		var body gradePatchDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 24, body.DraftGrade)
		assert.Equal(t, 24, body.AssignedGrade)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.PatchSubmissionGrades(context.Background(), "c1", "cw1", "sub1", gradebook.Grade{Draft: 24, Assigned: 24})
	require.NoError(t, err)
}

func TestClientListSubmissionsFiltersByStudent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s1", r.URL.Query().Get("userId"))
		draft := 9
		_ = json.NewEncoder(w).Encode(submissionListDTO{StudentSubmissions: []submissionDTO{
			{ID: "sub1", UserID: "s1", DraftGrade: &draft},
		}})
	}))

	subs, err := client.ListSubmissions(context.Background(), "c1", "cw1", "s1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "s1", subs[0].StudentID)
	require.NotNil(t, subs[0].DraftGrade)
	assert.Equal(t, 9, *subs[0].DraftGrade)
	assert.Nil(t, subs[0].AssignedGrade)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  string
		temporary bool
	}{
		{"unauthorized", http.StatusUnauthorized, gradebook.CodeUnauthorized, false},
		{"forbidden", http.StatusForbidden, gradebook.CodeForbidden, false},
		{"not found", http.StatusNotFound, gradebook.CodeNotFound, false},
		{"rate limited", http.StatusTooManyRequests, gradebook.CodeRateLimited, true},
		{"server error", http.StatusInternalServerError, gradebook.CodeUnavailable, true},
		{"bad request", http.StatusBadRequest, gradebook.CodeInvalidRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := client.ListCourses(context.Background())
			require.Error(t, err)

			var ge *gradebook.Error
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, tt.wantCode, ge.Code)
			assert.Equal(t, tt.status, ge.StatusCode)
			assert.Equal(t, tt.temporary, ge.Temporary())
		})
	}
}

func TestClientErrorUsesAPIMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "insufficient scopes", "status": "PERMISSION_DENIED"},
		})
	}))

	_, err := client.ListCourses(context.Background())
	require.Error(t, err)

	var ge *gradebook.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "insufficient scopes", ge.Message)
}

func TestClientBreakerOpensAfterServerErrors(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.ListCourses(ctx)
		require.Error(t, err)
	}

	_, err := client.ListCourses(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "circuit breaker is open")
}

func TestClientBreakerIgnoresPermanentErrors(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.ListCourses(ctx)
		var ge *gradebook.Error
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, gradebook.CodeNotFound, ge.Code)
	}
}

func TestCachingProviderReusesToken(t *testing.T) {
	var calls atomic.Int32
	upstream := gradebook.CredentialProviderFunc(func(ctx context.Context) (gradebook.AuthContext, error) {
		calls.Add(1)
		return gradebook.AuthContext{Token: "fresh", Expiry: time.Now().Add(time.Hour)}, nil
	})

	provider := NewCachingProvider(upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		auth, err := provider.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", auth.Token)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestExpiredStaticTokenRejected(t *testing.T) {
	provider := NewExpiringTokenProvider("stale", time.Now().Add(-time.Minute))

	_, err := provider.Resolve(context.Background())
	assert.ErrorIs(t, err, gradebook.ErrNoCredential)
}
