package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"contest_arena/internal/app/service"
	"contest_arena/internal/common"
	"contest_arena/internal/common/security"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	security.TokenAuth = jwtauth.New("HS256", []byte("handler-test-secret"), nil)
	os.Exit(m.Run())
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	_, token, err := security.TokenAuth.Encode(map[string]interface{}{"user_id": userID, "role": role})
	require.NoError(t, err)
	return "Bearer " + token
}

func mount(pattern string, routes func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Route(pattern, routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type stubSubmissions struct {
	createErr error
	gotUser   string
	gotRole   string
	gotReq    service.CreateSubmissionRequest
}

func (s *stubSubmissions) CreateSubmission(ctx context.Context, userID string, req service.CreateSubmissionRequest) (*model.Submission, error) {
	s.gotUser, s.gotReq = userID, req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Submission{ID: "sub-1", UserID: userID, ProblemID: req.ProblemID, Status: model.StatusQueued}, nil
}

func (s *stubSubmissions) GetSubmissionResult(ctx context.Context, userID, role, submissionID string) (*service.SubmissionResult, error) {
	s.gotUser, s.gotRole = userID, role
	if submissionID != "sub-1" {
		return nil, common.Errorf("submission %s: %w", submissionID, common.ErrNotFound)
	}
	return &service.SubmissionResult{Submission: &model.Submission{ID: "sub-1", Status: model.StatusAccepted}}, nil
}

func (s *stubSubmissions) ListMySubmissions(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	if problemID == "" {
		return nil, common.ErrBadRequest
	}
	return []model.Submission{{ID: "sub-1", ProblemID: problemID}}, nil
}

func (s *stubSubmissions) DeleteSubmission(ctx context.Context, userID, submissionID string) error {
	return nil
}

func TestSubmissionHandler(t *testing.T) {
	stub := &stubSubmissions{}
	h := mount("/submissions", NewSubmissionHandler(stub).RegisterRoutes)
	alice := bearer(t, "alice", model.RoleUser)

	t.Run("requires a token", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/submissions/", "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization token required")
	})

	t.Run("rejects a forged token", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/submissions/sub-1", "Bearer not.a.jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create is accepted for grading", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/submissions/", alice,
			`{"problem_id":"p1","language":"python","code":"print(1)","user_activity":{"key_strokes":3}}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "alice", stub.gotUser)
		assert.Equal(t, "p1", stub.gotReq.ProblemID)
		assert.Equal(t, 3, stub.gotReq.UserActivity.KeyStrokes)

		var sub model.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, model.StatusQueued, sub.Status)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/submissions/", alice, `{"problem_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cooldown maps to 429", func(t *testing.T) {
		stub.createErr = common.Errorf("wait 4s: %w", common.ErrRateLimited)
		defer func() { stub.createErr = nil }()

		rec := do(t, h, http.MethodPost, "/submissions/", alice, `{"problem_id":"p1"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("internal detail is hidden", func(t *testing.T) {
		stub.createErr = common.Errorf("pq: connection reset: %w", common.ErrInternalServer)
		defer func() { stub.createErr = nil }()

		rec := do(t, h, http.MethodPost, "/submissions/", alice, `{"problem_id":"p1"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("get passes the caller role", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/submissions/sub-1", bearer(t, "root", model.RoleAdmin), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "root", stub.gotUser)
		assert.Equal(t, model.RoleAdmin, stub.gotRole)

		rec = do(t, h, http.MethodGet, "/submissions/missing", alice, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list needs a problem", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/submissions/", alice, "").Code)
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/submissions/?problem_id=p1", alice, "").Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/submissions/sub-1", alice, "").Code)
	})
}

type stubContests struct {
	registered map[string]bool
	rescored   string
}

func (s *stubContests) CreateContest(ctx context.Context, userID string, req service.CreateContestRequest) (*model.Contest, error) {
	return &model.Contest{ID: "c-new", Title: req.Title, CreatedByID: &userID}, nil
}

func (s *stubContests) GetContest(ctx context.Context, contestID string) (*service.ContestView, error) {
	if contestID != "c1" {
		return nil, common.ErrNotFound
	}
	return &service.ContestView{Contest: &model.Contest{ID: "c1"}, Phase: model.ContestRunning}, nil
}

func (s *stubContests) ListContests(ctx context.Context) ([]service.ContestView, error) {
	return []service.ContestView{}, nil
}

func (s *stubContests) Register(ctx context.Context, contestID, userID string) (bool, error) {
	if s.registered[userID] {
		return false, nil
	}
	s.registered[userID] = true
	return true, nil
}

func (s *stubContests) Leaderboard(ctx context.Context, contestID string) ([]model.ContestStandingRow, error) {
	return []model.ContestStandingRow{{Rank: 1, UserID: "bob", Score: 50}}, nil
}

func (s *stubContests) Results(ctx context.Context, contestID string) ([]model.ParticipantResult, error) {
	return []model.ParticipantResult{}, nil
}

func (s *stubContests) Rescore(ctx context.Context, contestID string) (int, error) {
	s.rescored = contestID
	return 2, nil
}

func TestContestHandler(t *testing.T) {
	stub := &stubContests{registered: map[string]bool{}}
	h := mount("/contests", NewContestHandler(stub).RegisterRoutes)
	alice := bearer(t, "alice", model.RoleUser)
	admin := bearer(t, "root", model.RoleAdmin)

	t.Run("public reads", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/contests/c1", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"phase":"running"`)

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/contests/c9", "", "").Code)
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/contests/c1/leaderboard", "", "").Code)
	})

	t.Run("register is idempotent", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/contests/c1/register", "", "").Code)

		rec := do(t, h, http.MethodPost, "/contests/c1/register", alice, "")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"registered":true,"newly_registered":true}`, rec.Body.String())

		rec = do(t, h, http.MethodPost, "/contests/c1/register", alice, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"registered":true,"newly_registered":false}`, rec.Body.String())
	})

	t.Run("admin routes", func(t *testing.T) {
		body := `{"title":"Round","easy_problem_id":"e","medium_problem_id":"m","hard_problem_id":"h"}`
		assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/contests/", alice, body).Code)
		assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/contests/", admin, body).Code)

		assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/contests/c1/results", alice, "").Code)
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/contests/c1/results", admin, "").Code)

		rec := do(t, h, http.MethodPost, "/contests/c1/rescore", admin, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"updated_entries":2}`, rec.Body.String())
		assert.Equal(t, "c1", stub.rescored)
	})
}

type stubProblems struct {
	gotUser string
	gotRole string
	gotList service.ListProblemsQuery
}

func (s *stubProblems) CreateProblem(ctx context.Context, userID string, req service.CreateProblemRequest) (*model.Problem, error) {
	return &model.Problem{ID: "p-new", Title: req.Title}, nil
}

func (s *stubProblems) GetProblem(ctx context.Context, userID, role, problemID string) (*model.Problem, error) {
	s.gotUser, s.gotRole = userID, role
	return &model.Problem{ID: problemID}, nil
}

func (s *stubProblems) ListProblems(ctx context.Context, role string, q service.ListProblemsQuery) (*service.ProblemPage, error) {
	s.gotRole, s.gotList = role, q
	return &service.ProblemPage{Problems: []model.Problem{}, Page: q.Page, Limit: q.Limit}, nil
}

func TestProblemHandler(t *testing.T) {
	stub := &stubProblems{}
	h := mount("/problems", NewProblemHandler(stub).RegisterRoutes)

	rec := do(t, h, http.MethodGet, "/problems/p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, stub.gotUser, "anonymous readers are allowed")

	rec = do(t, h, http.MethodGet, "/problems/p1", bearer(t, "alice", model.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", stub.gotUser)
	assert.Equal(t, model.RoleUser, stub.gotRole)

	rec = do(t, h, http.MethodGet, "/problems/?page=2&limit=5&difficulty=hard&tag=dp", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ListProblemsQuery{Page: 2, Limit: 5, Difficulty: model.DifficultyHard, Tag: "dp"}, stub.gotList)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/problems/", "", `{}`).Code)
	assert.Equal(t, http.StatusForbidden,
		do(t, h, http.MethodPost, "/problems/", bearer(t, "alice", model.RoleUser), `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/problems/", bearer(t, "root", model.RoleAdmin), `{"title":"x"}`).Code)
}
