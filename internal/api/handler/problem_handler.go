package handler

import (
	"context"
	"net/http"
	"strconv"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type problemService interface {
	CreateProblem(ctx context.Context, userID string, req service.CreateProblemRequest) (*model.Problem, error)
	GetProblem(ctx context.Context, userID, role, problemID string) (*model.Problem, error)
	ListProblems(ctx context.Context, role string, q service.ListProblemsQuery) (*service.ProblemPage, error)
}

type ProblemHandler struct {
	problemService problemService
}

func NewProblemHandler(ps problemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(middleware.OptionalIdentity)
		public.Get("/", h.listProblems)
		public.Get("/{problemID}", h.getProblem)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Authenticator)
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.createProblem)
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	result, err := h.problemService.ListProblems(r.Context(), role, service.ListProblemsQuery{
		Page:       page,
		Limit:      limit,
		Difficulty: model.ProblemDifficulty(q.Get("difficulty")),
		Tag:        q.Get("tag"),
	})
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	problem, err := h.problemService.GetProblem(r.Context(), userID, role, chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}
