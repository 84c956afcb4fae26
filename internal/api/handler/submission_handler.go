package handler

import (
	"context"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type submissionService interface {
	CreateSubmission(ctx context.Context, userID string, req service.CreateSubmissionRequest) (*model.Submission, error)
	GetSubmissionResult(ctx context.Context, userID, role, submissionID string) (*service.SubmissionResult, error)
	ListMySubmissions(ctx context.Context, userID, problemID string) ([]model.Submission, error)
	DeleteSubmission(ctx context.Context, userID, submissionID string) error
}

type SubmissionHandler struct {
	submissionService submissionService
}

func NewSubmissionHandler(ss submissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.createSubmission)
	r.Get("/", h.listSubmissions)
	r.Get("/{submissionID}", h.getSubmission)
	r.Delete("/{submissionID}", h.deleteSubmission)
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submission, err := h.submissionService.CreateSubmission(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	// Grading is asynchronous; clients poll GET /submissions/{id}.
	common.RespondWithJSON(w, http.StatusAccepted, submission)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.submissionService.GetSubmissionResult(r.Context(), userID, role, chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	subs, err := h.submissionService.ListMySubmissions(r.Context(), userID, r.URL.Query().Get("problem_id"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.submissionService.DeleteSubmission(r.Context(), userID, chi.URLParam(r, "submissionID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
