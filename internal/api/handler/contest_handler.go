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

type contestService interface {
	CreateContest(ctx context.Context, userID string, req service.CreateContestRequest) (*model.Contest, error)
	GetContest(ctx context.Context, contestID string) (*service.ContestView, error)
	ListContests(ctx context.Context) ([]service.ContestView, error)
	Register(ctx context.Context, contestID, userID string) (bool, error)
	Leaderboard(ctx context.Context, contestID string) ([]model.ContestStandingRow, error)
	Results(ctx context.Context, contestID string) ([]model.ParticipantResult, error)
	Rescore(ctx context.Context, contestID string) (int, error)
}

type ContestHandler struct {
	contestService contestService
}

func NewContestHandler(cs contestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listContests)
	r.Get("/{contestID}", h.getContest)
	r.Get("/{contestID}/leaderboard", h.leaderboard)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/{contestID}/register", h.register)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Post("/", h.createContest)
			admin.Get("/{contestID}/results", h.results)
			admin.Post("/{contestID}/rescore", h.rescore)
		})
	})
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.CreateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListContests(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.GetContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) register(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	added, err := h.contestService.Register(r.Context(), chi.URLParam(r, "contestID"), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	common.RespondWithJSON(w, status, map[string]bool{"registered": true, "newly_registered": added})
}

func (h *ContestHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.contestService.Leaderboard(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ContestHandler) results(w http.ResponseWriter, r *http.Request) {
	results, err := h.contestService.Results(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *ContestHandler) rescore(w http.ResponseWriter, r *http.Request) {
	updated, err := h.contestService.Rescore(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"updated_entries": updated})
}
