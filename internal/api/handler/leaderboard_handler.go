package handler

import (
	"context"
	"net/http"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type leaderboardService interface {
	Global(ctx context.Context) ([]model.GlobalLeaderboardEntry, error)
}

type LeaderboardHandler struct {
	leaderboardService leaderboardService
}

func NewLeaderboardHandler(ls leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: ls}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/global", h.global)
}

func (h *LeaderboardHandler) global(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.Global(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
