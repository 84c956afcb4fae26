package handler

import (
	"context"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type userService interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

type UserHandler struct {
	userService userService
}

func NewUserHandler(us userService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/me", h.me)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
