package handler

import (
	"encoding/json"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/common"
)

// currentUser writes a 401 and returns false when the request carries no identity.
func currentUser(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return "", "", false
	}
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	return userID, role, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}
