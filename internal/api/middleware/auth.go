package middleware

import (
	"context"
	"errors"
	"net/http"

	"contest_arena/internal/common"
	"contest_arena/internal/common/security"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// identityFromRequest reads the claims that jwtauth.Verifier left in the request context.
func identityFromRequest(r *http.Request) (security.Identity, error) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return security.Identity{}, err
	}
	if token == nil {
		return security.Identity{}, jwtauth.ErrNoTokenFound
	}
	return security.IdentityFromClaims(claims)
}

func withIdentity(ctx context.Context, id security.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDCtxKey, id.UserID)
	return context.WithValue(ctx, UserRoleCtxKey, id.Role)
}

// Authenticator rejects requests without a valid token.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := identityFromRequest(r)
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// OptionalIdentity attaches the caller's identity when a valid token is present
// and lets anonymous requests through unchanged.
func OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := identityFromRequest(r); err == nil {
			r = r.WithContext(withIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
