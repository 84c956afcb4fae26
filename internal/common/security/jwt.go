package security

import (
	"errors"
	"time"

	"contest_arena/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// Identity is who a verified token speaks for.
type Identity struct {
	UserID string
	Role   string
}

// GenerateToken signs a token for userID valid for the configured expiry.
func GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(config.AppConfig.JWTExp).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func IdentityFromClaims(claims map[string]interface{}) (Identity, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return Identity{}, errors.New("user_id claim is missing or not a string")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Identity{}, errors.New("role claim is missing or not a string")
	}
	return Identity{UserID: id, Role: role}, nil
}
