package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"

	"github.com/google/uuid"
)

// TokenIssuer signs an access token for a user id and role.
type TokenIssuer func(userID, role string) (string, error)

// UserService manages the local profile rows that identities from the token issuer map to.
type UserService struct {
	userRepo   repository.UserRepository
	issueToken TokenIssuer
}

func NewUserService(userRepo repository.UserRepository, issueToken TokenIssuer) *UserService {
	return &UserService{userRepo: userRepo, issueToken: issueToken}
}

type CreateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Role        string `json:"role"`
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Email == "" {
		return nil, common.ErrBadRequest
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, common.Errorf("invalid email %q: %w", req.Email, common.ErrValidation)
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, common.Errorf("unknown role %q: %w", role, common.ErrValidation)
	}

	user := &model.User{
		ID:          uuid.NewString(),
		Username:    username,
		Email:       strings.ToLower(req.Email),
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Role:        role,
	}
	if user.DisplayName == "" {
		user.DisplayName = username
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// IssueToken signs a token for the named user.
func (s *UserService) IssueToken(ctx context.Context, username string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user %q: %w", username, err)
	}
	token, err := s.issueToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}
