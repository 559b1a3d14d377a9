package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/repository"
	"github.com/MariferVL/eventhub/internal/token"
)

// AuthService handles registration, login, and refresh-token rotation.
type AuthService struct {
	log    *slog.Logger
	users  repository.UserRepository
	tokens *token.Manager
}

// NewAuthService constructs an AuthService.
func NewAuthService(log *slog.Logger, users repository.UserRepository, tokens *token.Manager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

// Register creates a new account. The role defaults to "user".
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and issues an access/refresh token pair.
// The refresh token is persisted on the user row so logout can revoke it.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TokenPair{}, ErrInvalidCredentials
		}
		return model.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return model.TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.tokens.Access(u)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.Refresh(u)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return model.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access
// token. The presented token must match the one stored for the user;
// a token that verified but was rotated away or revoked is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		return "", ErrInvalidCredentials
	}

	access, err := s.tokens.Access(u)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// Logout revokes the refresh token. Revoking a token that is already
// unknown is a no-op, so logout can be retried safely.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	u, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, ""); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
