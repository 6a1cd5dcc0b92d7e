package service

import (
	"context"

	"github.com/example/meeting-room-portal/internal/model"
)

// AuthService wraps the authentication endpoints.
type AuthService struct {
	client Requester
}

// NewAuthService constructs an AuthService.
func NewAuthService(client Requester) *AuthService {
	return &AuthService{client: client}
}

// Login exchanges credentials for a session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := s.client.Post(ctx, "/auth/login", req, &out)
	return out, err
}

// Register creates an account and returns its session.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := s.client.Post(ctx, "/auth/register", req, &out)
	return out, err
}

// Profile fetches the profile of the current user.
func (s *AuthService) Profile(ctx context.Context) (model.User, error) {
	var out model.User
	err := s.client.Get(ctx, "/auth/profile", nil, &out)
	return out, err
}

// Logout tells the server the session ended.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Post(ctx, "/auth/logout", nil, nil)
}
