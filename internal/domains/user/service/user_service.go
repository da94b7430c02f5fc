package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"messageboard-backend/internal/domains/user"
	"messageboard-backend/pkg/jwt"
)

// userService implements user.Service
type userService struct {
	repo       user.Repository
	jwtManager *jwt.Manager
	sessions   user.TokenRevoker
}

// NewUserService wires the service with its dependencies via constructor injection.
func NewUserService(repo user.Repository, jwtManager *jwt.Manager, sessions user.TokenRevoker) user.Service {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
		sessions:   sessions,
	}
}

// Register creates a new account
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	// Handler validates too, but the service is the last line of defense.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	// bcrypt cost 12: balance between security and login latency
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

// Login authenticates the user and issues an access token
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Do not reveal whether the email exists.
		return nil, user.ErrInvalidCredentials
	}

	// Constant-time comparison.
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	dto := u.ToDTO()
	return &user.LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        dto,
	}, nil
}

// Logout revokes the session token. If the revocation write fails the error
// is returned as-is and the session stays valid - no partial logout state.
func (s *userService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return user.ErrUnauthorized
	}

	if err := s.sessions.Revoke(ctx, tokenID, time.Until(expiresAt)); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}

	return nil
}

// GetProfile returns the current user's identity
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := u.ToDTO()
	return &dto, nil
}
