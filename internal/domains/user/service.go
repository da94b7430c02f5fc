package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the business logic layer contract.
type Service interface {
	// Authentication
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	// Logout terminates the session identified by tokenID. expiresAt is the
	// token's own expiry; the revocation only needs to outlive it. A failure
	// leaves the session fully valid - there is no partial logout state.
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error

	// GetProfile returns the current user's identity.
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
}

// TokenRevoker is the session-termination side of the backend boundary.
// Implemented by the Redis-backed session store.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}
