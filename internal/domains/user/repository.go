package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the contract for the user data access layer.
type Repository interface {
	// Create inserts a new user.
	// Returns ErrEmailAlreadyExists when the email is taken.
	Create(ctx context.Context, user *User) error

	// FindByID looks a user up by id.
	// Returns ErrUserNotFound when missing.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail looks a user up by email (login path).
	// Returns ErrUserNotFound when missing.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether an account uses the email already.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
