package repository

import (
	"context"

	"github.com/google/uuid"

	"messageboard-backend/internal/domains/post/model"
)

// PostRepository is the row-store side of the backend boundary.
type PostRepository interface {
	// Insert persists a new post and fills in the server-assigned
	// id and created_at on the passed entity.
	Insert(ctx context.Context, post *model.Post) error

	// ListWithAuthors returns every post joined with the author email
	// projection, newest first (created_at DESC, id DESC as tie-break).
	ListWithAuthors(ctx context.Context) ([]model.Post, error)

	// GetByID returns a single post. model.ErrPostNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)

	// Delete removes the post, matching on owner as well as id so an
	// unauthorized delete can never touch the row even if the service
	// check is bypassed. model.ErrPostNotFound when nothing matched.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
