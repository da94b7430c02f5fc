package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"messageboard-backend/internal/domains/post/model"
)

// Attachment is an uploaded file as it arrives from the multipart form.
type Attachment struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// AttachmentStore is the object-storage side of the backend boundary.
// Implemented by the MinIO adapter.
type AttachmentStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, keys ...string) error

	// PublicURL is pure derivation - no I/O, never fails. A dangling key
	// yields a URL that resolves to a missing object.
	PublicURL(key string) string
}

// PostService is the business logic layer contract for posts.
type PostService interface {
	// List returns every post with its author projection and resolved
	// attachment URL, newest first.
	List(ctx context.Context) ([]model.PostDTO, error)

	// Create persists a post for the given author, uploading the
	// attachment (if any) after the row insert. See implementation for
	// the ordering and partial-failure contract.
	Create(ctx context.Context, userID uuid.UUID, req model.CreatePostRequest, attachment *Attachment) (*model.PostDTO, error)

	// Delete removes a post owned by userID, then best-effort removes
	// its attachment. model.ErrNotPostOwner when userID is not the author.
	Delete(ctx context.Context, userID, postID uuid.UUID) error
}
