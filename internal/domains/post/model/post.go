package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post represents a message-board post entity.
// id and created_at are server-assigned; user_id and image_id are immutable
// once written. image_id stays NULL for text-only posts.
type Post struct {
	ID        uuid.UUID  `json:"id"`
	Content   string     `json:"content"`
	UserID    uuid.UUID  `json:"user_id"`
	ImageID   *uuid.UUID `json:"image_id"`
	CreatedAt time.Time  `json:"created_at"`

	// Author projection, joined from the users table. Read-only.
	AuthorEmail string `json:"author_email"`
}

// IsOwnedBy checks whether the given user authored the post.
func (p *Post) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// AttachmentKey derives the storage key for the post's attachment.
// Returns "" when the post has none. The derivation is pure: it never
// checks that an object actually exists at the key.
func (p *Post) AttachmentKey() string {
	if p.ImageID == nil {
		return ""
	}
	return AttachmentKey(p.UserID, *p.ImageID)
}

// AttachmentKey builds the object-storage key for an attachment:
// {author_id}/{image_id}.
func AttachmentKey(userID, imageID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", userID, imageID)
}
