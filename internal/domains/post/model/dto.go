package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// CreatePostRequest is the composer's input.
type CreatePostRequest struct {
	Content string `json:"content" form:"content"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.Length(1, 4000).Error("content must be 1-4000 characters"),
		),
	)
}

// PostDTO is the feed's display shape: the post plus its author projection
// and the derived attachment URL (nil when there is no attachment).
type PostDTO struct {
	ID          uuid.UUID  `json:"id"`
	Content     string     `json:"content"`
	UserID      uuid.UUID  `json:"user_id"`
	ImageID     *uuid.UUID `json:"image_id"`
	ImageURL    *string    `json:"image_url"`
	AuthorEmail string     `json:"author_email"`
	CreatedAt   time.Time  `json:"created_at"`
}
