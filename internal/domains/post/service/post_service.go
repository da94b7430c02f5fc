package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"messageboard-backend/internal/domains/post/model"
	"messageboard-backend/internal/domains/post/repository"
	"messageboard-backend/internal/infrastructure/changefeed"
	"messageboard-backend/pkg/logger"
)

// postService implements PostService
type postService struct {
	repo  repository.PostRepository
	store AttachmentStore
	feed  changefeed.Broker
}

func NewPostService(repo repository.PostRepository, store AttachmentStore, feed changefeed.Broker) PostService {
	return &postService{
		repo:  repo,
		store: store,
		feed:  feed,
	}
}

// List loads all posts with their author projection, newest first,
// and resolves each attachment URL.
func (s *postService) List(ctx context.Context) ([]model.PostDTO, error) {
	posts, err := s.repo.ListWithAuthors(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}

	dtos := make([]model.PostDTO, 0, len(posts))
	for i := range posts {
		dtos = append(dtos, s.toDTO(&posts[i]))
	}
	return dtos, nil
}

// Create runs the composer sequence in fixed order:
//
//  1. attachment present -> generate a fresh image id (no backend side effect)
//  2. author identity must be known
//  3. insert the post row (image id included, or NULL)
//  4. attachment present -> upload to {author_id}/{image_id}
//
// A rejected insert needs no rollback of step 1. A failed upload is
// surfaced as a storage error but the row from step 3 stays, dangling
// image id and all: at-least-once row, best-effort attachment. Nothing
// retries; a user resubmit inserts a second row.
func (s *postService) Create(ctx context.Context, userID uuid.UUID, req model.CreatePostRequest, attachment *Attachment) (*model.PostDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var imageID *uuid.UUID
	if attachment != nil {
		id := uuid.New()
		imageID = &id
	}

	if userID == uuid.Nil {
		return nil, model.NewAuthError(nil)
	}

	post := &model.Post{
		Content: req.Content,
		UserID:  userID,
		ImageID: imageID,
	}

	if err := s.repo.Insert(ctx, post); err != nil {
		return nil, model.NewPersistenceError(err)
	}

	s.publish(ctx, changefeed.ActionInsert, post.ID)

	if attachment != nil {
		key := model.AttachmentKey(userID, *imageID)
		if err := s.store.Upload(ctx, key, attachment.Reader, attachment.Size, attachment.ContentType); err != nil {
			// The row keeps its image_id with no object behind it; the
			// feed renders that as a broken image, not an error.
			return nil, model.NewStorageError(err)
		}
	}

	dto := s.toDTO(post)
	return &dto, nil
}

// Delete removes a post after verifying ownership, then best-effort
// removes its attachment. The attachment removal is fire-and-forget:
// its failure is logged, never surfaced, and never undoes the row delete.
func (s *postService) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	// The SQL also matches on user_id; this check exists to give the
	// caller a 403 instead of a silent no-op.
	if !post.IsOwnedBy(userID) {
		return model.ErrNotPostOwner
	}

	if err := s.repo.Delete(ctx, postID, userID); err != nil {
		return model.NewPersistenceError(err)
	}

	s.publish(ctx, changefeed.ActionDelete, postID)

	if key := post.AttachmentKey(); key != "" {
		if err := s.store.Remove(ctx, key); err != nil {
			// Orphaned object, accepted as a leak.
			logger.Warn(fmt.Sprintf("attachment removal failed for %s", key), err)
		}
	}

	return nil
}

// publish tells the change feed a row mutated. A publish failure only
// costs liveness (other clients miss one refresh), so it must not fail
// the write that already happened.
func (s *postService) publish(ctx context.Context, action changefeed.Action, postID uuid.UUID) {
	if err := s.feed.Publish(ctx, changefeed.Event{Action: action, PostID: postID}); err != nil {
		logger.Warn("change feed publish failed", err)
	}
}

func (s *postService) toDTO(p *model.Post) model.PostDTO {
	dto := model.PostDTO{
		ID:          p.ID,
		Content:     p.Content,
		UserID:      p.UserID,
		ImageID:     p.ImageID,
		AuthorEmail: p.AuthorEmail,
		CreatedAt:   p.CreatedAt,
	}

	if key := p.AttachmentKey(); key != "" {
		url := s.store.PublicURL(key)
		dto.ImageURL = &url
	}

	return dto
}
