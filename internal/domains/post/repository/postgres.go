package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"messageboard-backend/internal/domains/post/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

type postgresPostRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postgresPostRepository{pool: pool}
}

func (r *postgresPostRepository) Insert(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (content, user_id, image_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		post.Content,
		post.UserID,
		post.ImageID,
	).Scan(&post.ID, &post.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

func (r *postgresPostRepository) ListWithAuthors(ctx context.Context) ([]model.Post, error) {
	// LEFT JOIN: a post whose author row is gone still renders, with an
	// empty email. Secondary sort on id keeps equal timestamps stable
	// across refetches.
	query := `
		SELECT p.id, p.content, p.user_id, p.image_id, p.created_at,
		       COALESCE(u.email, '')
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		err := rows.Scan(
			&p.ID,
			&p.Content,
			&p.UserID,
			&p.ImageID,
			&p.CreatedAt,
			&p.AuthorEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}

	return posts, nil
}

func (r *postgresPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	query := `
		SELECT p.id, p.content, p.user_id, p.image_id, p.created_at,
		       COALESCE(u.email, '')
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`

	p := &model.Post{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Content,
		&p.UserID,
		&p.ImageID,
		&p.CreatedAt,
		&p.AuthorEmail,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return p, nil
}

func (r *postgresPostRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}

	return nil
}
