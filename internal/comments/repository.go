package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Repository defines persistence operations for standalone comment
// mutations. Comment creation lives with the post it attaches to.
type Repository interface {
	Get(ctx context.Context, id string) (Comment, error)
	Update(ctx context.Context, id, content string) (Comment, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get fetches a comment by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Comment, error) {
	const query = `
		SELECT id, post_id, content, user_id, created_at, updated_at
		FROM comments WHERE id = $1`
	var c Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.PostID, &c.Content, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, httpx.ErrNotFound
		}
		return Comment{}, fmt.Errorf("comments: get: %w", err)
	}
	return c, nil
}

// Update rewrites the comment body and returns the updated row.
func (r *PGRepository) Update(ctx context.Context, id, content string) (Comment, error) {
	const query = `
		UPDATE comments SET content = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, post_id, content, user_id, created_at, updated_at`
	var c Comment
	err := r.pool.QueryRow(ctx, query, id, content).Scan(
		&c.ID, &c.PostID, &c.Content, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, httpx.ErrNotFound
		}
		return Comment{}, fmt.Errorf("comments: update: %w", err)
	}
	return c, nil
}

// Delete removes a comment.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("comments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
