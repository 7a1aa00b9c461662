package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Repository defines persistence operations for the tags module.
type Repository interface {
	Create(ctx context.Context, tag Tag) error
	Get(ctx context.Context, id string) (Tag, error)
	List(ctx context.Context) ([]Tag, error)
	Delete(ctx context.Context, id string) error
	OwnsAnyTaggedPost(ctx context.Context, tagID, userID string) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a tag. Tag names are unique.
func (r *PGRepository) Create(ctx context.Context, tag Tag) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)`,
		tag.ID, tag.Name, tag.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("tags: name taken: %w", httpx.ErrDuplicate)
		}
		return fmt.Errorf("tags: insert: %w", err)
	}
	return nil
}

// Get fetches a tag with its post count.
func (r *PGRepository) Get(ctx context.Context, id string) (Tag, error) {
	const query = `
		SELECT t.id, t.name, t.created_at, COUNT(pt.post_id)
		FROM tags t
		LEFT JOIN post_tags pt ON pt.tag_id = t.id
		WHERE t.id = $1
		GROUP BY t.id, t.name, t.created_at`
	var tag Tag
	err := r.pool.QueryRow(ctx, query, id).Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.PostCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, httpx.ErrNotFound
		}
		return Tag{}, fmt.Errorf("tags: get: %w", err)
	}
	return tag, nil
}

// List returns all tags ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Tag, error) {
	const query = `
		SELECT t.id, t.name, t.created_at, COUNT(pt.post_id)
		FROM tags t
		LEFT JOIN post_tags pt ON pt.tag_id = t.id
		GROUP BY t.id, t.name, t.created_at
		ORDER BY t.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tags: list: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.PostCount); err != nil {
			return nil, fmt.Errorf("tags: scan: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Delete removes a tag; post associations cascade.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tags: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// OwnsAnyTaggedPost reports whether the user owns at least one post
// carrying the tag.
func (r *PGRepository) OwnsAnyTaggedPost(ctx context.Context, tagID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM post_tags pt
			JOIN posts p ON p.id = pt.post_id
			WHERE pt.tag_id = $1 AND p.owner_user_id = $2
		)`
	var owns bool
	if err := r.pool.QueryRow(ctx, query, tagID, userID).Scan(&owns); err != nil {
		return false, fmt.Errorf("tags: ownership probe: %w", err)
	}
	return owns, nil
}

var _ Repository = (*PGRepository)(nil)
