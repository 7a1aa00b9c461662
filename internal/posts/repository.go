package posts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Repository defines persistence operations for the posts module. Methods
// with a Tx suffix run on the caller's transaction so notification staging
// shares the mutation's commit.
type Repository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, post Post) error
	UpdateTx(ctx context.Context, tx pgx.Tx, post Post) error
	Get(ctx context.Context, id string) (Post, error)
	GetDetail(ctx context.Context, id string) (Detail, error)
	List(ctx context.Context, filters Filters) ([]Post, error)
	Delete(ctx context.Context, id string) error
	Meta(ctx context.Context, id string) (Meta, error)

	InsertLikeTx(ctx context.Context, tx pgx.Tx, postID, userID string) error
	DeleteLike(ctx context.Context, postID, userID string) (bool, error)
	InsertCommentTx(ctx context.Context, tx pgx.Tx, c CommentView, postID string) error
	InsertMedia(ctx context.Context, m MediaView, postID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateTx inserts the post row and its tag associations.
func (r *PGRepository) CreateTx(ctx context.Context, tx pgx.Tx, post Post) error {
	const query = `
		INSERT INTO posts (id, title, content, status, created_at, published_at, owner_user_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.Status, post.CreatedAt,
		post.PublishedAt, post.OwnerUserID, post.CategoryID)
	if err != nil {
		return fmt.Errorf("posts: insert: %w", err)
	}
	return r.replaceTags(ctx, tx, post.ID, post.TagIDs)
}

// UpdateTx rewrites mutable fields and replaces the tag set. The owner
// column is deliberately absent from the statement.
func (r *PGRepository) UpdateTx(ctx context.Context, tx pgx.Tx, post Post) error {
	const query = `
		UPDATE posts SET title = $2, content = $3, status = $4, published_at = $5, category_id = $6
		WHERE id = $1`
	tag, err := tx.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.Status, post.PublishedAt, post.CategoryID)
	if err != nil {
		return fmt.Errorf("posts: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, post.ID); err != nil {
		return fmt.Errorf("posts: clear tags: %w", err)
	}
	return r.replaceTags(ctx, tx, post.ID, post.TagIDs)
}

func (r *PGRepository) replaceTags(ctx context.Context, tx pgx.Tx, postID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, tagID); err != nil {
			return fmt.Errorf("posts: attach tag: %w", err)
		}
	}
	return nil
}

// Get fetches a post with its tag IDs.
func (r *PGRepository) Get(ctx context.Context, id string) (Post, error) {
	const query = `
		SELECT id, title, content, status, created_at, published_at, owner_user_id, category_id
		FROM posts WHERE id = $1`
	var post Post
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.Status, &post.CreatedAt,
		&post.PublishedAt, &post.OwnerUserID, &post.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, httpx.ErrNotFound
		}
		return Post{}, fmt.Errorf("posts: get: %w", err)
	}
	tagIDs, err := r.tagIDs(ctx, id)
	if err != nil {
		return Post{}, err
	}
	post.TagIDs = tagIDs
	return post, nil
}

func (r *PGRepository) tagIDs(ctx context.Context, postID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT tag_id FROM post_tags WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("posts: tag ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("posts: scan tag id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetDetail fetches a post with comments, like count, and media.
func (r *PGRepository) GetDetail(ctx context.Context, id string) (Detail, error) {
	post, err := r.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Post: post, Comments: []CommentView{}, Media: []MediaView{}}

	rows, err := r.pool.Query(ctx,
		`SELECT id, content, user_id, created_at FROM comments WHERE post_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return Detail{}, fmt.Errorf("posts: comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c CommentView
		if err := rows.Scan(&c.ID, &c.Content, &c.UserID, &c.CreatedAt); err != nil {
			return Detail{}, fmt.Errorf("posts: scan comment: %w", err)
		}
		detail.Comments = append(detail.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return Detail{}, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = $1`, id).Scan(&detail.LikeCount); err != nil {
		return Detail{}, fmt.Errorf("posts: like count: %w", err)
	}

	mediaRows, err := r.pool.Query(ctx,
		`SELECT id, file_url, file_type FROM media_attachments WHERE post_id = $1`, id)
	if err != nil {
		return Detail{}, fmt.Errorf("posts: media: %w", err)
	}
	defer mediaRows.Close()
	for mediaRows.Next() {
		var m MediaView
		if err := mediaRows.Scan(&m.ID, &m.FileURL, &m.FileType); err != nil {
			return Detail{}, fmt.Errorf("posts: scan media: %w", err)
		}
		detail.Media = append(detail.Media, m)
	}
	return detail, mediaRows.Err()
}

// List returns posts matching the filters. Uses a dynamic query because of
// filter combinations.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Post, error) {
	query := `SELECT DISTINCT p.id, p.title, p.content, p.status, p.created_at, p.published_at, p.owner_user_id, p.category_id
		FROM posts p`
	args := []any{}
	argCount := 0

	if filters.TagID != "" {
		query += ` JOIN post_tags pt ON pt.post_id = p.id`
	}
	query += ` WHERE 1=1`

	if filters.OwnerUserID != "" {
		argCount++
		query += ` AND p.owner_user_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.OwnerUserID)
	}
	if filters.Status != "" {
		argCount++
		query += ` AND p.status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.CategoryID != "" {
		argCount++
		query += ` AND p.category_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.CategoryID)
	}
	if filters.TagID != "" {
		argCount++
		query += ` AND pt.tag_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.TagID)
	}
	if filters.Search != "" {
		argCount++
		query += ` AND (p.title ILIKE $` + strconv.Itoa(argCount) + ` OR p.content ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("posts: list: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var post Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.Status,
			&post.CreatedAt, &post.PublishedAt, &post.OwnerUserID, &post.CategoryID); err != nil {
			return nil, fmt.Errorf("posts: scan: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Delete removes a post. Associations cascade in the schema.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("posts: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Meta fetches the authorization-relevant slice of a post.
func (r *PGRepository) Meta(ctx context.Context, id string) (Meta, error) {
	var meta Meta
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, title FROM posts WHERE id = $1`, id).
		Scan(&meta.ID, &meta.OwnerUserID, &meta.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Meta{}, httpx.ErrNotFound
		}
		return Meta{}, fmt.Errorf("posts: meta: %w", err)
	}
	return meta, nil
}

// InsertLikeTx records a like. A repeat like by the same user trips the
// unique constraint and surfaces as a duplicate.
func (r *PGRepository) InsertLikeTx(ctx context.Context, tx pgx.Tx, postID, userID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO likes (id, post_id, user_id) VALUES ($1, $2, $3)`,
		uuid.NewString(), postID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("posts: already liked: %w", httpx.ErrDuplicate)
		}
		return fmt.Errorf("posts: insert like: %w", err)
	}
	return nil
}

// DeleteLike removes a like; the bool reports whether one existed.
func (r *PGRepository) DeleteLike(ctx context.Context, postID, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("posts: delete like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertCommentTx records a comment on the caller's transaction.
func (r *PGRepository) InsertCommentTx(ctx context.Context, tx pgx.Tx, c CommentView, postID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO comments (id, post_id, content, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, postID, c.Content, c.UserID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("posts: insert comment: %w", err)
	}
	return nil
}

// InsertMedia records a media attachment row.
func (r *PGRepository) InsertMedia(ctx context.Context, m MediaView, postID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO media_attachments (id, post_id, file_url, file_type) VALUES ($1, $2, $3, $4)`,
		m.ID, postID, m.FileURL, m.FileType)
	if err != nil {
		return fmt.Errorf("posts: insert media: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
