package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	// InsertTx writes a notification inside the caller's transaction so the
	// record commits or rolls back together with the triggering mutation.
	InsertTx(ctx context.Context, tx pgx.Tx, n Notification) error
	Get(ctx context.Context, id string) (Notification, error)
	ListForRecipient(ctx context.Context, recipientUserID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// InsertTx writes a notification row on the provided transaction.
func (r *PGRepository) InsertTx(ctx context.Context, tx pgx.Tx, n Notification) error {
	const query = `
		INSERT INTO notifications (id, recipient_user_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, query, n.ID, n.RecipientUserID, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notifications: insert: %w", err)
	}
	return nil
}

// Get fetches a notification by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Notification, error) {
	const query = `
		SELECT id, recipient_user_id, message, is_read, created_at
		FROM notifications WHERE id = $1`
	var n Notification
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.RecipientUserID, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, httpx.ErrNotFound
		}
		return Notification{}, fmt.Errorf("notifications: get: %w", err)
	}
	return n, nil
}

// ListForRecipient returns the recipient's notifications newest first, ties
// broken by insertion order.
func (r *PGRepository) ListForRecipient(ctx context.Context, recipientUserID string) ([]Notification, error) {
	const query = `
		SELECT id, recipient_user_id, message, is_read, created_at
		FROM notifications
		WHERE recipient_user_id = $1
		ORDER BY created_at DESC, seq DESC`
	rows, err := r.pool.Query(ctx, query, recipientUserID)
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifications: scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips is_read to true. The update is idempotent; is_read never
// reverts to false.
func (r *PGRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("notifications: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
