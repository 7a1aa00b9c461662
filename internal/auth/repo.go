package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	SubjectExists(ctx context.Context, userID string) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new account row.
func (r *PGRepository) CreateUser(ctx context.Context, user User) error {
	const query = `
		INSERT INTO users (id, email, name, password_hash, roles, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Roles, user.IsActive, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("auth: email already registered: %w", httpx.ErrDuplicate)
		}
		return fmt.Errorf("auth: create user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, name, password_hash, roles, is_active, created_at, updated_at
		FROM users WHERE email = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Roles,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	return &user, nil
}

// SubjectExists reports whether a token subject maps to an active account.
// Satisfies identity.SubjectLookup.
func (r *PGRepository) SubjectExists(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT is_active FROM users WHERE id = $1`
	var active bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("auth: subject exists: %w", err)
	}
	return active, nil
}

var _ Repository = (*PGRepository)(nil)
