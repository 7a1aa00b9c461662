package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Mailer queues transactional mail. A nil Mailer disables it.
type Mailer interface {
	EnqueueWelcome(ctx context.Context, email, name string) error
}

// Service wraps registration and credential checks.
type Service struct {
	repo   Repository
	codec  *identity.TokenCodec
	mailer Mailer
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *identity.TokenCodec, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{repo: repo, codec: codec, mailer: mailer, logger: logger}
}

// Register creates an account and returns it. Unknown role names are
// rejected; an empty role list defaults to the plain user role.
func (s *Service) Register(ctx context.Context, email, name, password string, roles []string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(roles) == 0 {
		roles = []string{string(identity.RoleUser)}
	}
	for _, raw := range roles {
		if _, ok := identity.ParseRole(raw); !ok {
			return nil, fmt.Errorf("auth: unknown role %q: %w", raw, httpx.ErrValidation)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Roles:        roles,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if s.mailer != nil {
		if err := s.mailer.EnqueueWelcome(ctx, user.Email, user.Name); err != nil {
			s.logger.Warn("welcome mail enqueue failed", slog.Any("error", err))
		}
	}
	return &user, nil
}

// Login validates credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", httpx.ErrUnauthorized
	}
	if !user.IsActive {
		return "", httpx.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", httpx.ErrUnauthorized
	}
	principal := identity.NewPrincipal(user.ID, user.Name, user.Roles)
	token, err := s.codec.Issue(principal, time.Now())
	if err != nil {
		return "", err
	}
	return token, nil
}
