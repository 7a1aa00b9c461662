package tags

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
)

// Service implements tag operations. Tags carry no owner column, so the
// owner-gated checks resolve ownership transitively: a principal owns a tag
// when at least one post they own carries it.
type Service struct {
	repo   Repository
	policy *authz.Policy
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, policy *authz.Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

// Create registers a new tag. Duplicate names conflict.
func (s *Service) Create(ctx context.Context, principal identity.Principal, name string) (Tag, error) {
	if _, err := authz.Authorize(principal, authz.ActionCreateTag, "", s.policy); err != nil {
		return Tag{}, err
	}
	tag := Tag{
		ID:        uuid.NewString(),
		Name:      strings.ToLower(strings.TrimSpace(name)),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// Get returns a tag, honoring transitive ownership.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id string) (Tag, error) {
	tag, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tag{}, err
	}
	owner, err := s.effectiveOwner(ctx, principal, id)
	if err != nil {
		return Tag{}, err
	}
	if _, err := authz.Authorize(principal, authz.ActionViewTag, owner, s.policy); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// List returns all tags.
func (s *Service) List(ctx context.Context, principal identity.Principal) ([]Tag, error) {
	if _, err := authz.Authorize(principal, authz.ActionListTags, "", s.policy); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Delete removes a tag, honoring transitive ownership.
func (s *Service) Delete(ctx context.Context, principal identity.Principal, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	owner, err := s.effectiveOwner(ctx, principal, id)
	if err != nil {
		return err
	}
	if _, err := authz.Authorize(principal, authz.ActionDeleteTag, owner, s.policy); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// effectiveOwner maps transitive ownership onto the single-owner check: it
// returns the principal's own ID when they own a tagged post, so the
// owner-gated rule sees a match, and an empty owner otherwise, which forces
// the override path.
func (s *Service) effectiveOwner(ctx context.Context, principal identity.Principal, tagID string) (string, error) {
	owns, err := s.repo.OwnsAnyTaggedPost(ctx, tagID, principal.UserID)
	if err != nil {
		return "", err
	}
	if owns {
		return principal.UserID, nil
	}
	return "", nil
}
