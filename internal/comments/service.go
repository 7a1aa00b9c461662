package comments

import (
	"context"
	"log/slog"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
)

// Service implements comment moderation operations. Both operations are
// owner-gated with a moderation override, so admins and moderators can
// police comments they do not own.
type Service struct {
	repo   Repository
	policy *authz.Policy
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, policy *authz.Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

// Edit rewrites a comment's body. The author keeps authorship regardless of
// who edits.
func (s *Service) Edit(ctx context.Context, principal identity.Principal, id, content string) (Comment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	decision, err := authz.Authorize(principal, authz.ActionEditComment, current.UserID, s.policy)
	if err != nil {
		return Comment{}, err
	}
	if decision.Reason == authz.ReasonRoleOverride {
		s.logger.Info("comment edited by moderation override",
			slog.String("comment_id", id),
			slog.String("actor", principal.UserID))
	}
	return s.repo.Update(ctx, id, content)
}

// Delete removes a comment.
func (s *Service) Delete(ctx context.Context, principal identity.Principal, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision, err := authz.Authorize(principal, authz.ActionDeleteComment, current.UserID, s.policy)
	if err != nil {
		return err
	}
	if decision.Reason == authz.ReasonRoleOverride {
		s.logger.Info("comment deleted by moderation override",
			slog.String("comment_id", id),
			slog.String("actor", principal.UserID))
	}
	return s.repo.Delete(ctx, id)
}
