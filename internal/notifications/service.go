package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/observability"
)

// AudienceSource exposes the set of users with at least one live session.
// Platform-wide announcements resolve their audience against it.
type AudienceSource interface {
	ConnectedUserIDs() []string
}

// Dispatcher hands a committed notification to the asynchronous delivery
// path. Implementations must return quickly; delivery itself is detached.
type Dispatcher interface {
	EnqueuePush(ctx context.Context, n Notification) error
}

// Service is the notification fan-out service.
type Service struct {
	repo       Repository
	audience   AudienceSource
	dispatcher Dispatcher
	policy     *authz.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewService constructs a Service.
func NewService(repo Repository, audience AudienceSource, dispatcher Dispatcher, policy *authz.Policy, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, audience: audience, dispatcher: dispatcher, policy: policy, logger: logger, metrics: metrics}
}

// Stage resolves the event's audience, renders its message, and writes one
// notification row per recipient on the caller's transaction. The rows
// become durable only when the caller commits; an aborted mutation leaves
// no trace of the event.
//
// Targeted events (likes, comments) go to the post owner, skipping the
// actor. Post announcements go to every user with a live session at stage
// time.
func (s *Service) Stage(ctx context.Context, tx pgx.Tx, event Event) ([]Notification, error) {
	recipients := s.resolveAudience(event)
	if len(recipients) == 0 {
		return nil, nil
	}

	message := event.Message()
	now := time.Now().UTC()
	staged := make([]Notification, 0, len(recipients))
	for _, recipient := range recipients {
		n := Notification{
			ID:              uuid.NewString(),
			RecipientUserID: recipient,
			Message:         message,
			IsRead:          false,
			CreatedAt:       now,
		}
		if err := s.repo.InsertTx(ctx, tx, n); err != nil {
			return nil, err
		}
		staged = append(staged, n)
	}
	return staged, nil
}

// Dispatch queues live delivery for already-committed notifications. It is
// best-effort by contract: enqueue failures are logged and swallowed, and
// no error ever reaches the command that produced the event.
func (s *Service) Dispatch(ctx context.Context, staged []Notification) {
	for range staged {
		s.metrics.NotificationPublished()
	}
	if s.dispatcher == nil {
		return
	}
	for _, n := range staged {
		if err := s.dispatcher.EnqueuePush(ctx, n); err != nil {
			s.logger.Warn("enqueue live push failed",
				slog.String("notification_id", n.ID),
				slog.String("recipient", n.RecipientUserID),
				slog.Any("error", err))
		}
	}
}

func (s *Service) resolveAudience(event Event) []string {
	switch event.Kind {
	case EventPostCreated:
		if s.audience == nil {
			return nil
		}
		connected := s.audience.ConnectedUserIDs()
		recipients := make([]string, 0, len(connected))
		for _, userID := range connected {
			if userID == event.ActorUserID {
				continue
			}
			recipients = append(recipients, userID)
		}
		return recipients
	case EventPostLiked, EventCommentAdded:
		if event.PostOwnerID == "" || event.PostOwnerID == event.ActorUserID {
			return nil
		}
		return []string{event.PostOwnerID}
	}
	return nil
}

// ListForRecipient returns the principal's notifications, newest first.
func (s *Service) ListForRecipient(ctx context.Context, principal identity.Principal) ([]Notification, error) {
	if _, err := authz.Authorize(principal, authz.ActionListNotifications, "", s.policy); err != nil {
		return nil, err
	}
	return s.repo.ListForRecipient(ctx, principal.UserID)
}

// MarkRead marks a notification as read. Only the recipient may do so; read
// state is a personal cursor and no role overrides it. Repeating the call
// succeeds without changing anything.
func (s *Service) MarkRead(ctx context.Context, id string, principal identity.Principal) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := authz.Authorize(principal, authz.ActionMarkNotificationRead, n.RecipientUserID, s.policy); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}
