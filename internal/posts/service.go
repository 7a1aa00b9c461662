package posts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/notifications"
	"github.com/quillpress/quillpress/internal/platform/db"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Notifier stages durable notification rows inside the mutation's
// transaction and dispatches live pushes after commit.
type Notifier interface {
	Stage(ctx context.Context, tx pgx.Tx, event notifications.Event) ([]notifications.Notification, error)
	Dispatch(ctx context.Context, staged []notifications.Notification)
}

// MediaStore persists uploaded files and reports where they can be fetched.
type MediaStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (url string, contentType string, err error)
}

// CreateInput carries the caller-supplied fields of a new post.
type CreateInput struct {
	Title      string
	Content    string
	Status     string
	CategoryID *string
	TagIDs     []string
}

// UpdateInput carries the mutable fields of a post. Ownership is not among
// them.
type UpdateInput struct {
	Title      string
	Content    string
	Status     string
	CategoryID *string
	TagIDs     []string
}

// Service implements post operations with ownership enforcement.
type Service struct {
	repo     Repository
	runTx    func(context.Context, func(pgx.Tx) error) error
	notifier Notifier
	store    MediaStore
	policy   *authz.Policy
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, pool *pgxpool.Pool, notifier Notifier, store MediaStore, policy *authz.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo: repo,
		runTx: func(ctx context.Context, fn func(pgx.Tx) error) error {
			return db.WithTx(ctx, pool, fn)
		},
		notifier: notifier,
		store:    store,
		policy:   policy,
		logger:   logger,
	}
}

// Create publishes a new post owned by the acting principal and announces
// it to currently connected users.
func (s *Service) Create(ctx context.Context, principal identity.Principal, input CreateInput) (Post, error) {
	if _, err := authz.Authorize(principal, authz.ActionCreatePost, "", s.policy); err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	post := Post{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Content:     input.Content,
		Status:      input.Status,
		CreatedAt:   now,
		OwnerUserID: principal.UserID,
		CategoryID:  input.CategoryID,
		TagIDs:      normalizeTagIDs(input.TagIDs),
	}
	if post.Status == "" {
		post.Status = StatusDraft
	}
	if post.Status == StatusPublished {
		published := now
		post.PublishedAt = &published
	}

	var staged []notifications.Notification
	err := s.runTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, post); err != nil {
			return err
		}
		if post.Status != StatusPublished {
			return nil
		}
		var stageErr error
		staged, stageErr = s.notifier.Stage(ctx, tx, notifications.Event{
			Kind:        notifications.EventPostCreated,
			ActorUserID: principal.UserID,
			ActorName:   principal.Name,
			PostTitle:   post.Title,
		})
		return stageErr
	})
	if err != nil {
		return Post{}, err
	}
	s.notifier.Dispatch(context.WithoutCancel(ctx), staged)
	return post, nil
}

// Get returns a post with comments, like count, and media.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id string) (Detail, error) {
	meta, err := s.repo.Meta(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if _, err := authz.Authorize(principal, authz.ActionViewPost, meta.OwnerUserID, s.policy); err != nil {
		return Detail{}, err
	}
	return s.repo.GetDetail(ctx, id)
}

// List returns posts matching the filters. Admins may browse the whole
// platform; everyone else is pinned to their own posts no matter what owner
// filter the request carried.
func (s *Service) List(ctx context.Context, principal identity.Principal, filters Filters) ([]Post, error) {
	if _, err := authz.Authorize(principal, authz.ActionListPosts, "", s.policy); err != nil {
		return nil, err
	}
	if !principal.HasRole(identity.RoleAdmin) {
		filters.OwnerUserID = principal.UserID
	}
	return s.repo.List(ctx, filters)
}

// Update rewrites a post's content fields. The owner recorded at creation
// is preserved no matter who edits.
func (s *Service) Update(ctx context.Context, principal identity.Principal, id string, input UpdateInput) (Post, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if _, err := authz.Authorize(principal, authz.ActionUpdatePost, current.OwnerUserID, s.policy); err != nil {
		return Post{}, err
	}

	updated := current
	updated.Title = input.Title
	updated.Content = input.Content
	updated.Status = input.Status
	updated.CategoryID = input.CategoryID
	updated.TagIDs = normalizeTagIDs(input.TagIDs)
	if updated.Status == StatusPublished && current.PublishedAt == nil {
		now := time.Now().UTC()
		updated.PublishedAt = &now
	}
	if updated.Status != StatusPublished {
		updated.PublishedAt = nil
	}

	err = s.runTx(ctx, func(tx pgx.Tx) error {
		return s.repo.UpdateTx(ctx, tx, updated)
	})
	if err != nil {
		return Post{}, err
	}
	return updated, nil
}

// Delete removes a post and everything hanging off it.
func (s *Service) Delete(ctx context.Context, principal identity.Principal, id string) error {
	meta, err := s.repo.Meta(ctx, id)
	if err != nil {
		return err
	}
	if _, err := authz.Authorize(principal, authz.ActionDeletePost, meta.OwnerUserID, s.policy); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Like records the principal's like and notifies the post owner. Liking
// the same post twice is a conflict.
func (s *Service) Like(ctx context.Context, principal identity.Principal, postID string) error {
	meta, err := s.repo.Meta(ctx, postID)
	if err != nil {
		return err
	}
	if _, err := authz.Authorize(principal, authz.ActionLikePost, "", s.policy); err != nil {
		return err
	}

	var staged []notifications.Notification
	err = s.runTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.InsertLikeTx(ctx, tx, postID, principal.UserID); err != nil {
			return err
		}
		var stageErr error
		staged, stageErr = s.notifier.Stage(ctx, tx, notifications.Event{
			Kind:        notifications.EventPostLiked,
			ActorUserID: principal.UserID,
			ActorName:   principal.Name,
			PostOwnerID: meta.OwnerUserID,
			PostTitle:   meta.Title,
		})
		return stageErr
	})
	if err != nil {
		return err
	}
	s.notifier.Dispatch(context.WithoutCancel(ctx), staged)
	return nil
}

// Unlike removes the principal's like. Unliking a post that was never
// liked is an invalid request; no notification is produced either way.
func (s *Service) Unlike(ctx context.Context, principal identity.Principal, postID string) error {
	if _, err := s.repo.Meta(ctx, postID); err != nil {
		return err
	}
	if _, err := authz.Authorize(principal, authz.ActionUnlikePost, "", s.policy); err != nil {
		return err
	}
	removed, err := s.repo.DeleteLike(ctx, postID, principal.UserID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("posts: post not liked: %w", httpx.ErrValidation)
	}
	return nil
}

// AddComment records a comment and notifies the post owner.
func (s *Service) AddComment(ctx context.Context, principal identity.Principal, postID, content string) (CommentView, error) {
	meta, err := s.repo.Meta(ctx, postID)
	if err != nil {
		return CommentView{}, err
	}
	if _, err := authz.Authorize(principal, authz.ActionAddComment, "", s.policy); err != nil {
		return CommentView{}, err
	}

	comment := CommentView{
		ID:        uuid.NewString(),
		Content:   content,
		UserID:    principal.UserID,
		CreatedAt: time.Now().UTC(),
	}
	var staged []notifications.Notification
	err = s.runTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.InsertCommentTx(ctx, tx, comment, postID); err != nil {
			return err
		}
		var stageErr error
		staged, stageErr = s.notifier.Stage(ctx, tx, notifications.Event{
			Kind:        notifications.EventCommentAdded,
			ActorUserID: principal.UserID,
			ActorName:   principal.Name,
			PostOwnerID: meta.OwnerUserID,
			PostTitle:   meta.Title,
			CommentBody: content,
		})
		return stageErr
	})
	if err != nil {
		return CommentView{}, err
	}
	s.notifier.Dispatch(context.WithoutCancel(ctx), staged)
	return comment, nil
}

// UploadMedia stores a file and attaches it to the post.
func (s *Service) UploadMedia(ctx context.Context, principal identity.Principal, postID, filename string, file io.Reader) (MediaView, error) {
	meta, err := s.repo.Meta(ctx, postID)
	if err != nil {
		return MediaView{}, err
	}
	if _, err := authz.Authorize(principal, authz.ActionUploadMedia, meta.OwnerUserID, s.policy); err != nil {
		return MediaView{}, err
	}

	url, contentType, err := s.store.Save(ctx, filename, file)
	if err != nil {
		return MediaView{}, err
	}
	media := MediaView{
		ID:       uuid.NewString(),
		FileURL:  url,
		FileType: contentType,
	}
	if err := s.repo.InsertMedia(ctx, media, postID); err != nil {
		return MediaView{}, err
	}
	return media, nil
}

func normalizeTagIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
