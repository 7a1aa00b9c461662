package comments

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

type stubRepo struct {
	comments map[string]Comment
}

func newStubRepo(seed ...Comment) *stubRepo {
	r := &stubRepo{comments: map[string]Comment{}}
	for _, c := range seed {
		r.comments[c.ID] = c
	}
	return r
}

func (s *stubRepo) Get(ctx context.Context, id string) (Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, httpx.ErrNotFound
	}
	return c, nil
}

func (s *stubRepo) Update(ctx context.Context, id, content string) (Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, httpx.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now().UTC()
	s.comments[id] = c
	return c, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, authz.DefaultPolicy(), slog.Default())
}

func principal(id string, roles ...string) identity.Principal {
	return identity.NewPrincipal(id, "User "+id, roles)
}

func TestEditOwnComment(t *testing.T) {
	repo := newStubRepo(Comment{ID: "c1", PostID: "p1", Content: "old", UserID: "u1"})
	svc := newTestService(repo)

	got, err := svc.Edit(context.Background(), principal("u1", "user"), "c1", "new")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Content != "new" {
		t.Fatalf("content = %q, want new", got.Content)
	}
	if got.UserID != "u1" {
		t.Fatalf("authorship changed to %s", got.UserID)
	}
}

func TestEditForeignCommentDenied(t *testing.T) {
	repo := newStubRepo(Comment{ID: "c1", UserID: "u1"})
	svc := newTestService(repo)

	_, err := svc.Edit(context.Background(), principal("u2", "user"), "c1", "hijack")
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Admins hold no comment override either; moderation is the moderator's job.
	_, err = svc.Edit(context.Background(), principal("root", "admin"), "c1", "hijack")
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden for admin, got %v", err)
	}
}

func TestModeratorOverride(t *testing.T) {
	repo := newStubRepo(Comment{ID: "c1", UserID: "u1", Content: "spam"})
	svc := newTestService(repo)
	mod := principal("m1", "moderator")

	if _, err := svc.Edit(context.Background(), mod, "c1", "[removed]"); err != nil {
		t.Fatalf("moderator edit: %v", err)
	}
	if err := svc.Delete(context.Background(), mod, "c1"); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}
	if _, err := repo.Get(context.Background(), "c1"); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatal("comment not removed")
	}
}

func TestDeleteUnknownComment(t *testing.T) {
	svc := newTestService(newStubRepo())
	err := svc.Delete(context.Background(), principal("u1", "user"), "missing")
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
