package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

type stubRepo struct {
	tags   map[string]Tag
	byName map[string]string
	// owners maps tagID -> user IDs owning a tagged post.
	owners map[string]map[string]bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		tags:   map[string]Tag{},
		byName: map[string]string{},
		owners: map[string]map[string]bool{},
	}
}

func (s *stubRepo) Create(ctx context.Context, tag Tag) error {
	if _, ok := s.byName[tag.Name]; ok {
		return fmt.Errorf("tags: name taken: %w", httpx.ErrDuplicate)
	}
	s.tags[tag.ID] = tag
	s.byName[tag.Name] = tag.ID
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Tag, error) {
	tag, ok := s.tags[id]
	if !ok {
		return Tag{}, httpx.ErrNotFound
	}
	return tag, nil
}

func (s *stubRepo) List(ctx context.Context) ([]Tag, error) {
	out := []Tag{}
	for _, tag := range s.tags {
		out = append(out, tag)
	}
	return out, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	tag, ok := s.tags[id]
	if !ok {
		return httpx.ErrNotFound
	}
	delete(s.tags, id)
	delete(s.byName, tag.Name)
	return nil
}

func (s *stubRepo) OwnsAnyTaggedPost(ctx context.Context, tagID, userID string) (bool, error) {
	return s.owners[tagID][userID], nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, authz.DefaultPolicy(), slog.Default())
}

func principal(id string, roles ...string) identity.Principal {
	return identity.NewPrincipal(id, "User "+id, roles)
}

func TestCreateNormalizesName(t *testing.T) {
	svc := newTestService(newStubRepo())
	tag, err := svc.Create(context.Background(), principal("u1", "author"), "  GoLang  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tag.Name != "golang" {
		t.Fatalf("name = %q, want golang", tag.Name)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := newTestService(newStubRepo())
	if _, err := svc.Create(context.Background(), principal("u1", "author"), "go"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(context.Background(), principal("u2", "author"), "go")
	if !errors.Is(err, httpx.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestCreateRequiresAuthorRole(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.Create(context.Background(), principal("u1", "user"), "go")
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestTransitiveOwnership(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	tag, err := svc.Create(context.Background(), principal("u1", "author"), "go")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// u1 owns a post tagged "go"; u2 does not.
	repo.owners[tag.ID] = map[string]bool{"u1": true}

	if _, err := svc.Get(context.Background(), principal("u1", "author"), tag.ID); err != nil {
		t.Fatalf("transitive owner view: %v", err)
	}
	if _, err := svc.Get(context.Background(), principal("u2", "author"), tag.ID); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	// Admin reaches any tag through the role override.
	if _, err := svc.Get(context.Background(), principal("root", "admin"), tag.ID); err != nil {
		t.Fatalf("admin view: %v", err)
	}

	if err := svc.Delete(context.Background(), principal("u2", "author"), tag.ID); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected delete forbidden for non-owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), principal("u1", "author"), tag.ID); err != nil {
		t.Fatalf("transitive owner delete: %v", err)
	}
}

func TestDeleteUnknownTag(t *testing.T) {
	svc := newTestService(newStubRepo())
	err := svc.Delete(context.Background(), principal("u1", "author"), "missing")
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTags(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	if _, err := svc.Create(context.Background(), principal("u1", "author"), "go"); err != nil {
		t.Fatalf("create: %v", err)
	}
	items, err := svc.List(context.Background(), principal("u1", "author"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("listed %d, want 1", len(items))
	}
}
