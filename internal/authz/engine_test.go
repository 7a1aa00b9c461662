package authz

import (
	"errors"
	"testing"

	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

func principal(userID string, roles ...string) identity.Principal {
	return identity.NewPrincipal(userID, "Test User", roles)
}

func TestAuthorizeOwnerGated(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		name       string
		principal  identity.Principal
		action     Action
		owner      string
		wantAllow  bool
		wantReason Reason
	}{
		{
			name:       "owner edits own post",
			principal:  principal("u1", "author"),
			action:     ActionUpdatePost,
			owner:      "u1",
			wantAllow:  true,
			wantReason: ReasonOwnerMatch,
		},
		{
			name:      "author cannot edit another author's post",
			principal: principal("u1", "author"),
			action:    ActionUpdatePost,
			owner:     "u2",
			wantAllow: false,
		},
		{
			name:       "admin overrides ownership on posts",
			principal:  principal("u1", "admin"),
			action:     ActionDeletePost,
			owner:      "u2",
			wantAllow:  true,
			wantReason: ReasonRoleOverride,
		},
		{
			name:      "moderator does not override post ownership",
			principal: principal("u1", "moderator"),
			action:    ActionDeletePost,
			owner:     "u2",
			wantAllow: false,
		},
		{
			name:       "moderator overrides comment ownership",
			principal:  principal("u1", "moderator"),
			action:     ActionDeleteComment,
			owner:      "u2",
			wantAllow:  true,
			wantReason: ReasonRoleOverride,
		},
		{
			name:      "admin does not override comment ownership",
			principal: principal("u1", "admin"),
			action:    ActionDeleteComment,
			owner:     "u2",
			wantAllow: false,
		},
		{
			name:       "comment author edits own comment",
			principal:  principal("u1", "user"),
			action:     ActionEditComment,
			owner:      "u1",
			wantAllow:  true,
			wantReason: ReasonOwnerMatch,
		},
		{
			name:      "admin cannot mark another user's notification read",
			principal: principal("u1", "admin"),
			action:    ActionMarkNotificationRead,
			owner:     "u2",
			wantAllow: false,
		},
		{
			name:       "recipient marks own notification read",
			principal:  principal("u1", "user"),
			action:     ActionMarkNotificationRead,
			owner:      "u1",
			wantAllow:  true,
			wantReason: ReasonOwnerMatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := Authorize(tc.principal, tc.action, tc.owner, policy)
			if decision.Allow != tc.wantAllow {
				t.Fatalf("allow = %v, want %v (err=%v)", decision.Allow, tc.wantAllow, err)
			}
			if tc.wantAllow {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if decision.Reason != tc.wantReason {
					t.Fatalf("reason = %s, want %s", decision.Reason, tc.wantReason)
				}
				return
			}
			if !errors.Is(err, httpx.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
			if decision.Reason != ReasonDenied {
				t.Fatalf("reason = %s, want %s", decision.Reason, ReasonDenied)
			}
		})
	}
}

func TestAuthorizeRoleGate(t *testing.T) {
	policy := DefaultPolicy()

	// Plain users never pass the author gate, even for their own resources.
	decision, err := Authorize(principal("u1", "user"), ActionCreatePost, "", policy)
	if decision.Allow || !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected role gate denial, got allow=%v err=%v", decision.Allow, err)
	}

	// Any role may like a post; ownership is irrelevant for likes.
	decision, err = Authorize(principal("u1", "user"), ActionLikePost, "someone-else", policy)
	if err != nil || !decision.Allow {
		t.Fatalf("expected like allowed, got allow=%v err=%v", decision.Allow, err)
	}
	if decision.Reason != ReasonRoleOverride {
		t.Fatalf("reason = %s, want %s", decision.Reason, ReasonRoleOverride)
	}
}

func TestAuthorizeFailsClosed(t *testing.T) {
	// An action missing from the policy is denied no matter the role.
	policy := NewPolicy(map[Action]Rule{})
	decision, err := Authorize(principal("u1", "admin"), ActionCreatePost, "", policy)
	if decision.Allow || !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected fail-closed denial, got allow=%v err=%v", decision.Allow, err)
	}

	decision, err = Authorize(principal("u1", "admin"), ActionCreatePost, "", nil)
	if decision.Allow || !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected nil policy denial, got allow=%v err=%v", decision.Allow, err)
	}
}

func TestAuthorizeEmptyPrincipalNeverOwnerMatches(t *testing.T) {
	policy := DefaultPolicy()
	// An empty UserID must not match an empty owner column.
	decision, err := Authorize(principal("", "author"), ActionUpdatePost, "", policy)
	if decision.Allow || !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected denial for empty IDs, got allow=%v err=%v", decision.Allow, err)
	}
}

func TestDefaultPolicyCoversCatalog(t *testing.T) {
	policy := DefaultPolicy()
	for _, action := range Catalog() {
		if _, ok := policy.Rule(action); !ok {
			t.Fatalf("catalog action %s has no policy entry", action)
		}
	}
}
