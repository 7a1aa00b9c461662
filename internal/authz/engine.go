package authz

import (
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// Reason explains why a decision allowed or denied access.
type Reason string

const (
	ReasonOwnerMatch   Reason = "OwnerMatch"
	ReasonRoleOverride Reason = "RoleOverride"
	ReasonDenied       Reason = "Denied"
)

// Decision is the result of an authorization check. It is never persisted.
type Decision struct {
	Allow  bool
	Reason Reason
}

var denied = Decision{Allow: false, Reason: ReasonDenied}

// Authorize decides whether principal may perform action on a resource
// owned by ownerUserID. Callers confirm the resource exists before asking;
// Authorize assumes existence.
//
// Check order is fixed: role membership, owner match, role override. Actions
// without a policy entry fail closed. Actions that carry no ownership
// semantics (creation, listing, liking or commenting on another user's
// post) allow any principal passing the role gate, with reason
// RoleOverride: access is granted by role, not ownership.
func Authorize(principal identity.Principal, action Action, ownerUserID string, policy *Policy) (Decision, error) {
	rule, ok := policy.Rule(action)
	if !ok {
		return denied, httpx.ErrForbidden
	}
	if !principal.HasAnyRole(rule.Roles...) {
		return denied, httpx.ErrForbidden
	}
	if !rule.OwnerGated {
		return Decision{Allow: true, Reason: ReasonRoleOverride}, nil
	}
	if principal.UserID != "" && principal.UserID == ownerUserID {
		return Decision{Allow: true, Reason: ReasonOwnerMatch}, nil
	}
	if principal.HasAnyRole(rule.OverrideRoles...) {
		return Decision{Allow: true, Reason: ReasonRoleOverride}, nil
	}
	return denied, httpx.ErrForbidden
}
