// Package identity resolves inbound credentials to a Principal and exposes
// the role vocabulary shared by the authorization layer.
package identity

// Role is a named capability grouping attached to a user account.
type Role string

// Roles known to the platform. A principal may hold several at once.
const (
	RoleAdmin     Role = "admin"
	RoleAuthor    Role = "author"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleAuthor, RoleModerator, RoleUser:
		return Role(raw), true
	}
	return "", false
}

// Principal is the authenticated actor making a request. It is rebuilt per
// request from a verified token and never persisted.
type Principal struct {
	UserID string
	Name   string
	roles  map[Role]struct{}
}

// NewPrincipal constructs a Principal with the given role set. Unknown role
// strings are dropped.
func NewPrincipal(userID, name string, roles []string) Principal {
	set := make(map[Role]struct{}, len(roles))
	for _, raw := range roles {
		if role, ok := ParseRole(raw); ok {
			set[role] = struct{}{}
		}
	}
	return Principal{UserID: userID, Name: name, roles: set}
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role Role) bool {
	_, ok := p.roles[role]
	return ok
}

// HasAnyRole reports whether the principal holds at least one of the roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// Roles returns the principal's roles as a slice, for logging and token
// issuance. Order is unspecified.
func (p Principal) Roles() []Role {
	out := make([]Role, 0, len(p.roles))
	for role := range p.roles {
		out = append(out, role)
	}
	return out
}
