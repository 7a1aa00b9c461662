package authz

import "github.com/quillpress/quillpress/internal/identity"

// Rule configures one action class.
type Rule struct {
	// Roles a principal must hold at least one of to attempt the action.
	Roles []identity.Role
	// OwnerGated actions additionally require ownership of the target
	// resource unless an override role applies.
	OwnerGated bool
	// OverrideRoles bypass the ownership requirement.
	OverrideRoles []identity.Role
}

// Policy is the declarative action table. Actions without an entry fail
// closed; adding an endpoint means adding a row here, not editing a handler.
type Policy struct {
	rules map[Action]Rule
}

// NewPolicy builds a policy from explicit rules.
func NewPolicy(rules map[Action]Rule) *Policy {
	copied := make(map[Action]Rule, len(rules))
	for action, rule := range rules {
		copied[action] = rule
	}
	return &Policy{rules: copied}
}

// Rule returns the entry for an action. The second return is false for
// unlisted actions.
func (p *Policy) Rule(action Action) (Rule, bool) {
	if p == nil {
		return Rule{}, false
	}
	rule, ok := p.rules[action]
	return rule, ok
}

var (
	anyRole     = []identity.Role{identity.RoleAdmin, identity.RoleAuthor, identity.RoleModerator, identity.RoleUser}
	authorRoles = []identity.Role{identity.RoleAdmin, identity.RoleAuthor}
	adminOnly   = []identity.Role{identity.RoleAdmin}
	modOnly     = []identity.Role{identity.RoleModerator}
)

// DefaultPolicy mirrors the original role policies: post, media, and tag
// management is for authors with an admin override; comment moderation
// accepts any role with a moderator override; notification read state has
// no override at all.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Action]Rule{
		ActionCreatePost:  {Roles: authorRoles},
		ActionListPosts:   {Roles: authorRoles},
		ActionViewPost:    {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},
		ActionUpdatePost:  {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},
		ActionDeletePost:  {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},
		ActionUploadMedia: {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},

		ActionLikePost:   {Roles: anyRole},
		ActionUnlikePost: {Roles: anyRole},
		ActionAddComment: {Roles: anyRole},

		ActionEditComment:   {Roles: anyRole, OwnerGated: true, OverrideRoles: modOnly},
		ActionDeleteComment: {Roles: anyRole, OwnerGated: true, OverrideRoles: modOnly},

		ActionListNotifications:    {Roles: anyRole},
		ActionMarkNotificationRead: {Roles: anyRole, OwnerGated: true},

		ActionCreateTag: {Roles: authorRoles},
		ActionListTags:  {Roles: authorRoles},
		ActionViewTag:   {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},
		ActionDeleteTag: {Roles: authorRoles, OwnerGated: true, OverrideRoles: adminOnly},
	})
}
