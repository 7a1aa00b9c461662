// Package authz is the single authorization decision point. Every command
// handler resolves a Principal, looks up the target resource, and asks
// Authorize whether the principal may act on it; no handler re-derives the
// owner-or-role rule on its own.
package authz

// Action identifies an operation gated by the policy table. The names form
// the wire-visible action catalog and must not change.
type Action string

const (
	ActionEditComment          Action = "EditComment"
	ActionDeleteComment        Action = "DeleteComment"
	ActionCreatePost           Action = "CreatePost"
	ActionViewPost             Action = "ViewPost"
	ActionListPosts            Action = "ListPosts"
	ActionUpdatePost           Action = "UpdatePost"
	ActionDeletePost           Action = "DeletePost"
	ActionLikePost             Action = "LikePost"
	ActionUnlikePost           Action = "UnlikePost"
	ActionAddComment           Action = "AddComment"
	ActionUploadMedia          Action = "UploadMedia"
	ActionListNotifications    Action = "ListNotifications"
	ActionMarkNotificationRead Action = "MarkNotificationRead"
	ActionCreateTag            Action = "CreateTag"
	ActionViewTag              Action = "ViewTag"
	ActionListTags             Action = "ListTags"
	ActionDeleteTag            Action = "DeleteTag"
)

// Catalog lists every action covered by the default policy.
func Catalog() []Action {
	return []Action{
		ActionEditComment,
		ActionDeleteComment,
		ActionCreatePost,
		ActionViewPost,
		ActionListPosts,
		ActionUpdatePost,
		ActionDeletePost,
		ActionLikePost,
		ActionUnlikePost,
		ActionAddComment,
		ActionUploadMedia,
		ActionListNotifications,
		ActionMarkNotificationRead,
		ActionCreateTag,
		ActionViewTag,
		ActionListTags,
		ActionDeleteTag,
	}
}
