// Package notifications turns domain events into durable per-recipient
// records and best-effort live pushes. The durable half is staged inside
// the transaction of the mutation that produced the event; the live half is
// dispatched only after that transaction commits and can never fail the
// triggering command.
package notifications

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Notification is a durable per-recipient record of a platform event.
type Notification struct {
	ID              string    `json:"id"`
	RecipientUserID string    `json:"recipient_user_id"`
	Message         string    `json:"message"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventKind discriminates domain event variants.
type EventKind string

const (
	EventPostCreated  EventKind = "post_created"
	EventPostLiked    EventKind = "post_liked"
	EventCommentAdded EventKind = "comment_added"
)

// Event carries everything needed to render a human-readable message and to
// resolve the audience. The fan-out service owns the message templates;
// callers never pass pre-rendered text.
type Event struct {
	Kind EventKind

	// ActorUserID is the user who triggered the event; the actor never
	// receives a notification about their own action.
	ActorUserID string
	ActorName   string

	// PostOwnerID is the audience for targeted events.
	PostOwnerID string
	PostTitle   string

	CommentBody string
}

// maxMessageLen bounds stored notification text. Comment bodies can run
// longer than the column allows, so rendered messages are clipped.
const maxMessageLen = 500

// Message renders the notification text for the event.
func (e Event) Message() string {
	var msg string
	switch e.Kind {
	case EventPostCreated:
		msg = fmt.Sprintf("%s added a new post: %s", e.ActorName, e.PostTitle)
	case EventPostLiked:
		msg = fmt.Sprintf("Someone liked your post: %s", e.PostTitle)
	case EventCommentAdded:
		msg = fmt.Sprintf("New comment on %s: %s", e.PostTitle, e.CommentBody)
	}
	return clip(msg, maxMessageLen)
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
