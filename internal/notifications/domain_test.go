package notifications

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEventMessage(t *testing.T) {
	assert.Equal(t, "Ada added a new post: Launch",
		Event{Kind: EventPostCreated, ActorName: "Ada", PostTitle: "Launch"}.Message())

	// Like messages deliberately omit the actor's name.
	assert.Equal(t, "Someone liked your post: Launch",
		Event{Kind: EventPostLiked, ActorName: "Ada", PostTitle: "Launch"}.Message())

	assert.Equal(t, "New comment on Launch: Nice work",
		Event{Kind: EventCommentAdded, PostTitle: "Launch", CommentBody: "Nice work"}.Message())

	assert.Empty(t, Event{Kind: EventKind("unknown")}.Message())
}

func TestEventMessageClipsLongBodies(t *testing.T) {
	msg := Event{
		Kind:        EventCommentAdded,
		PostTitle:   "Launch",
		CommentBody: strings.Repeat("é", 2000),
	}.Message()

	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasPrefix(msg, "New comment on Launch: "))
}
