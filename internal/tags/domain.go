package tags

import "time"

// Tag labels posts. Tags have no owner column of their own; ownership is
// transitive through the posts that carry them.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	PostCount int       `json:"post_count"`
}
