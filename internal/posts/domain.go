package posts

import "time"

// Post is an ownable content entry. OwnerUserID is fixed at creation from
// the acting principal and never reassigned.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	OwnerUserID string     `json:"owner_user_id"`
	CategoryID  *string    `json:"category_id,omitempty"`
	TagIDs      []string   `json:"tag_ids"`
}

// Meta is the slice of a post the authorization layer needs.
type Meta struct {
	ID          string
	OwnerUserID string
	Title       string
}

// CommentView is a comment as embedded in a post detail response.
type CommentView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaView is a media attachment as embedded in a post detail response.
type MediaView struct {
	ID       string `json:"id"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// Detail is a post with its associations, returned by ViewPost.
type Detail struct {
	Post
	Comments  []CommentView `json:"comments"`
	LikeCount int           `json:"like_count"`
	Media     []MediaView   `json:"media"`
}

// Filters narrows a post listing.
type Filters struct {
	OwnerUserID string
	Status      string
	CategoryID  string
	TagID       string
	Search      string
}
