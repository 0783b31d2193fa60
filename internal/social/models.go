package social

import "time"

type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url"`
	LocationName string    `json:"location_name"`
	EventID      string    `json:"event_id,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	LikedByMe    bool      `json:"liked_by_me"`
	CreatedAt    time.Time `json:"created_at"`
}

type PostRequest struct {
	Content      string `json:"content" validate:"required,max=2000"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
	LocationName string `json:"location_name"`
	EventID      string `json:"event_id"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// LikeState is the result of toggling a like.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
