package models

import "time"

// Post references its likers and comments by id, in insertion order
type Post struct {
	ID        string    `json:"_id"`
	AuthorID  string    `json:"author"`
	Caption   string    `json:"caption"`
	Image     string    `json:"image"`
	Likes     []string  `json:"likes"`
	Comments  []string  `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostView is a post with its author and comments populated
type PostView struct {
	ID        string        `json:"_id"`
	Author    UserSummary   `json:"author"`
	Caption   string        `json:"caption"`
	Image     string        `json:"image"`
	Likes     []string      `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
}
