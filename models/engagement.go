package models

import "time"

type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"post"`
	AuthorID  string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentView struct {
	ID        string      `json:"_id"`
	PostID    string      `json:"post"`
	Author    UserSummary `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
}
