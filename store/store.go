// Package store defines the persistence contract shared by the Postgres and
// in-memory backends.
//
// Lookups of a missing record return an apperrors NotFound error. Set-style
// writes (likes, bookmarks, follows) are idempotent. CreateConversation is
// idempotent per unordered participant pair: when the pair already has a
// conversation the passed value is overwritten with the existing one.
package store

import (
	"context"

	"masterboxer.com/project-instaclone/models"
)

type Store interface {
	// WithTx runs fn against a transactional view of the store. Writes made
	// through the view are discarded when fn returns an error.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	UserStore
	GraphStore
	PostStore
	MessageStore
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsersExcept(ctx context.Context, id string) ([]models.User, error)
	GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)

	SaveDeviceToken(ctx context.Context, userID, token string) error
	ListDeviceTokens(ctx context.Context, userID string) ([]string, error)
	DeleteDeviceToken(ctx context.Context, token string) error
}

type GraphStore interface {
	IsFollowing(ctx context.Context, userID, targetID string) (bool, error)
	AddFollowing(ctx context.Context, userID, targetID string) error
	RemoveFollowing(ctx context.Context, userID, targetID string) error
	// ListAsymmetricFollows returns edges whose mirror edge is missing
	ListAsymmetricFollows(ctx context.Context) ([]models.FollowEdge, error)

	HasBookmark(ctx context.Context, userID, postID string) (bool, error)
	AddBookmark(ctx context.Context, userID, postID string) error
	RemoveBookmark(ctx context.Context, userID, postID string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// ListPosts returns posts newest first; an empty authorID lists every post
	ListPosts(ctx context.Context, authorID string) ([]models.Post, error)
	// DeletePost removes the post and its likes and bookmarks
	DeletePost(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error

	CreateComment(ctx context.Context, c *models.Comment) error
	// ListComments returns the comments of the given posts oldest first
	ListComments(ctx context.Context, postIDs []string) ([]models.Comment, error)
	DeleteCommentsByPost(ctx context.Context, postID string) (int64, error)
	DeleteOrphanComments(ctx context.Context) (int64, error)
}

type MessageStore interface {
	FindConversation(ctx context.Context, a, b string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, c *models.Conversation) error
	// AppendMessage persists m as the newest message of m.ConversationID
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}
