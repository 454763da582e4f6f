package services

import (
	"context"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/store"
)

const maxCommentLength = 500

type BookmarkAction string

const (
	Saved   BookmarkAction = "saved"
	Unsaved BookmarkAction = "unsaved"
)

type PostService struct {
	store  store.Store
	images ImageStorer
	events notify.Sink
}

func NewPostService(s store.Store, images ImageStorer, events notify.Sink) *PostService {
	return &PostService{store: s, images: images, events: events}
}

func (s *PostService) Create(ctx context.Context, authorID, caption string, image io.Reader) (*models.PostView, error) {
	if image == nil {
		return nil, apperrors.Validation("Image is required")
	}

	url, err := s.images.Store(ctx, "posts", image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: authorID, Caption: caption, Image: url}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	views, err := s.views(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Post created", zap.String("post_id", post.ID), zap.String("author_id", authorID))
	return &views[0], nil
}

// All returns every post, newest first
func (s *PostService) All(ctx context.Context) ([]models.PostView, error) {
	return s.ByAuthor(ctx, "")
}

func (s *PostService) ByAuthor(ctx context.Context, authorID string) ([]models.PostView, error) {
	posts, err := s.store.ListPosts(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, posts)
}

// views populates authors and comments with two batched lookups. Comments
// inside a view are newest first.
func (s *PostService) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	out := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]string, 0, len(posts))
	userIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.AuthorID)
	}

	comments, err := s.store.ListComments(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		userIDs = append(userIDs, c.AuthorID)
	}

	authors, err := s.store.GetUserSummaries(ctx, unique(userIDs))
	if err != nil {
		return nil, err
	}

	byPost := make(map[string][]models.CommentView, len(posts))
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		byPost[c.PostID] = append(byPost[c.PostID], commentView(c, authors))
	}

	for _, p := range posts {
		cv := byPost[p.ID]
		if cv == nil {
			cv = []models.CommentView{}
		}
		out = append(out, models.PostView{
			ID:        p.ID,
			Author:    authorOf(p.AuthorID, authors),
			Caption:   p.Caption,
			Image:     p.Image,
			Likes:     p.Likes,
			Comments:  cv,
			CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

func (s *PostService) Like(ctx context.Context, userID, postID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.store.AddLike(ctx, postID, userID); err != nil {
		return err
	}

	publish(ctx, s.events, notify.Event{Type: notify.EventLike, RecipientID: post.AuthorID, ActorID: userID, PostID: postID})
	return nil
}

func (s *PostService) Dislike(ctx context.Context, userID, postID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveLike(ctx, postID, userID); err != nil {
		return err
	}

	publish(ctx, s.events, notify.Event{Type: notify.EventDislike, RecipientID: post.AuthorID, ActorID: userID, PostID: postID})
	return nil
}

func (s *PostService) Comment(ctx context.Context, userID, postID, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("Text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, apperrors.Validation("Comment must be at most 500 characters")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: userID, Text: text}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	authors, err := s.store.GetUserSummaries(ctx, []string{userID})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, notify.Event{
		Type:        notify.EventComment,
		RecipientID: post.AuthorID,
		ActorID:     userID,
		PostID:      postID,
		Body:        text,
	})

	view := commentView(*comment, authors)
	return &view, nil
}

// Comments returns a post's comments oldest first
func (s *PostService) Comments(ctx context.Context, postID string) ([]models.CommentView, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.store.ListComments(ctx, []string{postID})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.store.GetUserSummaries(ctx, unique(ids))
	if err != nil {
		return nil, err
	}

	out := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c, authors))
	}
	return out, nil
}

// Delete removes a post together with its comments. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return apperrors.Forbidden("Unauthorized")
		}

		if _, err := tx.DeleteCommentsByPost(ctx, postID); err != nil {
			return err
		}
		return tx.DeletePost(ctx, postID)
	})
	if err != nil {
		return err
	}

	logger.Get().Info("Post deleted", zap.String("post_id", postID), zap.String("author_id", userID))
	return nil
}

func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID string) (BookmarkAction, error) {
	var action BookmarkAction
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return err
		}

		saved, err := tx.HasBookmark(ctx, userID, postID)
		if err != nil {
			return err
		}
		if saved {
			action = Unsaved
			return tx.RemoveBookmark(ctx, userID, postID)
		}
		action = Saved
		return tx.AddBookmark(ctx, userID, postID)
	})
	if err != nil {
		return "", err
	}
	return action, nil
}

func commentView(c models.Comment, authors map[string]models.UserSummary) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    authorOf(c.AuthorID, authors),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func authorOf(id string, authors map[string]models.UserSummary) models.UserSummary {
	if a, ok := authors[id]; ok {
		return a
	}
	return models.UserSummary{ID: id}
}

func unique(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
