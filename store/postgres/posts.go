package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/models"
)

const postColumns = `
	p.id, p.author_id, p.caption, p.image, p.created_at,
	ARRAY(SELECT l.user_id FROM post_likes l WHERE l.post_id = p.id ORDER BY l.created_at, l.user_id),
	ARRAY(SELECT c.id FROM comments c WHERE c.post_id = p.id ORDER BY c.created_at, c.id)`

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Caption, &p.Image, &p.CreatedAt,
		pq.Array(&p.Likes), pq.Array(&p.Comments))
	if err != nil {
		return nil, err
	}
	p.Likes = nonNil(p.Likes)
	p.Comments = nonNil(p.Comments)
	return &p, nil
}

func affectedRows(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Internal("failed to read affected rows", err)
	}
	return n, nil
}

func requireRows(result sql.Result, notFound string) error {
	n, err := affectedRows(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(notFound)
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, caption, image, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AuthorID, p.Caption, p.Image, p.CreatedAt)
	if err != nil {
		return mapError(err, "User not found")
	}

	p.Likes, p.Comments = []string{}, []string{}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		return nil, mapError(err, "Post not found")
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts p
		WHERE $1 = '' OR p.author_id = $1
		ORDER BY p.created_at DESC, p.id DESC`, authorID)
	if err != nil {
		return nil, mapError(err, "Post not found")
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, mapError(err, "Post not found")
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "Post not found")
	}
	return posts, nil
}

// DeletePost relies on ON DELETE CASCADE for likes and bookmarks. Comments
// must be deleted first.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "Post not found")
	}
	return requireRows(result, "Post not found")
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID, s.now())
	return mapError(err, "Post not found")
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return mapError(err, "Post not found")
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.AuthorID, c.Text, c.CreatedAt)
	return mapError(err, "Post not found")
}

func (s *Store) ListComments(ctx context.Context, postIDs []string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if len(postIDs) == 0 {
		return comments, nil
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, post_id, author_id, text, created_at
		FROM comments
		WHERE post_id = ANY($1)
		ORDER BY created_at, id`, pq.Array(postIDs))
	if err != nil {
		return nil, mapError(err, "Post not found")
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, mapError(err, "Post not found")
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "Post not found")
	}
	return comments, nil
}

func (s *Store) DeleteCommentsByPost(ctx context.Context, postID string) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return 0, mapError(err, "Post not found")
	}
	return affectedRows(result)
}

func (s *Store) DeleteOrphanComments(ctx context.Context) (int64, error) {
	result, err := s.q.ExecContext(ctx, `
		DELETE FROM comments c
		WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.id = c.post_id)`)
	if err != nil {
		return 0, mapError(err, "Post not found")
	}
	return affectedRows(result)
}
