package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/models"
)

const userColumns = `
	u.id, u.username, u.email, u.password, u.profile_picture, u.bio, u.gender, u.created_at,
	ARRAY(SELECT f.user_id FROM user_following f WHERE f.target_id = u.id ORDER BY f.created_at, f.user_id),
	ARRAY(SELECT f.target_id FROM user_following f WHERE f.user_id = u.id ORDER BY f.created_at, f.target_id),
	ARRAY(SELECT p.id FROM posts p WHERE p.author_id = u.id ORDER BY p.created_at, p.id),
	ARRAY(SELECT b.post_id FROM bookmarks b WHERE b.user_id = u.id ORDER BY b.created_at, b.post_id)`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.ProfilePicture, &u.Bio, &u.Gender, &u.CreatedAt,
		pq.Array(&u.Followers), pq.Array(&u.Following), pq.Array(&u.Posts), pq.Array(&u.Bookmarks))
	if err != nil {
		return nil, err
	}
	u.Followers = nonNil(u.Followers)
	u.Following = nonNil(u.Following)
	u.Posts = nonNil(u.Posts)
	u.Bookmarks = nonNil(u.Bookmarks)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password, profile_picture, bio, gender, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, strings.ToLower(u.Email), u.Password, u.ProfilePicture, u.Bio, u.Gender, u.CreatedAt)
	if err != nil {
		err = mapError(err, "User not found")
		if apperrors.Is(err, apperrors.KindConflict) {
			return apperrors.Wrap(apperrors.KindConflict, "User already exists.", err)
		}
		return err
	}

	u.Followers, u.Following, u.Posts, u.Bookmarks = []string{}, []string{}, []string{}, []string{}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE LOWER(u.email) = LOWER($1)`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE users SET username = $2, bio = $3, gender = $4, profile_picture = $5
		WHERE id = $1`,
		u.ID, u.Username, u.Bio, u.Gender, u.ProfilePicture)
	if err != nil {
		return mapError(err, "User not found")
	}
	return requireRows(result, "User not found")
}

func (s *Store) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE u.id <> $1
		ORDER BY u.created_at DESC, u.id`, id)
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err, "User not found")
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "User not found")
	}
	return users, nil
}

func (s *Store) GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, username, profile_picture FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	defer rows.Close()

	for rows.Next() {
		var sum models.UserSummary
		if err := rows.Scan(&sum.ID, &sum.Username, &sum.ProfilePicture); err != nil {
			return nil, mapError(err, "User not found")
		}
		out[sum.ID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "User not found")
	}
	return out, nil
}

func (s *Store) SaveDeviceToken(ctx context.Context, userID, token string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO fcm_tokens (user_id, token, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id, token)
		DO UPDATE SET updated_at = NOW()`,
		userID, token)
	return mapError(err, "User not found")
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT token FROM fcm_tokens WHERE user_id = $1 ORDER BY created_at, token`, userID)
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, mapError(err, "User not found")
		}
		tokens = append(tokens, token)
	}
	return tokens, mapError(rows.Err(), "User not found")
}

func (s *Store) DeleteDeviceToken(ctx context.Context, token string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM fcm_tokens WHERE token = $1`, token)
	return mapError(err, "Token not found")
}

// Graph

func (s *Store) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_following WHERE user_id = $1 AND target_id = $2)`,
		userID, targetID).Scan(&exists)
	if err != nil {
		return false, mapError(err, "User not found")
	}
	return exists, nil
}

func (s *Store) AddFollowing(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return apperrors.Validation("You cannot follow yourself.")
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO user_following (user_id, target_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_id) DO NOTHING`,
		userID, targetID, s.now())
	return mapError(err, "User does not exist.")
}

func (s *Store) RemoveFollowing(ctx context.Context, userID, targetID string) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM user_following WHERE user_id = $1 AND target_id = $2`,
		userID, targetID)
	return mapError(err, "User does not exist.")
}

func (s *Store) ListAsymmetricFollows(ctx context.Context) ([]models.FollowEdge, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT f.user_id, f.target_id
		FROM user_following f
		WHERE NOT EXISTS (
			SELECT 1 FROM user_following m
			WHERE m.user_id = f.target_id AND m.target_id = f.user_id
		)
		ORDER BY f.created_at, f.user_id`)
	if err != nil {
		return nil, mapError(err, "User not found")
	}
	defer rows.Close()

	var edges []models.FollowEdge
	for rows.Next() {
		var e models.FollowEdge
		if err := rows.Scan(&e.UserID, &e.TargetID); err != nil {
			return nil, mapError(err, "User not found")
		}
		edges = append(edges, e)
	}
	return edges, mapError(rows.Err(), "User not found")
}

func (s *Store) HasBookmark(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND post_id = $2)`,
		userID, postID).Scan(&exists)
	if err != nil {
		return false, mapError(err, "Post not found")
	}
	return exists, nil
}

func (s *Store) AddBookmark(ctx context.Context, userID, postID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, s.now())
	return mapError(err, "Post not found")
}

func (s *Store) RemoveBookmark(ctx context.Context, userID, postID string) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`, userID, postID)
	return mapError(err, "Post not found")
}
