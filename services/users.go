package services

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/auth"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/store"
)

type FollowAction string

const (
	Followed   FollowAction = "followed"
	Unfollowed FollowAction = "unfollowed"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Posts     []models.Post
}

// ProfileUpdate changes only the fields that are set. Empty strings keep
// the current value.
type ProfileUpdate struct {
	Bio     string
	Gender  string
	Picture io.Reader
}

type UserService struct {
	store  store.Store
	hasher PasswordHasher
	tokens TokenIssuer
	images ImageStorer
	events notify.Sink
}

func NewUserService(s store.Store, hasher PasswordHasher, tokens TokenIssuer, images ImageStorer, events notify.Sink) *UserService {
	return &UserService{store: s, hasher: hasher, tokens: tokens, images: images, events: events}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, apperrors.Validation("Please fill in all fields.")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.Validation("Password is too long.")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Password: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Get().Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.Validation("Please fill in all fields.")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.Unauthenticated("Invalid credentials.")
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Check(user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Unauthenticated("Invalid credentials.")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	posts, err := s.store.ListPosts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user, Posts: posts}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *UserService) EditProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Picture != nil {
		url, err := s.images.Store(ctx, "profiles", update.Picture)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = url
	}
	if update.Bio != "" {
		user.Bio = update.Bio
	}
	if update.Gender != "" {
		user.Gender = update.Gender
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Suggested(ctx context.Context, userID string) ([]models.User, error) {
	return s.store.ListUsersExcept(ctx, userID)
}

// FollowOrUnfollow toggles the mirrored following edges between the two users
func (s *UserService) FollowOrUnfollow(ctx context.Context, followerID, targetID string) (FollowAction, error) {
	if followerID == targetID {
		return "", apperrors.Validation("You cannot follow yourself.")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range []string{followerID, targetID} {
		id := id
		g.Go(func() error {
			_, err := s.store.GetUser(gctx, id)
			if apperrors.Is(err, apperrors.KindNotFound) {
				return apperrors.NotFound("User does not exist.")
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var action FollowAction
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		following, err := tx.IsFollowing(ctx, followerID, targetID)
		if err != nil {
			return err
		}

		if following {
			action = Unfollowed
			if err := tx.RemoveFollowing(ctx, followerID, targetID); err != nil {
				return err
			}
			return tx.RemoveFollowing(ctx, targetID, followerID)
		}

		action = Followed
		if err := tx.AddFollowing(ctx, followerID, targetID); err != nil {
			return err
		}
		return tx.AddFollowing(ctx, targetID, followerID)
	})
	if err != nil {
		return "", err
	}

	if action == Followed {
		publish(ctx, s.events, notify.Event{Type: notify.EventFollow, RecipientID: targetID, ActorID: followerID})
	}
	return action, nil
}

func (s *UserService) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Validation("FCM token is required")
	}
	return s.store.SaveDeviceToken(ctx, userID, token)
}
