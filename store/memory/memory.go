// Package memory is a process-local store.Store used for development
// (STORE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/store"
)

// state holds value copies only, so a shallow clone of each map (plus the
// slice maps) is a full snapshot.
type state struct {
	users     map[string]models.User
	emails    map[string]string
	following map[string][]string
	bookmarks map[string][]string
	tokens    map[string][]string

	posts     map[string]models.Post
	postOrder []string
	likes     map[string][]string
	comments  map[string]models.Comment
	postComms map[string][]string

	conversations map[string]models.Conversation
	convMessages  map[string][]string
	messages      map[string]models.Message
}

func newState() state {
	return state{
		users:         map[string]models.User{},
		emails:        map[string]string{},
		following:     map[string][]string{},
		bookmarks:     map[string][]string{},
		tokens:        map[string][]string{},
		posts:         map[string]models.Post{},
		likes:         map[string][]string{},
		comments:      map[string]models.Comment{},
		postComms:     map[string][]string{},
		conversations: map[string]models.Conversation{},
		convMessages:  map[string][]string{},
		messages:      map[string]models.Message{},
	}
}

func (s state) clone() state {
	return state{
		users:         maps.Clone(s.users),
		emails:        maps.Clone(s.emails),
		following:     cloneLists(s.following),
		bookmarks:     cloneLists(s.bookmarks),
		tokens:        cloneLists(s.tokens),
		posts:         maps.Clone(s.posts),
		postOrder:     slices.Clone(s.postOrder),
		likes:         cloneLists(s.likes),
		comments:      maps.Clone(s.comments),
		postComms:     cloneLists(s.postComms),
		conversations: maps.Clone(s.conversations),
		convMessages:  cloneLists(s.convMessages),
		messages:      maps.Clone(s.messages),
	}
}

// Store serializes every operation behind one mutex. A transactional view
// shares the data and skips locking because WithTx already holds the lock.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
	now  func() time.Time
}

// New returns an empty store
func New() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, data: &st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithTx snapshots the data and restores it if fn fails
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()

	email := strings.ToLower(u.Email)
	if _, taken := s.data.emails[email]; taken {
		return apperrors.Conflict("User already exists.")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	stored := *u
	stored.Followers, stored.Following, stored.Posts, stored.Bookmarks = nil, nil, nil, nil
	s.data.users[u.ID] = stored
	s.data.emails[email] = u.ID

	u.Followers, u.Following, u.Posts, u.Bookmarks = []string{}, []string{}, []string{}, []string{}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.lock()()
	return s.user(id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()

	id, ok := s.data.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	return s.user(id)
}

func (s *Store) user(id string) (*models.User, error) {
	u, ok := s.data.users[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}

	u.Following = listOf(s.data.following[id])
	u.Followers = []string{}
	for _, other := range s.sortedUserIDs() {
		if slices.Contains(s.data.following[other], id) {
			u.Followers = append(u.Followers, other)
		}
	}
	u.Posts = []string{}
	for _, postID := range s.data.postOrder {
		if s.data.posts[postID].AuthorID == id {
			u.Posts = append(u.Posts, postID)
		}
	}
	u.Bookmarks = listOf(s.data.bookmarks[id])
	return &u, nil
}

func (s *Store) sortedUserIDs() []string {
	ids := make([]string, 0, len(s.data.users))
	for id := range s.data.users {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := s.data.users[a].CreatedAt.Compare(s.data.users[b].CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ids
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()

	stored, ok := s.data.users[u.ID]
	if !ok {
		return apperrors.NotFound("User not found")
	}
	stored.Username = u.Username
	stored.Bio = u.Bio
	stored.Gender = u.Gender
	stored.ProfilePicture = u.ProfilePicture
	s.data.users[u.ID] = stored
	return nil
}

func (s *Store) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	defer s.lock()()

	ids := s.sortedUserIDs()
	users := make([]models.User, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			continue
		}
		u, err := s.user(ids[i])
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *Store) GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	defer s.lock()()

	out := make(map[string]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.data.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (s *Store) SaveDeviceToken(ctx context.Context, userID, token string) error {
	defer s.lock()()

	if _, ok := s.data.users[userID]; !ok {
		return apperrors.NotFound("User not found")
	}
	s.data.tokens[userID] = addUnique(s.data.tokens[userID], token)
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID string) ([]string, error) {
	defer s.lock()()
	return listOf(s.data.tokens[userID]), nil
}

func (s *Store) DeleteDeviceToken(ctx context.Context, token string) error {
	defer s.lock()()

	for userID, tokens := range s.data.tokens {
		s.data.tokens[userID] = remove(tokens, token)
	}
	return nil
}

// Graph

func (s *Store) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	defer s.lock()()
	return slices.Contains(s.data.following[userID], targetID), nil
}

func (s *Store) AddFollowing(ctx context.Context, userID, targetID string) error {
	defer s.lock()()

	if userID == targetID {
		return apperrors.Validation("You cannot follow yourself.")
	}
	if !s.hasUsers(userID, targetID) {
		return apperrors.NotFound("User does not exist.")
	}
	s.data.following[userID] = addUnique(s.data.following[userID], targetID)
	return nil
}

func (s *Store) RemoveFollowing(ctx context.Context, userID, targetID string) error {
	defer s.lock()()
	s.data.following[userID] = remove(s.data.following[userID], targetID)
	return nil
}

func (s *Store) ListAsymmetricFollows(ctx context.Context) ([]models.FollowEdge, error) {
	defer s.lock()()

	var edges []models.FollowEdge
	for _, userID := range s.sortedUserIDs() {
		for _, targetID := range s.data.following[userID] {
			if !slices.Contains(s.data.following[targetID], userID) {
				edges = append(edges, models.FollowEdge{UserID: userID, TargetID: targetID})
			}
		}
	}
	return edges, nil
}

func (s *Store) hasUsers(ids ...string) bool {
	for _, id := range ids {
		if _, ok := s.data.users[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) HasBookmark(ctx context.Context, userID, postID string) (bool, error) {
	defer s.lock()()
	return slices.Contains(s.data.bookmarks[userID], postID), nil
}

func (s *Store) AddBookmark(ctx context.Context, userID, postID string) error {
	defer s.lock()()

	if _, ok := s.data.posts[postID]; !ok {
		return apperrors.NotFound("Post not found")
	}
	s.data.bookmarks[userID] = addUnique(s.data.bookmarks[userID], postID)
	return nil
}

func (s *Store) RemoveBookmark(ctx context.Context, userID, postID string) error {
	defer s.lock()()
	s.data.bookmarks[userID] = remove(s.data.bookmarks[userID], postID)
	return nil
}

// Posts

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	defer s.lock()()

	if _, ok := s.data.users[p.AuthorID]; !ok {
		return apperrors.NotFound("User not found")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	stored := *p
	stored.Likes, stored.Comments = nil, nil
	s.data.posts[p.ID] = stored
	s.data.postOrder = append(s.data.postOrder, p.ID)

	p.Likes, p.Comments = []string{}, []string{}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	defer s.lock()()
	return s.post(id)
}

func (s *Store) post(id string) (*models.Post, error) {
	p, ok := s.data.posts[id]
	if !ok {
		return nil, apperrors.NotFound("Post not found")
	}
	p.Likes = listOf(s.data.likes[id])
	p.Comments = listOf(s.data.postComms[id])
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	defer s.lock()()

	posts := []models.Post{}
	for i := len(s.data.postOrder) - 1; i >= 0; i-- {
		p, err := s.post(s.data.postOrder[i])
		if err != nil {
			return nil, err
		}
		if authorID == "" || p.AuthorID == authorID {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	defer s.lock()()

	if _, ok := s.data.posts[id]; !ok {
		return apperrors.NotFound("Post not found")
	}
	delete(s.data.posts, id)
	delete(s.data.likes, id)
	s.data.postOrder = remove(s.data.postOrder, id)
	for userID, saved := range s.data.bookmarks {
		s.data.bookmarks[userID] = remove(saved, id)
	}
	return nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) error {
	defer s.lock()()

	if _, ok := s.data.posts[postID]; !ok {
		return apperrors.NotFound("Post not found")
	}
	s.data.likes[postID] = addUnique(s.data.likes[postID], userID)
	return nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	defer s.lock()()
	s.data.likes[postID] = remove(s.data.likes[postID], userID)
	return nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	defer s.lock()()

	if _, ok := s.data.posts[c.PostID]; !ok {
		return apperrors.NotFound("Post not found")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.data.comments[c.ID] = *c
	s.data.postComms[c.PostID] = append(s.data.postComms[c.PostID], c.ID)
	return nil
}

func (s *Store) ListComments(ctx context.Context, postIDs []string) ([]models.Comment, error) {
	defer s.lock()()

	comments := []models.Comment{}
	for _, postID := range postIDs {
		for _, id := range s.data.postComms[postID] {
			comments = append(comments, s.data.comments[id])
		}
	}
	slices.SortStableFunc(comments, func(a, b models.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return comments, nil
}

func (s *Store) DeleteCommentsByPost(ctx context.Context, postID string) (int64, error) {
	defer s.lock()()

	var n int64
	for id, c := range s.data.comments {
		if c.PostID == postID {
			delete(s.data.comments, id)
			n++
		}
	}
	delete(s.data.postComms, postID)
	return n, nil
}

func (s *Store) DeleteOrphanComments(ctx context.Context) (int64, error) {
	defer s.lock()()

	var n int64
	for id, c := range s.data.comments {
		if _, ok := s.data.posts[c.PostID]; !ok {
			delete(s.data.comments, id)
			delete(s.data.postComms, c.PostID)
			n++
		}
	}
	return n, nil
}

// Conversations

func (s *Store) FindConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	defer s.lock()()
	return s.findConversation(a, b)
}

func (s *Store) findConversation(a, b string) (*models.Conversation, error) {
	for _, c := range s.data.conversations {
		if c.HasParticipants(a, b) {
			c.Participants = slices.Clone(c.Participants)
			c.Messages = listOf(s.data.convMessages[c.ID])
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("Conversation not found")
}

func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	defer s.lock()()

	if len(c.Participants) != 2 {
		return apperrors.Validation("A conversation needs exactly two participants")
	}
	if existing, err := s.findConversation(c.Participants[0], c.Participants[1]); err == nil {
		*c = *existing
		return nil
	}
	if !s.hasUsers(c.Participants...) {
		return apperrors.NotFound("User does not exist.")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	stored := *c
	stored.Participants = slices.Clone(c.Participants)
	stored.Messages = nil
	s.data.conversations[c.ID] = stored
	c.Messages = []string{}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	defer s.lock()()

	if _, ok := s.data.conversations[m.ConversationID]; !ok {
		return apperrors.NotFound("Conversation not found")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.data.messages[m.ID] = *m
	s.data.convMessages[m.ConversationID] = append(s.data.convMessages[m.ConversationID], m.ID)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	defer s.lock()()

	ids := s.data.convMessages[conversationID]
	messages := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		messages = append(messages, s.data.messages[id])
	}
	return messages, nil
}

// helpers

func cloneLists(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func listOf(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}

func addUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}
