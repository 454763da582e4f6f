package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/auth"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/store"
	"masterboxer.com/project-instaclone/store/memory"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Publish(ctx context.Context, event notify.Event) error {
	return m.Called(ctx, event).Error(0)
}

func eventOf(eventType notify.EventType, recipient, actor string) any {
	return mock.MatchedBy(func(e notify.Event) bool {
		return e.Type == eventType && e.RecipientID == recipient && e.ActorID == actor
	})
}

type stubImages struct {
	prefixes []string
}

func (s *stubImages) Store(ctx context.Context, prefix string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	s.prefixes = append(s.prefixes, prefix)
	return "https://cdn.example.com/" + prefix + "/img.jpg", nil
}

var errDiskFull = errors.New("disk full")

type faults struct {
	failAppend   bool
	failFollowOn int
	followWrites int
}

// faultyStore fails selected writes, including those made inside WithTx
type faultyStore struct {
	store.Store
	faults *faults
}

func (s faultyStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(faultyStore{Store: tx, faults: s.faults})
	})
}

func (s faultyStore) AppendMessage(ctx context.Context, m *models.Message) error {
	if s.faults.failAppend {
		return errDiskFull
	}
	return s.Store.AppendMessage(ctx, m)
}

func (s faultyStore) AddFollowing(ctx context.Context, userID, targetID string) error {
	s.faults.followWrites++
	if s.faults.followWrites == s.faults.failFollowOn {
		return errDiskFull
	}
	return s.Store.AddFollowing(ctx, userID, targetID)
}

type fixture struct {
	store    *memory.Store
	sink     *mockSink
	images   *stubImages
	issuer   *auth.TokenIssuer
	users    *UserService
	posts    *PostService
	messages *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		sink:   &mockSink{},
		images: &stubImages{},
		issuer: auth.NewTokenIssuer("test-secret", time.Hour),
	}
	f.sink.Test(t)
	f.users = NewUserService(f.store, auth.NewPasswordHasher(bcrypt.MinCost), f.issuer, f.images, f.sink)
	f.posts = NewPostService(f.store, f.images, f.sink)
	f.messages = NewMessageService(f.store, f.sink)
	t.Cleanup(func() { f.sink.AssertExpectations(t) })
	return f
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: name + "-pass",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User) *models.PostView {
	t.Helper()
	p, err := f.posts.Create(context.Background(), author.ID, "caption", strings.NewReader("img"))
	require.NoError(t, err)
	return p
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.register(t, "alice")
	f.register(t, "bob")
	assert.NotEqual(t, "alice-pass", alice.Password)

	_, err := f.users.Register(ctx, RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = f.users.Register(ctx, RegisterInput{Username: "carol", Email: "", Password: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "Please fill in all fields.", apperrors.MessageOf(err))

	_, err = f.users.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: strings.Repeat("a", 73)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "Password is too long.", apperrors.MessageOf(err))

	dave, err := f.users.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: strings.Repeat("a", 72)})
	require.NoError(t, err)
	assert.NotEmpty(t, dave.ID)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.post(t, alice)

	for i := 0; i < 2; i++ {
		_, err := f.users.Login(ctx, "alice@example.com", "wrong")
		assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	}

	_, err := f.users.Login(ctx, "nobody@example.com", "alice-pass")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))

	result, err := f.users.Login(ctx, "Alice@Example.com", "alice-pass")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, result.User.ID)
	assert.Len(t, result.Posts, 1)

	userID, err := f.issuer.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, userID)
}

func TestFollowOrUnfollow_MirroredToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	f.sink.On("Publish", mock.Anything, eventOf(notify.EventFollow, bob.ID, alice.ID)).Return(nil).Once()

	action, err := f.users.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Followed, action)

	gotAlice, err := f.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	gotBob, err := f.users.Profile(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, gotAlice.Following, bob.ID)
	assert.Contains(t, gotBob.Following, alice.ID)

	action, err = f.users.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Unfollowed, action)

	gotAlice, err = f.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	gotBob, err = f.users.Profile(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, gotAlice.Following)
	assert.Empty(t, gotBob.Following)
}

func TestFollowOrUnfollow_FailedMirrorWriteLeavesNoEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	faulty := &faults{failFollowOn: 2}
	users := NewUserService(faultyStore{Store: f.store, faults: faulty}, auth.NewPasswordHasher(bcrypt.MinCost), f.issuer, f.images, f.sink)

	_, err := users.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 2, faulty.followWrites)

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		following, err := f.store.IsFollowing(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, following)
	}
	edges, err := f.store.ListAsymmetricFollows(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestFollowOrUnfollow_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	_, err := f.users.FollowOrUnfollow(ctx, alice.ID, alice.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.users.FollowOrUnfollow(ctx, alice.ID, "ghost")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	got, err := f.users.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Following)
	assert.Empty(t, got.Followers)
}

func TestEditProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	updated, err := f.users.EditProfile(ctx, alice.ID, ProfileUpdate{Bio: "hello", Picture: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "https://cdn.example.com/profiles/img.jpg", updated.ProfilePicture)

	updated, err = f.users.EditProfile(ctx, alice.ID, ProfileUpdate{Gender: "female"})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "female", updated.Gender)

	_, err = f.users.EditProfile(ctx, "ghost", ProfileUpdate{Bio: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestSuggested_ExcludesCaller(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	users, err := f.users.Suggested(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
}

func TestRegisterDeviceToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	assert.True(t, apperrors.Is(f.users.RegisterDeviceToken(ctx, alice.ID, " "), apperrors.KindValidation))
	require.NoError(t, f.users.RegisterDeviceToken(ctx, alice.ID, "tok"))

	tokens, err := f.store.ListDeviceTokens(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, tokens)
}

func TestRepair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	require.NoError(t, f.store.AddFollowing(ctx, alice.ID, bob.ID))
	post := f.post(t, alice)
	require.NoError(t, f.store.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: bob.ID, Text: "hi"}))
	require.NoError(t, f.store.DeletePost(ctx, post.ID))

	report, err := NewConsistencyService(f.store).Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, RepairReport{RestoredFollows: 1, DeletedComments: 1}, report)

	mirrored, err := f.store.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, mirrored)

	report, err = NewConsistencyService(f.store).Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, RepairReport{}, report)
}
