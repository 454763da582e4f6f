package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"masterboxer.com/project-instaclone/auth"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/services"
	"masterboxer.com/project-instaclone/store/memory"
)

type stubImages struct{}

func (stubImages) Store(ctx context.Context, prefix string, r io.Reader) (string, error) {
	_, err := io.ReadAll(r)
	return "https://cdn.example.com/" + prefix + "/img.jpg", err
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s := memory.New()
	issuer := auth.NewTokenIssuer("test-secret", 24*time.Hour)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	handler := NewHandler(Deps{
		Users:          services.NewUserService(s, hasher, issuer, stubImages{}, notify.Nop{}),
		Posts:          services.NewPostService(s, stubImages{}, notify.Nop{}),
		Messages:       services.NewMessageService(s, notify.Nop{}),
		Hub:            notify.NewHub(""),
		Tokens:         issuer,
		MaxUploadBytes: 1 << 20,
		CORSOrigin:     "http://localhost:5173",
	})
	return &testAPI{t: t, handler: handler, store: s}
}

type response struct {
	Code    int
	Body    map[string]any
	Cookies []*http.Cookie
}

func (a *testAPI) do(method, path, token string, body io.Reader, contentType string) response {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Cookies: rec.Result().Cookies()}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func (a *testAPI) json(method, path, token string, payload any) response {
	a.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(a.t, err)
	return a.do(method, path, token, bytes.NewReader(raw), "application/json")
}

func (a *testAPI) register(name string) {
	a.t.Helper()
	res := a.json("POST", "/api/v1/user/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": name + "-pass",
	})
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body)
}

// login returns the session token and the user id
func (a *testAPI) login(name string) (string, string) {
	a.t.Helper()
	res := a.json("POST", "/api/v1/user/login", "", map[string]string{
		"email": name + "@example.com", "password": name + "-pass",
	})
	require.Equal(a.t, http.StatusOK, res.Code, res.Body)

	var token string
	for _, c := range res.Cookies {
		if c.Name == middleware.TokenCookie {
			token = c.Value
			assert.True(a.t, c.HttpOnly)
			assert.Equal(a.t, http.SameSiteStrictMode, c.SameSite)
		}
	}
	require.NotEmpty(a.t, token)

	user := res.Body["user"].(map[string]any)
	assert.NotContains(a.t, user, "password")
	return token, user["_id"].(string)
}

func (a *testAPI) createPost(token string) string {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(a.t, mw.WriteField("caption", "sunset"))
	part, err := mw.CreateFormFile("image", "sunset.png")
	require.NoError(a.t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	res := a.do("POST", "/api/v1/post/addpost", token, &buf, mw.FormDataContentType())
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body)
	return res.Body["post"].(map[string]any)["_id"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")
	api.register("bob")

	res := api.json("POST", "/api/v1/user/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, false, res.Body["success"])

	res = api.json("POST", "/api/v1/user/register", "", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Please fill in all fields.", res.Body["message"])

	res = api.json("POST", "/api/v1/user/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": strings.Repeat("p", 73),
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Password is too long.", res.Body["message"])

	for i := 0; i < 2; i++ {
		res = api.json("POST", "/api/v1/user/login", "", map[string]string{
			"email": "alice@example.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Empty(t, res.Cookies)
	}

	api.login("alice")

	res = api.do("GET", "/api/v1/user/logout", "", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, -1, res.Cookies[0].MaxAge)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/v1/post/all", "/api/v1/user/suggested", "/api/v1/message/all/x"} {
		res := api.do("GET", path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, res.Code, path)
	}

	res := api.do("GET", "/api/v1/post/all", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestFollowToggle(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")
	api.register("bob")
	aliceToken, aliceID := api.login("alice")
	_, bobID := api.login("bob")

	res := api.do("POST", "/api/v1/user/"+bobID+"/follow", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "followed", res.Body["type"])

	res = api.do("GET", "/api/v1/user/"+bobID, "", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	bob := res.Body["user"].(map[string]any)
	assert.Equal(t, []any{aliceID}, bob["following"])
	assert.Equal(t, []any{aliceID}, bob["followers"])

	res = api.do("POST", "/api/v1/user/followorunfollow/"+bobID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "unfollowed", res.Body["type"])

	res = api.do("POST", "/api/v1/user/"+aliceID+"/follow", aliceToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do("POST", "/api/v1/user/ghost/follow", aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = api.do("GET", "/api/v1/user/suggested", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["users"], 1)
}

func TestPostLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")
	api.register("bob")
	aliceToken, aliceID := api.login("alice")
	bobToken, bobID := api.login("bob")

	postID := api.createPost(aliceToken)

	res := api.do("POST", "/api/v1/post/"+postID+"/like", bobToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	res = api.do("GET", "/api/v1/post/"+postID+"/like", bobToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do("GET", "/api/v1/post/missing/like", bobToken, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = api.json("POST", "/api/v1/post/"+postID+"/comment", bobToken, map[string]string{"text": "great shot"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	comment := res.Body["comment"].(map[string]any)
	assert.Equal(t, "bob", comment["author"].(map[string]any)["username"])

	res = api.json("POST", "/api/v1/post/"+postID+"/comment", bobToken, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do("GET", "/api/v1/post/all", bobToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	posts := res.Body["posts"].([]any)
	require.Len(t, posts, 1)
	post := posts[0].(map[string]any)
	assert.Equal(t, []any{bobID}, post["likes"])
	assert.Equal(t, "alice", post["author"].(map[string]any)["username"])
	assert.Len(t, post["comments"], 1)

	res = api.do("POST", "/api/v1/post/"+postID+"/comment/all", bobToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["comments"], 1)

	for _, want := range []string{"saved", "unsaved"} {
		res = api.do("POST", "/api/v1/post/"+postID+"/bookmark", bobToken, nil, "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, want, res.Body["type"])
	}

	res = api.do("DELETE", "/api/v1/post/delete/"+postID, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = api.do("GET", "/api/v1/post/mine", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["posts"], 1)

	res = api.do("DELETE", "/api/v1/post/"+postID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do("GET", "/api/v1/user/"+aliceID+"/profile", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.Body["user"].(map[string]any)["posts"])

	orphans, err := api.store.DeleteOrphanComments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, orphans)
}

func TestCreatePost_MissingImage(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")
	token, _ := api.login("alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caption", "no picture"))
	require.NoError(t, mw.Close())

	res := api.do("POST", "/api/v1/post/new", token, &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Image is required", res.Body["message"])
}

func TestMessaging(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")
	api.register("bob")
	aliceToken, aliceID := api.login("alice")
	bobToken, bobID := api.login("bob")

	res := api.json("POST", "/api/v1/message/send/"+bobID, aliceToken, map[string]string{"message": "hi"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	msg := res.Body["newMessage"].(map[string]any)
	assert.Equal(t, "hi", msg["message"])
	assert.Equal(t, aliceID, msg["senderId"])
	assert.Equal(t, bobID, msg["receiverId"])

	res = api.json("POST", "/api/v1/message/"+aliceID, bobToken, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, msg["conversationId"], res.Body["newMessage"].(map[string]any)["conversationId"])

	res = api.do("GET", "/api/v1/message/all/"+aliceID, bobToken, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["messages"], 2)

	res = api.json("POST", "/api/v1/message/send/"+aliceID, aliceToken, map[string]string{"message": "me"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	res := api.do("GET", "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.Body["success"])

	res = api.do("GET", "/api/v1/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, false, res.Body["success"])
}
