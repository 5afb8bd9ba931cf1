package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibely-app/backend/internal/feed"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
	"github.com/vibely-app/backend/validators"
)

type testEnv struct {
	echo     *echo.Echo
	users    *repositories.MemoryUserRepository
	follows  *repositories.MemoryFollowRepository
	posts    *repositories.MemoryPostRepository
	comments *repositories.MemoryCommentRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repositories.NewMemoryUserRepository()
	follows := repositories.NewMemoryFollowRepository(users)
	posts := repositories.NewMemoryPostRepository(users)
	comments := repositories.NewMemoryCommentRepository()
	engine := feed.NewEngine(posts, users, follows)

	e := echo.New()
	e.Validator = validators.NewValidator()

	group := e.Group("/api/posts")
	// Stand-in for the JWT middleware: the viewer id travels in a header.
	group.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := c.Request().Header.Get("X-User-ID"); raw != "" {
				id, err := strconv.ParseUint(raw, 10, 32)
				require.NoError(t, err)
				c.Set("userID", uint(id))
			}
			return next(c)
		}
	})
	NewPostHandler(posts, comments, users, engine).RegisterPostRoutes(group)
	NewCommentHandler(comments, posts, users, engine).RegisterCommentRoutes(group)

	return &testEnv{echo: e, users: users, follows: follows, posts: posts, comments: comments}
}

func (env *testEnv) addUser(t *testing.T, username string) uint {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, env.users.CreateUser(u))
	return u.ID
}

func (env *testEnv) addPost(t *testing.T, authorID uint, content string, createdAt time.Time) models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: content, CreatedAt: createdAt}
	require.NoError(t, env.posts.CreatePost(context.Background(), p))
	return *p
}

func (env *testEnv) request(t *testing.T, userID uint, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetFeedRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "viewer")

	rec := env.request(t, viewer, http.MethodGet, "/api/posts?type=trending", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, viewer, http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFeedPageCoercion(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "viewer")
	author := env.addUser(t, "author")
	require.NoError(t, env.follows.Follow(viewer, author))

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		env.addPost(t, author, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	rec := env.request(t, viewer, http.MethodGet, "/api/posts?type=following&page=-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.PostPage](t, rec)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Posts, 6)
	assert.True(t, page.HasMore)
	assert.Equal(t, "post 7", page.Posts[0].Content)
}

func TestGetFeedUserIDOverridesType(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "viewer")
	author := env.addUser(t, "author")
	env.addPost(t, author, "profile post", time.Now())

	path := fmt.Sprintf("/api/posts?type=following&userId=%d", author)
	rec := env.request(t, viewer, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.PostPage](t, rec)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "profile post", page.Posts[0].Content)

	rec = env.request(t, viewer, http.MethodGet, "/api/posts?type=following&userId=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostExtractsHashtags(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "viewer")

	rec := env.request(t, viewer, http.MethodPost, "/api/posts",
		`{"content":"Loving the #Sunset today #sunset #beach"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	detail := decode[models.PostDetail](t, rec)
	assert.Equal(t, []string{"sunset", "beach"}, detail.Hashtags)
	assert.Equal(t, "viewer", detail.Author.Username)
}

func TestCreatePostRequiresContentOrMedia(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "viewer")

	rec := env.request(t, viewer, http.MethodPost, "/api/posts", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, viewer, http.MethodPost, "/api/posts",
		`{"media":["https://cdn.example.com/a.jpg"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateAndDeletePostAreAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	intruder := env.addUser(t, "intruder")
	post := env.addPost(t, author, "original", time.Now())

	path := "/api/posts/" + post.ID.Hex()
	rec := env.request(t, intruder, http.MethodPut, path, `{"content":"hijacked"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, intruder, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Still intact and retrievable.
	rec = env.request(t, intruder, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.FeedPost](t, rec)
	assert.Equal(t, "original", got.Content)

	rec = env.request(t, author, http.MethodPut, path, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[models.FeedPost](t, rec)
	assert.Equal(t, "edited", got.Content)

	rec = env.request(t, author, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, author, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePostCascadesComments(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	commenter := env.addUser(t, "commenter")
	post := env.addPost(t, author, "to be removed", time.Now())

	commentPath := "/api/posts/comment/" + post.ID.Hex()
	for i := 0; i < 3; i++ {
		rec := env.request(t, commenter, http.MethodPost, commentPath, `{"content":"nice"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.request(t, author, http.MethodDelete, "/api/posts/"+post.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	n, err := env.comments.CountByPost(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLikeUnlikeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	fan := env.addUser(t, "fan")
	post := env.addPost(t, author, "likeable", time.Now())

	likePath := "/api/posts/like/" + post.ID.Hex()
	rec := env.request(t, fan, http.MethodPost, likePath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.FeedPost](t, rec)
	assert.Equal(t, []uint{fan}, got.Likes)

	rec = env.request(t, fan, http.MethodPost, likePath, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	unlikePath := "/api/posts/unlike/" + post.ID.Hex()
	rec = env.request(t, fan, http.MethodPost, unlikePath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[models.FeedPost](t, rec)
	assert.Empty(t, got.Likes)

	rec = env.request(t, fan, http.MethodPost, unlikePath, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.request(t, fan, http.MethodPost, "/api/posts/like/64f000000000000000000099", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
