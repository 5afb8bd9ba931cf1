package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibely-app/backend/internal/models"
)

func TestAddCommentReturnsNewestPage(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	commenter := env.addUser(t, "commenter")
	post := env.addPost(t, author, "discuss", time.Now())

	path := "/api/posts/comment/" + post.ID.Hex()
	var last models.PostDetail
	for i := 0; i < 8; i++ {
		body := fmt.Sprintf(`{"content":"comment %d"}`, i)
		rec := env.request(t, commenter, http.MethodPost, path, body)
		require.Equal(t, http.StatusOK, rec.Code)
		last = decode[models.PostDetail](t, rec)
	}

	// The response carries the newest page only, new comment first.
	require.Len(t, last.Comments, 6)
	assert.Equal(t, "comment 7", last.Comments[0].Content)
	assert.Equal(t, "commenter", last.Comments[0].User.Username)
}

func TestAddCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	post := env.addPost(t, author, "discuss", time.Now())

	path := "/api/posts/comment/" + post.ID.Hex()
	rec := env.request(t, author, http.MethodPost, path, `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, author, http.MethodPost, "/api/posts/comment/64f000000000000000000099", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCommentsPagination(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	post := env.addPost(t, author, "discuss", time.Now())

	commentPath := "/api/posts/comment/" + post.ID.Hex()
	for i := 0; i < 9; i++ {
		body := fmt.Sprintf(`{"content":"comment %d"}`, i)
		rec := env.request(t, author, http.MethodPost, commentPath, body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	listPath := "/api/posts/comments/" + post.ID.Hex()
	rec := env.request(t, author, http.MethodGet, listPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[models.CommentPage](t, rec)
	require.Len(t, first.Comments, 6)
	assert.Equal(t, 1, first.CurrentPage)
	assert.True(t, first.HasMore)
	assert.Equal(t, "comment 8", first.Comments[0].Content)

	rec = env.request(t, author, http.MethodGet, listPath+"?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[models.CommentPage](t, rec)
	require.Len(t, second.Comments, 3)
	assert.False(t, second.HasMore)
	assert.Equal(t, "comment 2", second.Comments[0].Content)

	// No overlap between the pages.
	seen := map[string]bool{}
	for _, c := range first.Comments {
		seen[c.ID.Hex()] = true
	}
	for _, c := range second.Comments {
		assert.False(t, seen[c.ID.Hex()])
	}

	rec = env.request(t, author, http.MethodGet, "/api/posts/comments/64f000000000000000000099", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCommentAuthorization(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "author")
	commenter := env.addUser(t, "commenter")
	postA := env.addPost(t, author, "post a", time.Now())
	postB := env.addPost(t, author, "post b", time.Now())

	rec := env.request(t, commenter, http.MethodPost, "/api/posts/comment/"+postA.ID.Hex(), `{"content":"mine"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[models.PostDetail](t, rec)
	commentID := detail.Comments[0].ID.Hex()

	// The post author does not own the comment.
	path := "/api/posts/" + postA.ID.Hex() + "/comment/" + commentID
	rec = env.request(t, author, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Wrong post in the path is treated as not found, not forbidden.
	wrongPath := "/api/posts/" + postB.ID.Hex() + "/comment/" + commentID
	rec = env.request(t, commenter, http.MethodDelete, wrongPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, commenter, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, commenter, http.MethodGet, "/api/posts/comments/"+postA.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.CommentPage](t, rec)
	assert.Empty(t, page.Comments)
}
