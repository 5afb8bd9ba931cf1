package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/feed"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
)

// PostHandler handles HTTP requests related to posts and the feed
type PostHandler struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	userRepository    repositories.UserRepository
	engine            *feed.Engine
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, engine *feed.Engine) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		userRepository:    userRepo,
		engine:            engine,
	}
}

// RegisterPostRoutes registers post routes on the /api/posts group
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("", h.GetFeed)
	g.POST("", h.CreatePost)
	g.GET("/:postId", h.GetPost)
	g.PUT("/:postId", h.UpdatePost)
	g.DELETE("/:postId", h.DeletePost)
	g.POST("/like/:postId", h.LikePost)
	g.POST("/unlike/:postId", h.UnlikePost)
}

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

func extractHashtags(content string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	tags := []string{}
	seen := map[string]bool{}
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// GetFeed returns one page of posts for the current viewer.
// Query params: type={following|explore|search}, page, userId, search.
// An explicit userId overrides type and returns that user's posts.
func (h *PostHandler) GetFeed(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	var authorID uint
	if raw := c.QueryParam("userId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
		}
		authorID = uint(parsed)
	}

	result, err := h.engine.FeedPage(c.Request().Context(), viewerID, feed.Query{
		Mode:     feed.Mode(c.QueryParam("type")),
		Page:     page,
		Search:   c.QueryParam("search"),
		AuthorID: authorID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreatePost creates a new post. Content and media are each optional but at
// least one must be non-empty.
func (h *PostHandler) CreatePost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Media) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must have content or media")
	}

	post := &models.Post{
		AuthorID: viewerID,
		Content:  req.Content,
		Media:    req.Media,
		Hashtags: extractHashtags(req.Content),
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return httpError(err)
	}

	detail, err := postDetail(c.Request().Context(), h.engine, h.commentRepository, h.userRepository, viewerID, post)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// GetPost retrieves a single post with its author populated
func (h *PostHandler) GetPost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("postId"))
	if err != nil {
		return httpError(err)
	}
	annotated, err := h.engine.AnnotatePost(c.Request().Context(), viewerID, post)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, annotated)
}

// UpdatePost replaces a post's content and media wholesale. Author only.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Media) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must have content or media")
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	if post.AuthorID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, req.Content, req.Media, extractHashtags(req.Content)); err != nil {
		return httpError(err)
	}

	updated, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	annotated, err := h.engine.AnnotatePost(c.Request().Context(), viewerID, updated)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, annotated)
}

// DeletePost deletes a post and cascades to its comments. The comments go
// first so a failure aborts before the post is touched and nothing is left
// half-deleted.
func (h *PostHandler) DeletePost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	if post.AuthorID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if _, err := h.commentRepository.DeleteByPost(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}
	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted"})
}

// LikePost adds the viewer to the post's like set and returns the updated
// post. Liking twice fails with a conflict; the guard lives in the storage
// layer so concurrent likes cannot race.
func (h *PostHandler) LikePost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")

	if err := h.postRepository.AddLike(c.Request().Context(), postID, viewerID); err != nil {
		return httpError(err)
	}
	return h.respondWithPost(c, viewerID, postID)
}

// UnlikePost removes the viewer's like and returns the updated post.
func (h *PostHandler) UnlikePost(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")

	if err := h.postRepository.RemoveLike(c.Request().Context(), postID, viewerID); err != nil {
		return httpError(err)
	}
	return h.respondWithPost(c, viewerID, postID)
}

func (h *PostHandler) respondWithPost(c echo.Context, viewerID uint, postID string) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	annotated, err := h.engine.AnnotatePost(c.Request().Context(), viewerID, post)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, annotated)
}
