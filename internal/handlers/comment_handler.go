package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/feed"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	engine            *feed.Engine
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, engine *feed.Engine) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		engine:            engine,
	}
}

// RegisterCommentRoutes registers comment routes on the /api/posts group
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/comments/:postId", h.GetComments)
	g.POST("/comment/:postId", h.AddComment)
	g.DELETE("/:postId/comment/:commentId", h.DeleteComment)
}

// GetComments returns one page of a post's comments, newest first with the
// same stable ordering discipline as the feed.
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID := c.Param("postId")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}

	skip := int64(page-1) * feed.DefaultPageSize
	comments, err := h.commentRepository.ListByPost(c.Request().Context(), postID, skip, feed.DefaultPageSize)
	if err != nil {
		return httpError(err)
	}
	total, err := h.commentRepository.CountByPost(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	views, err := commentViews(h.userRepository, comments)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, models.CommentPage{
		Comments:    views,
		CurrentPage: page,
		HasMore:     skip+int64(len(comments)) < total,
	})
}

// AddComment appends a comment to a post and returns the updated post with
// only the most recent page of comments populated. The new comment is
// always first in that slice.
func (h *CommentHandler) AddComment(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}

	comment := &models.Comment{
		PostID:  post.ID,
		UserID:  viewerID,
		Content: req.Content,
		Image:   req.Image,
	}
	if err := h.commentRepository.CreateComment(c.Request().Context(), comment); err != nil {
		return httpError(err)
	}
	if err := h.postRepository.AppendComment(c.Request().Context(), postID, comment.ID); err != nil {
		return httpError(err)
	}

	updated, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	detail, err := postDetail(c.Request().Context(), h.engine, h.commentRepository, h.userRepository, viewerID, updated)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// DeleteComment removes a comment. Author only. The comment record goes
// first, then the reference on the post: queries resolve comments by their
// own collection, so a crash between the two steps can only leave an inert
// reference, never a resurrected comment.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	postID := c.Param("postId")
	commentID := c.Param("commentId")

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), commentID)
	if err != nil {
		return httpError(err)
	}
	if comment.PostID.Hex() != postID {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	if comment.UserID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(c.Request().Context(), commentID); err != nil {
		return httpError(err)
	}
	if err := h.postRepository.RemoveComment(c.Request().Context(), postID, comment.ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted"})
}
