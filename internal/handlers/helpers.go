package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/feed"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
)

// getUserIDFromContext returns the authenticated viewer id set by the auth
// middleware, or 0 when the request is unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

// httpError maps the repository error taxonomy to HTTP statuses. Anything
// outside the taxonomy is a 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, repositories.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, repositories.ErrAlreadyLiked),
		errors.Is(err, repositories.ErrNotLiked),
		errors.Is(err, repositories.ErrAlreadyFollowing),
		errors.Is(err, repositories.ErrNotFollowing),
		errors.Is(err, repositories.ErrUsernameTaken),
		errors.Is(err, repositories.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, feed.ErrInvalidMode):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// commentViews populates comment authors in bulk.
func commentViews(userRepo repositories.UserRepository, comments []models.Comment) ([]models.CommentView, error) {
	userIDs := make([]uint, 0, len(comments))
	seen := make(map[uint]bool, len(comments))
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}
	users, err := userRepo.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, len(comments))
	for i, c := range comments {
		u := users[c.UserID]
		views[i] = models.CommentView{Comment: c, User: u.ToCompact()}
	}
	return views, nil
}

// postDetail composes a post with its author and the newest page of
// comments populated, the shape returned after comment mutations.
func postDetail(ctx context.Context, engine *feed.Engine, commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, viewerID uint, post *models.Post) (*models.PostDetail, error) {
	annotated, err := engine.AnnotatePost(ctx, viewerID, post)
	if err != nil {
		return nil, err
	}
	comments, err := commentRepo.ListByPost(ctx, post.ID.Hex(), 0, feed.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	views, err := commentViews(userRepo, comments)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{FeedPost: *annotated, Comments: views}, nil
}
