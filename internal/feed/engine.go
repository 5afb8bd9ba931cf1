// Package feed implements feed composition: mode-specific filtering over the
// social graph, stable offset pagination, and per-viewer author annotation.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
)

// DefaultPageSize is the page size for every paginated feed endpoint.
const DefaultPageSize = 6

// Mode selects the filter strategy applied before pagination.
type Mode string

const (
	ModeFollowing Mode = "following"
	ModeExplore   Mode = "explore"
	ModeSearch    Mode = "search"
)

// ErrInvalidMode rejects unknown feed modes. Falling back to an unfiltered
// feed would silently leak posts into the wrong tab.
var ErrInvalidMode = errors.New("invalid feed mode")

// Query describes one feed page request. A non-zero AuthorID overrides Mode
// and returns that author's posts regardless of the follow relation.
type Query struct {
	Mode     Mode
	Page     int
	PageSize int
	Search   string
	AuthorID uint
}

// Engine resolves feed queries against the post, user and follow stores.
type Engine struct {
	posts   repositories.PostRepository
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

func NewEngine(posts repositories.PostRepository, users repositories.UserRepository, follows repositories.FollowRepository) *Engine {
	return &Engine{posts: posts, users: users, follows: follows}
}

// FeedPage returns one page of the viewer's feed. Ordering is newest first
// with a descending id tiebreak; pagination is offset-based with page<=0
// coerced to 1.
func (e *Engine) FeedPage(ctx context.Context, viewerID uint, q Query) (*models.PostPage, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	filter, empty, err := e.resolveFilter(viewerID, q)
	if err != nil {
		return nil, err
	}
	if empty {
		return &models.PostPage{Posts: []models.FeedPost{}, CurrentPage: page}, nil
	}

	total, err := e.posts.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count feed posts: %w", err)
	}

	skip := int64(page-1) * int64(size)
	posts, err := e.posts.FindPage(ctx, filter, skip, int64(size))
	if err != nil {
		return nil, fmt.Errorf("query feed posts: %w", err)
	}

	annotated, err := e.AnnotatePosts(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}

	return &models.PostPage{
		Posts:       annotated,
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(size))),
		HasMore:     skip+int64(len(posts)) < total,
	}, nil
}

// resolveFilter turns the query into a storage predicate. The second return
// value reports that the result set is known to be empty without querying
// (following mode with nobody followed).
func (e *Engine) resolveFilter(viewerID uint, q Query) (repositories.PostFilter, bool, error) {
	if q.AuthorID != 0 {
		return repositories.PostFilter{AuthorID: q.AuthorID}, false, nil
	}

	switch q.Mode {
	case ModeFollowing:
		ids, err := e.follows.GetFollowingIDs(viewerID)
		if err != nil {
			return repositories.PostFilter{}, false, err
		}
		// Own posts never appear in the following feed.
		ids = withoutID(ids, viewerID)
		if len(ids) == 0 {
			return repositories.PostFilter{}, true, nil
		}
		return repositories.PostFilter{AuthorIn: ids}, false, nil

	case ModeExplore:
		ids, err := e.follows.GetFollowingIDs(viewerID)
		if err != nil {
			return repositories.PostFilter{}, false, err
		}
		return repositories.PostFilter{AuthorNotIn: append(ids, viewerID)}, false, nil

	case ModeSearch:
		users, err := e.users.SearchUsers(q.Search)
		if err != nil {
			return repositories.PostFilter{}, false, err
		}
		authorIDs := make([]uint, 0, len(users))
		for _, u := range users {
			authorIDs = append(authorIDs, u.ID)
		}
		return repositories.PostFilter{Search: q.Search, SearchAuthorIDs: authorIDs}, false, nil

	default:
		return repositories.PostFilter{}, false, ErrInvalidMode
	}
}

// AnnotatePosts populates each post's author together with the viewer's
// follow relation. The relation is read fresh per call: it is viewer-relative
// state and must never be cached on the post itself.
func (e *Engine) AnnotatePosts(ctx context.Context, viewerID uint, posts []models.Post) ([]models.FeedPost, error) {
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := e.users.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load feed authors: %w", err)
	}

	followingIDs, err := e.follows.GetFollowingIDs(viewerID)
	if err != nil {
		return nil, err
	}
	following := make(map[uint]bool, len(followingIDs))
	for _, id := range followingIDs {
		following[id] = true
	}

	annotated := make([]models.FeedPost, len(posts))
	for i, p := range posts {
		author := authors[p.AuthorID]
		annotated[i] = models.FeedPost{
			Post: p,
			Author: models.Author{
				UserCompact: author.ToCompact(),
				IsFollowing: following[p.AuthorID],
			},
		}
	}
	return annotated, nil
}

// AnnotatePost is the single-post variant used by the post handlers.
func (e *Engine) AnnotatePost(ctx context.Context, viewerID uint, post *models.Post) (*models.FeedPost, error) {
	annotated, err := e.AnnotatePosts(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &annotated[0], nil
}

func withoutID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
