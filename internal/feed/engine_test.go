package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
)

type fixture struct {
	users   *repositories.MemoryUserRepository
	follows *repositories.MemoryFollowRepository
	posts   *repositories.MemoryPostRepository
	engine  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := repositories.NewMemoryUserRepository()
	follows := repositories.NewMemoryFollowRepository(users)
	posts := repositories.NewMemoryPostRepository(users)
	return &fixture{
		users:   users,
		follows: follows,
		posts:   posts,
		engine:  NewEngine(posts, users, follows),
	}
}

func (f *fixture) addUser(t *testing.T, username string) uint {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, f.users.CreateUser(u))
	return u.ID
}

func (f *fixture) addPost(t *testing.T, authorID uint, content string, createdAt time.Time) models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: content, CreatedAt: createdAt}
	require.NoError(t, f.posts.CreatePost(context.Background(), p))
	return *p
}

func postContents(page *models.PostPage) []string {
	out := make([]string, len(page.Posts))
	for i, p := range page.Posts {
		out[i] = p.Content
	}
	return out
}

func TestFollowingAndExploreScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	b := f.addUser(t, "bob")
	c := f.addUser(t, "carol")
	d := f.addUser(t, "dave")

	require.NoError(t, f.follows.Follow(viewer, b))
	require.NoError(t, f.follows.Follow(viewer, c))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.addPost(t, b, "post by bob", base.Add(1*time.Minute))
	f.addPost(t, c, "post by carol", base.Add(2*time.Minute))
	f.addPost(t, d, "post by dave", base.Add(3*time.Minute))

	following, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"post by carol", "post by bob"}, postContents(following))
	assert.False(t, following.HasMore)
	assert.Equal(t, 1, following.TotalPages)

	explore, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeExplore, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"post by dave"}, postContents(explore))
}

func TestFeedsPartitionOtherUsersPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	authors := make([]uint, 5)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range authors {
		authors[i] = f.addUser(t, string(rune('a'+i))+"-author")
		f.addPost(t, authors[i], "from author", base.Add(time.Duration(i)*time.Minute))
	}
	// Viewer's own posts belong to neither feed.
	f.addPost(t, viewer, "own post", base.Add(time.Hour))

	require.NoError(t, f.follows.Follow(viewer, authors[0]))
	require.NoError(t, f.follows.Follow(viewer, authors[3]))

	following, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 1, PageSize: 50})
	require.NoError(t, err)
	explore, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeExplore, Page: 1, PageSize: 50})
	require.NoError(t, err)

	ids := make(map[string]int)
	for _, p := range following.Posts {
		assert.NotEqual(t, viewer, p.AuthorID)
		ids[p.ID.Hex()]++
	}
	for _, p := range explore.Posts {
		assert.NotEqual(t, viewer, p.AuthorID)
		ids[p.ID.Hex()]++
	}
	// No overlap, and together they cover all 5 posts by other users.
	assert.Len(t, ids, 5)
	for id, n := range ids {
		assert.Equal(t, 1, n, "post %s appeared in both feeds", id)
	}
}

func TestPaginationIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	author := f.addUser(t, "author")
	require.NoError(t, f.follows.Follow(viewer, author))

	// Identical timestamps force the id tiebreak to carry the ordering.
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		f.addPost(t, author, "post", ts)
	}

	var paged []string
	for page := 1; page <= 4; page++ {
		res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: page})
		require.NoError(t, err)
		for _, p := range res.Posts {
			paged = append(paged, p.ID.Hex())
		}
		assert.Equal(t, page != 4, res.HasMore)
	}

	whole, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 1, PageSize: 24})
	require.NoError(t, err)
	var all []string
	for _, p := range whole.Posts {
		all = append(all, p.ID.Hex())
	}

	assert.Equal(t, all, paged)
	assert.Len(t, paged, 20)
}

func TestPageCoercionAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	author := f.addUser(t, "author")
	require.NoError(t, f.follows.Follow(viewer, author))

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		f.addPost(t, author, "post", base.Add(time.Duration(i)*time.Second))
	}

	res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Len(t, res.Posts, 6)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasMore)

	last, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Posts, 1)
	assert.False(t, last.HasMore)
}

func TestUnknownModeIsRejected(t *testing.T) {
	f := newFixture(t)
	viewer := f.addUser(t, "viewer")

	_, err := f.engine.FeedPage(context.Background(), viewer, Query{Mode: "trending", Page: 1})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = f.engine.FeedPage(context.Background(), viewer, Query{Page: 1})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestByAuthorOverridesMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	author := f.addUser(t, "author")
	// Not followed: the author's posts would land in explore, but an
	// explicit author id must return them regardless of mode.
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.addPost(t, author, "profile post", base)

	res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 1, AuthorID: author})
	require.NoError(t, err)
	assert.Equal(t, []string{"profile post"}, postContents(res))
}

func TestSearchMatchesContentOrUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	gardener := f.addUser(t, "gardenlover")
	other := f.addUser(t, "other")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.addPost(t, other, "My GARDEN is blooming", base.Add(1*time.Minute))
	f.addPost(t, gardener, "unrelated content", base.Add(2*time.Minute))
	f.addPost(t, other, "nothing relevant", base.Add(3*time.Minute))

	res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeSearch, Page: 1, Search: "garden"})
	require.NoError(t, err)

	// Union of the content match and the username match, sorted as one
	// list newest first.
	assert.Equal(t, []string{"unrelated content", "My GARDEN is blooming"}, postContents(res))
}

func TestFollowingFeedEmptyWhenNobodyFollowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	author := f.addUser(t, "author")
	f.addPost(t, author, "post", time.Now())

	res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeFollowing, Page: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.False(t, res.HasMore)
	assert.Equal(t, 0, res.TotalPages)
}

func TestAuthorAnnotationIsViewerRelative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.addUser(t, "viewer")
	followed := f.addUser(t, "followed")
	stranger := f.addUser(t, "stranger")
	require.NoError(t, f.follows.Follow(viewer, followed))

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.addPost(t, followed, "followed post", base.Add(time.Minute))
	f.addPost(t, stranger, "stranger post", base)

	res, err := f.engine.FeedPage(ctx, viewer, Query{Mode: ModeSearch, Page: 1, Search: "post"})
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)

	byAuthor := map[string]bool{}
	for _, p := range res.Posts {
		byAuthor[p.Author.Username] = p.Author.IsFollowing
	}
	assert.True(t, byAuthor["followed"])
	assert.False(t, byAuthor["stranger"])

	// The annotation reflects the current relation, not a cached value.
	require.NoError(t, f.follows.Unfollow(viewer, followed))
	res, err = f.engine.FeedPage(ctx, viewer, Query{Mode: ModeSearch, Page: 1, Search: "post"})
	require.NoError(t, err)
	for _, p := range res.Posts {
		assert.False(t, p.Author.IsFollowing)
	}
}
