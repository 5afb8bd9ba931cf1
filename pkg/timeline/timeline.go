// Package timeline is the client-side merge layer: it accumulates server
// feed pages into an ordered, duplicate-free list and tracks the
// per-context pagination state (page, hasMore, loading flags).
package timeline

import (
	"context"
	"sync"

	"github.com/vibely-app/backend/internal/models"
)

// Fetcher loads one page of a feed context from the server.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (items []models.FeedPost, hasMore bool, err error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, page int) ([]models.FeedPost, bool, error)

func (f FetcherFunc) FetchPage(ctx context.Context, page int) ([]models.FeedPost, bool, error) {
	return f(ctx, page)
}

// Timeline holds the merged pages for one feed context (a feed mode, a
// search term, or a profile). Fetches in flight are tagged with a
// generation counter: Reset bumps it, and any result carrying a stale
// generation is discarded so it cannot clobber newer state.
type Timeline struct {
	mu          sync.Mutex
	fetch       Fetcher
	items       []models.FeedPost
	seen        map[string]bool
	page        int
	hasMore     bool
	loading     bool
	loadingMore bool
	generation  uint64
}

func New(fetch Fetcher) *Timeline {
	return &Timeline{
		fetch:   fetch,
		seen:    make(map[string]bool),
		hasMore: true,
	}
}

// Refresh loads page 1 and replaces the held list. A refresh invalidates
// every fetch already in flight.
func (t *Timeline) Refresh(ctx context.Context) error {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.loading = true
	t.loadingMore = false
	t.mu.Unlock()

	items, hasMore, err := t.fetch.FetchPage(ctx, 1)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		// A newer Reset/Refresh superseded this fetch.
		return nil
	}
	t.loading = false
	if err != nil {
		return err
	}
	t.items = nil
	t.seen = make(map[string]bool)
	t.appendLocked(items)
	t.page = 1
	t.hasMore = hasMore
	return nil
}

// LoadMore fetches the next page and appends it. It is a no-op when there
// is nothing more to load or another fetch for this context is in flight,
// so concurrent triggers cannot append the same page twice.
func (t *Timeline) LoadMore(ctx context.Context) error {
	t.mu.Lock()
	if !t.hasMore || t.loading || t.loadingMore {
		t.mu.Unlock()
		return nil
	}
	t.loadingMore = true
	gen := t.generation
	next := t.page + 1
	t.mu.Unlock()

	items, hasMore, err := t.fetch.FetchPage(ctx, next)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return nil
	}
	t.loadingMore = false
	if err != nil {
		return err
	}
	t.appendLocked(items)
	t.page = next
	t.hasMore = hasMore
	return nil
}

// Reset clears the state before switching mode or search term, so stale
// items from the previous context are never shown.
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.items = nil
	t.seen = make(map[string]bool)
	t.page = 0
	t.hasMore = true
	t.loading = false
	t.loadingMore = false
}

// ApplyPost replaces the held copy of a post after a mutation (like,
// unlike, comment) confirmed by the server.
func (t *Timeline) ApplyPost(updated models.FeedPost) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := updated.ID.Hex()
	for i := range t.items {
		if t.items[i].ID.Hex() == id {
			t.items[i] = updated
			return
		}
	}
}

// RemovePost drops a deleted post from the held list.
func (t *Timeline) RemovePost(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].ID.Hex() == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			delete(t.seen, id)
			return
		}
	}
}

func (t *Timeline) appendLocked(items []models.FeedPost) {
	for _, item := range items {
		id := item.ID.Hex()
		if t.seen[id] {
			continue
		}
		t.seen[id] = true
		t.items = append(t.items, item)
	}
}

// Items returns a copy of the merged list.
func (t *Timeline) Items() []models.FeedPost {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.FeedPost, len(t.items))
	copy(out, t.items)
	return out
}

func (t *Timeline) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasMore
}

func (t *Timeline) Page() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

func (t *Timeline) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading || t.loadingMore
}
