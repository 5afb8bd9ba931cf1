package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vibely-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const postCacheTTL = time.Hour

// CachedPostRepository is a cache-aside decorator over a PostRepository.
// Single-post reads go through Redis; every mutation invalidates the entry.
// Page queries are not cached: they are viewer-relative once annotated and
// the underlying set changes on every write.
type CachedPostRepository struct {
	client *redis.Client
	inner  PostRepository
}

func NewCachedPostRepository(client *redis.Client, inner PostRepository) *CachedPostRepository {
	return &CachedPostRepository{client: client, inner: inner}
}

func (r *CachedPostRepository) postKey(id string) string {
	return "post:" + id
}

func (r *CachedPostRepository) getCached(ctx context.Context, id string) (*models.Post, error) {
	raw, err := r.client.Get(ctx, r.postKey(id)).Result()
	if err != nil {
		return nil, ErrCacheMiss
	}
	var post models.Post
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		return nil, ErrCacheMiss
	}
	return &post, nil
}

func (r *CachedPostRepository) storeCached(ctx context.Context, post *models.Post) {
	raw, err := json.Marshal(post)
	if err != nil {
		return
	}
	r.client.Set(ctx, r.postKey(post.ID.Hex()), raw, postCacheTTL)
}

func (r *CachedPostRepository) invalidate(ctx context.Context, id string) {
	r.client.Del(ctx, r.postKey(id))
}

func (r *CachedPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.inner.CreatePost(ctx, post); err != nil {
		return err
	}
	r.storeCached(ctx, post)
	return nil
}

func (r *CachedPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if post, err := r.getCached(ctx, id); err == nil {
		return post, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	post, err := r.inner.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.storeCached(ctx, post)
	return post, nil
}

func (r *CachedPostRepository) FindPage(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error) {
	return r.inner.FindPage(ctx, filter, skip, limit)
}

func (r *CachedPostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	return r.inner.Count(ctx, filter)
}

func (r *CachedPostRepository) UpdatePost(ctx context.Context, id string, content string, media, hashtags []string) error {
	if err := r.inner.UpdatePost(ctx, id, content, media, hashtags); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedPostRepository) DeletePost(ctx context.Context, id string) error {
	if err := r.inner.DeletePost(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedPostRepository) AddLike(ctx context.Context, postID string, userID uint) error {
	if err := r.inner.AddLike(ctx, postID, userID); err != nil {
		return err
	}
	r.invalidate(ctx, postID)
	return nil
}

func (r *CachedPostRepository) RemoveLike(ctx context.Context, postID string, userID uint) error {
	if err := r.inner.RemoveLike(ctx, postID, userID); err != nil {
		return err
	}
	r.invalidate(ctx, postID)
	return nil
}

func (r *CachedPostRepository) AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	if err := r.inner.AppendComment(ctx, postID, commentID); err != nil {
		return err
	}
	r.invalidate(ctx, postID)
	return nil
}

func (r *CachedPostRepository) RemoveComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	if err := r.inner.RemoveComment(ctx, postID, commentID); err != nil {
		return err
	}
	r.invalidate(ctx, postID)
	return nil
}
