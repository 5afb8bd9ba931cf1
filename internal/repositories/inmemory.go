package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vibely-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory implementations of the repositories. They back the test suite
// and mirror the storage-level guarantees of the real implementations:
// mutex-serialized conditional updates, stable created_at/id ordering, and
// all-or-nothing follow edges.

// MemoryUserRepository implements UserRepository in memory.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: make(map[uint]models.User)}
}

func (r *MemoryUserRepository) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetUserByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetUsersByIDs(ids []uint) (map[uint]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[uint]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (r *MemoryUserRepository) GetUserByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetUserByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) SearchUsers(query string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	users := []models.User{}
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), q) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// bumpCounts adjusts the denormalized counters together with the edge, so
// symmetry holds at every observation point.
func (r *MemoryUserRepository) bumpCounts(followerID, followingID uint, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[followerID]; ok {
		u.FollowingCount += delta
		r.users[followerID] = u
	}
	if u, ok := r.users[followingID]; ok {
		u.FollowersCount += delta
		r.users[followingID] = u
	}
}

// MemoryFollowRepository implements FollowRepository in memory. Both
// directions of an edge live under one mutex, the in-memory equivalent of
// the single-transaction rule.
type MemoryFollowRepository struct {
	mu        sync.RWMutex
	following map[uint]map[uint]bool // follower -> set of followed users
	followers map[uint]map[uint]bool // followed -> set of followers
	users     *MemoryUserRepository  // optional, for denormalized counts
}

func NewMemoryFollowRepository(users *MemoryUserRepository) *MemoryFollowRepository {
	return &MemoryFollowRepository{
		following: make(map[uint]map[uint]bool),
		followers: make(map[uint]map[uint]bool),
		users:     users,
	}
}

func (r *MemoryFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.following[followerID][followingID], nil
}

func (r *MemoryFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []uint{}
	for id := range r.following[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryFollowRepository) GetFollowerIDs(userID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []uint{}
	for id := range r.followers[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryFollowRepository) Follow(followerID, followingID uint) error {
	r.mu.Lock()
	if r.following[followerID][followingID] {
		r.mu.Unlock()
		return ErrAlreadyFollowing
	}
	if r.following[followerID] == nil {
		r.following[followerID] = make(map[uint]bool)
	}
	if r.followers[followingID] == nil {
		r.followers[followingID] = make(map[uint]bool)
	}
	r.following[followerID][followingID] = true
	r.followers[followingID][followerID] = true
	r.mu.Unlock()
	if r.users != nil {
		r.users.bumpCounts(followerID, followingID, 1)
	}
	return nil
}

func (r *MemoryFollowRepository) Unfollow(followerID, followingID uint) error {
	r.mu.Lock()
	if !r.following[followerID][followingID] {
		r.mu.Unlock()
		return ErrNotFollowing
	}
	delete(r.following[followerID], followingID)
	delete(r.followers[followingID], followerID)
	r.mu.Unlock()
	if r.users != nil {
		r.users.bumpCounts(followerID, followingID, -1)
	}
	return nil
}

// MemoryPostRepository implements PostRepository in memory.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
	users *MemoryUserRepository // resolves usernames for search filters
}

func NewMemoryPostRepository(users *MemoryUserRepository) *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[string]*models.Post), users: users}
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	if post.Media == nil {
		post.Media = []string{}
	}
	post.Likes = []uint{}
	post.Comments = []primitive.ObjectID{}
	clone := *post
	r.posts[post.ID.Hex()] = &clone
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f PostFilter) matches(p *models.Post) bool {
	switch {
	case f.AuthorID != 0:
		if p.AuthorID != f.AuthorID {
			return false
		}
	case f.AuthorIn != nil:
		if !containsID(f.AuthorIn, p.AuthorID) {
			return false
		}
	case f.AuthorNotIn != nil:
		if containsID(f.AuthorNotIn, p.AuthorID) {
			return false
		}
	}
	if f.Search != "" {
		contentHit := strings.Contains(strings.ToLower(p.Content), strings.ToLower(f.Search))
		if !contentHit && !containsID(f.SearchAuthorIDs, p.AuthorID) {
			return false
		}
	}
	return true
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *MemoryPostRepository) matching(filter PostFilter) []models.Post {
	matched := []models.Post{}
	for _, p := range r.posts {
		if filter.matches(p) {
			matched = append(matched, *p)
		}
	}
	// Same total order as the Mongo sort: created_at desc, id desc tiebreak.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return matched
}

func (r *MemoryPostRepository) FindPage(_ context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.matching(filter)
	start := int(skip)
	if start >= len(matched) {
		return []models.Post{}, nil
	}
	end := start + int(limit)
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *MemoryPostRepository) Count(_ context.Context, filter PostFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.matching(filter))), nil
}

func (r *MemoryPostRepository) UpdatePost(_ context.Context, id string, content string, media, hashtags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return ErrNotFound
	}
	if media == nil {
		media = []string{}
	}
	p.Content = content
	p.Media = media
	p.Hashtags = hashtags
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryPostRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryPostRepository) AddLike(_ context.Context, postID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return ErrNotFound
	}
	if containsID(p.Likes, userID) {
		return ErrAlreadyLiked
	}
	p.Likes = append(p.Likes, userID)
	return nil
}

func (r *MemoryPostRepository) RemoveLike(_ context.Context, postID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return ErrNotFound
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return nil
		}
	}
	return ErrNotLiked
}

func (r *MemoryPostRepository) AppendComment(_ context.Context, postID string, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return ErrNotFound
	}
	p.Comments = append(p.Comments, commentID)
	return nil
}

func (r *MemoryPostRepository) RemoveComment(_ context.Context, postID string, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return ErrNotFound
	}
	for i, id := range p.Comments {
		if id == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryCommentRepository implements CommentRepository in memory.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{comments: make(map[string]*models.Comment)}
}

func (r *MemoryCommentRepository) CreateComment(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	clone := *comment
	r.comments[comment.ID.Hex()] = &clone
	return nil
}

func (r *MemoryCommentRepository) GetCommentByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *MemoryCommentRepository) byPost(postID string) []models.Comment {
	matched := []models.Comment{}
	for _, c := range r.comments {
		if c.PostID.Hex() == postID {
			matched = append(matched, *c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return matched
}

func (r *MemoryCommentRepository) ListByPost(_ context.Context, postID string, skip, limit int64) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.byPost(postID)
	start := int(skip)
	if start >= len(matched) {
		return []models.Comment{}, nil
	}
	end := start + int(limit)
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *MemoryCommentRepository) CountByPost(_ context.Context, postID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byPost(postID))), nil
}

func (r *MemoryCommentRepository) DeleteComment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *MemoryCommentRepository) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, c := range r.comments {
		if c.PostID.Hex() == postID {
			delete(r.comments, id)
			deleted++
		}
	}
	return deleted, nil
}
