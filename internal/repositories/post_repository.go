package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/vibely-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostFilter selects a subset of posts. Exactly one of the author fields is
// set by the feed engine depending on the feed mode; Search combines a
// content match with an author-id match as a single OR predicate.
type PostFilter struct {
	AuthorID        uint   // byAuthor: exact author match
	AuthorIn        []uint // following: author must be in this set
	AuthorNotIn     []uint // explore: author must not be in this set
	Search          string // search: case-insensitive substring on content ...
	SearchAuthorIDs []uint // ... OR author id in this set (username matches)
}

// PostRepository defines the interface for post data operations. Like and
// unlike are guarded at the storage level so concurrent requests cannot
// produce duplicate likes or lost updates.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	FindPage(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	UpdatePost(ctx context.Context, id string, content string, media, hashtags []string) error
	DeletePost(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID string, userID uint) error
	RemoveLike(ctx context.Context, postID string, userID uint) error
	AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error
	RemoveComment(ctx context.Context, postID string, commentID primitive.ObjectID) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// postSort orders newest first with a descending id tiebreak so the total
// order is stable: without the tiebreak, skip/limit pagination can drop or
// duplicate items across page boundaries when timestamps collide.
var postSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (f PostFilter) toBSON() bson.M {
	query := bson.M{}
	switch {
	case f.AuthorID != 0:
		query["author_id"] = f.AuthorID
	case f.AuthorIn != nil:
		query["author_id"] = bson.M{"$in": f.AuthorIn}
	case f.AuthorNotIn != nil:
		query["author_id"] = bson.M{"$nin": f.AuthorNotIn}
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"content": pattern},
			bson.M{"author_id": bson.M{"$in": f.SearchAuthorIDs}},
		}
	}
	return query
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Media == nil {
		post.Media = []string{}
	}
	post.Likes = []uint{}
	post.Comments = []primitive.ObjectID{}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) FindPage(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(postSort)
	cursor, err := r.collection.Find(ctx, filter.toBSON(), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.toBSON())
}

// UpdatePost replaces content, media and hashtags wholesale.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, content string, media, hashtags []string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if media == nil {
		media = []string{}
	}
	update := bson.M{"$set": bson.M{
		"content":    content,
		"media":      media,
		"hashtags":   hashtags,
		"updated_at": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLike adds userID to the like set. The filter excludes posts already
// liked by this user, so the add is conditional at the storage level and a
// concurrent duplicate like resolves to ErrAlreadyLiked rather than a
// double entry.
func (r *MongoPostRepository) AddLike(ctx context.Context, postID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": userID}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		// Either the post is gone or the user already liked it.
		if _, err := r.GetPostByID(ctx, postID); err != nil {
			return err
		}
		return ErrAlreadyLiked
	}
	return nil
}

// RemoveLike is the inverse guard: only posts currently liked by the user
// match, so unliking twice yields ErrNotLiked.
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		if _, err := r.GetPostByID(ctx, postID); err != nil {
			return err
		}
		return ErrNotLiked
	}
	return nil
}

// AppendComment appends the comment id to the post's ordered reference list.
func (r *MongoPostRepository) AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{"comments": commentID}},
	)
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveComment removes the comment id from the post's reference list.
func (r *MongoPostRepository) RemoveComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"comments": commentID}},
	)
	if err != nil {
		return fmt.Errorf("remove comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
