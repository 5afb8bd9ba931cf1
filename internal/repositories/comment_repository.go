package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vibely-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, skip, limit int64) ([]models.Comment, error)
	CountByPost(ctx context.Context, postID string) (int64, error)
	DeleteComment(ctx context.Context, id string) error
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// commentSort mirrors postSort: newest first, id tiebreak for a stable order.
var commentSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var comment models.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *MongoCommentRepository) ListByPost(ctx context.Context, postID string, skip, limit int64) ([]models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrNotFound
	}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(commentSort)
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoCommentRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return 0, ErrNotFound
	}
	return r.collection.CountDocuments(ctx, bson.M{"post_id": objID})
}

func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id string) error {
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

// DeleteByPost removes every comment owned by the post. Called before the
// post itself is deleted so a failure here aborts the cascade with the post
// still intact.
func (r *MongoCommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return 0, ErrNotFound
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"post_id": objID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
