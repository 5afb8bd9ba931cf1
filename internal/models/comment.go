package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is owned by its post: it is deleted individually by its author or
// cascade-deleted together with the post.
type Comment struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PostID    primitive.ObjectID `json:"postId" bson:"post_id"`
	UserID    uint               `json:"userId" bson:"user_id"`
	Content   string             `json:"content" bson:"content"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// CommentView is a comment with its author populated.
type CommentView struct {
	Comment
	User UserCompact `json:"user"`
}

// CommentPage is the canonical shape of every paginated comment response.
type CommentPage struct {
	Comments    []CommentView `json:"comments"`
	CurrentPage int           `json:"currentPage"`
	HasMore     bool          `json:"hasMore"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
	Image   string `json:"image,omitempty" validate:"omitempty,url"`
}
