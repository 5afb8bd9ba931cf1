package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB. Likes has set
// semantics (membership enforced by guarded updates in the repository);
// Comments keeps comment ids in insertion order.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID  uint                 `json:"authorId" bson:"author_id"`
	Content   string               `json:"content" bson:"content"`
	Media     []string             `json:"media" bson:"media"`
	Likes     []uint               `json:"likes" bson:"likes"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	Hashtags  []string             `json:"hashtags" bson:"hashtags"`
	CreatedAt time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updated_at"`
}

// FeedPost is a post with its author populated for a particular viewer.
type FeedPost struct {
	Post
	Author Author `json:"author"`
}

// PostDetail is a FeedPost with the most recent comments populated. The
// outer Comments field shadows the raw id list of the embedded Post.
type PostDetail struct {
	FeedPost
	Comments []CommentView `json:"comments"`
}

// PostPage is the canonical shape of every paginated post response.
type PostPage struct {
	Posts       []FeedPost `json:"posts"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	HasMore     bool       `json:"hasMore"`
}

// CreatePostRequest defines the request body for creating a new post.
// Content and media are each optional but at least one must be non-empty;
// that cross-field rule is checked in the handler.
type CreatePostRequest struct {
	Content string   `json:"content" validate:"omitempty,max=2000"`
	Media   []string `json:"media,omitempty" validate:"omitempty,dive,url"`
}

// UpdatePostRequest replaces content and media wholesale.
type UpdatePostRequest struct {
	Content string   `json:"content" validate:"omitempty,max=2000"`
	Media   []string `json:"media,omitempty" validate:"omitempty,dive,url"`
}
