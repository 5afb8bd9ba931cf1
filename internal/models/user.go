package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is stored in PostgreSQL. Follower/following counts are denormalized
// and kept in sync by the follow repository's transaction.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	PasswordHash   string    `json:"-"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserCompact is the author projection embedded in posts and comments.
type UserCompact struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Author is a post author as seen by a particular viewer. IsFollowing is
// viewer-relative and computed per request, never persisted.
type Author struct {
	UserCompact
	IsFollowing bool `json:"isFollowing"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Username       string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio            string `json:"bio,omitempty" validate:"omitempty,max=200"`
	ProfilePicture string `json:"profilePicture,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}
