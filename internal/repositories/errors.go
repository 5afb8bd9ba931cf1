package repositories

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyLiked     = errors.New("post already liked")
	ErrNotLiked         = errors.New("post not liked")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailTaken       = errors.New("email already registered")
	ErrCacheMiss        = errors.New("cache miss")
)
