package models

import "time"

// Follow is one edge of the social graph. A single row represents both
// directions of the relationship, so edge insert/delete is atomic.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
