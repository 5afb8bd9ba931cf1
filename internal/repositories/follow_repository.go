package repositories

import (
	"errors"

	"github.com/vibely-app/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository is the social graph store. Follow and Unfollow must keep
// both sides of the edge (and the denormalized counts) consistent: either
// everything is written or nothing is.
type FollowRepository interface {
	IsFollowing(followerID, followingID uint) (bool, error)
	GetFollowingIDs(userID uint) ([]uint, error)
	GetFollowerIDs(userID uint) ([]uint, error)
	Follow(followerID, followingID uint) error
	Unfollow(followerID, followingID uint) error
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *PostgresFollowRepository) GetFollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

// Follow inserts the edge and bumps both denormalized counts in one
// transaction. The unique index on (follower_id, following_id) catches a
// concurrent duplicate that slips past the existence check.
func (r *PostgresFollowRepository) Follow(followerID, followingID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyFollowing
		}
		follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Create(follow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyFollowing
			}
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followingID).
			Update("followers_count", gorm.Expr("followers_count + 1")).Error
	})
}

// Unfollow deletes the edge and decrements both counts in one transaction.
func (r *PostgresFollowRepository) Unfollow(followerID, followingID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFollowing
		}
		if err := tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followingID).
			Update("followers_count", gorm.Expr("followers_count - 1")).Error
	})
}
