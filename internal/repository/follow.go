package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow graph operations
type FollowRepository interface {
	// Follow returns false on a self-follow or an existing edge.
	Follow(ctx context.Context, followerID, followingID uint) (bool, error)
	// Unfollow returns false when there was no edge.
	Unfollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowerCount(ctx context.Context, userID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
}

// followRepository implements FollowRepository
type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == followingID {
		return false, nil
	}

	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "follow")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	r.log.LogWrite(ctx, "follow", "follower_id", followerID, "following_id", followingID)
	return true, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "unfollow")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	r.log.LogWrite(ctx, "unfollow", "follower_id", followerID, "following_id", followingID)
	return true, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) count(ctx context.Context, column string, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(column+" = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "following_id", userID)
}

func (r *followRepository) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id", userID)
}

// users joins follows on joinColumn and filters by matchColumn, newest edge first.
func (r *followRepository) users(ctx context.Context, joinColumn, matchColumn string, userID uint, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows."+joinColumn+" = users.id").
		Where("follows."+matchColumn+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(clampLimit(limit)).
		Offset(max(offset, 0)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.users(ctx, "follower_id", "following_id", userID, limit, offset)
}

func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.users(ctx, "following_id", "follower_id", userID, limit, offset)
}
