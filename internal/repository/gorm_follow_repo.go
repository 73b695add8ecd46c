package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow creates a follow relationship. The unique index on
// (follower_id, following_id) backs up the caller's existence check.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	model := domain.FollowModel{
		ID:          uuid.New().String(),
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Unfollow removes a follow relationship between two users.
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

// IsFollowing checks if followerID follows followingID.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ FollowRepository = (*GormFollowRepository)(nil)
