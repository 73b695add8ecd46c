package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
)

// GormLikeRepository implements LikeRepository using GORM.
type GormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository creates a new GORM-backed like repository.
func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	return &GormLikeRepository{db: db}
}

// Create inserts a like. The (post_id, user_id) unique index turns a
// second like into ErrAlreadyLiked.
func (r *GormLikeRepository) Create(ctx context.Context, like *domain.Like) error {
	if like.ID == "" {
		like.ID = uuid.New().String()
	}

	model := domain.LikeModel{
		ID:     like.ID,
		PostID: like.PostID,
		UserID: like.UserID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyLiked
		}
		return err
	}

	*like = *model.ToDomain()
	return nil
}

// Delete removes the like of userID on postID.
func (r *GormLikeRepository) Delete(ctx context.Context, postID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.LikeModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// LikedPostIDs returns a membership map over postIDs for userID.
func (r *GormLikeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.LikeModel{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

var _ LikeRepository = (*GormLikeRepository)(nil)
