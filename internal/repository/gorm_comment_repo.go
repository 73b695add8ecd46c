package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
)

// GormCommentRepository implements CommentRepository using GORM.
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GORM-backed comment repository.
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create inserts a comment and loads its author.
func (r *GormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}

	model := domain.CommentModel{
		ID:      comment.ID,
		PostID:  comment.PostID,
		UserID:  comment.UserID,
		Content: comment.Content,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		return err
	}

	created, err := r.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = *created
	return nil
}

// GetByID retrieves a comment with its author.
func (r *GormCommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var model domain.CommentModel
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByPost returns a page of a post's comments, oldest first.
func (r *GormCommentRepository) ListByPost(ctx context.Context, postID string, limit, offset int) ([]domain.Comment, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&domain.CommentModel{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var models []domain.CommentModel
	err = r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	comments := make([]domain.Comment, 0, len(models))
	for i := range models {
		comments = append(comments, *models[i].ToDomain())
	}
	return comments, total, nil
}

// Delete removes a comment.
func (r *GormCommentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.CommentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

var _ CommentRepository = (*GormCommentRepository)(nil)
