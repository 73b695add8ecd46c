package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
)

const postStatsColumns = "ps.post_id, ps.user_id, ps.image_url, ps.image_key, ps.caption, " +
	"ps.created_at, ps.updated_at, ps.likes_count, ps.comments_count, " +
	"u.external_id AS user_external_id, u.name AS user_name"

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create inserts a post, assigning its id.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	model := domain.PostToModel(post)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}

	post.CreatedAt = model.CreatedAt
	post.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves the base row of a post.
func (r *GormPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var model domain.PostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormPostRepository) statsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("post_stats AS ps").
		Select(postStatsColumns).
		Joins("JOIN users u ON u.id = ps.user_id")
}

// GetStats reads one post with its counts and author.
func (r *GormPostRepository) GetStats(ctx context.Context, id string) (*domain.PostStats, error) {
	var row domain.PostStats
	if err := r.statsQuery(ctx).Where("ps.post_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &row, nil
}

// List returns a page of posts, newest first. Ties on created_at are broken
// by id so consecutive pages never overlap.
func (r *GormPostRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]domain.PostStats, error) {
	q := r.statsQuery(ctx)
	if ownerID != "" {
		q = q.Where("ps.user_id = ?", ownerID)
	}

	rows := make([]domain.PostStats, 0, limit)
	err := q.
		Order("ps.created_at DESC").
		Order("ps.post_id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a post. Likes and comments are removed by the foreign key
// cascade.
func (r *GormPostRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.PostModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

var _ PostRepository = (*GormPostRepository)(nil)
