package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
)

// Counts are correlated subqueries so the views read the same on
// postgres, mysql and sqlite.
const (
	createPostStatsView = `CREATE VIEW post_stats AS
SELECT p.id AS post_id,
       p.user_id,
       p.image_url,
       p.image_key,
       p.caption,
       p.created_at,
       p.updated_at,
       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count
FROM posts p`

	createUserStatsView = `CREATE VIEW user_stats AS
SELECT u.id AS user_id,
       u.external_id,
       u.name,
       u.created_at,
       (SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id) AS posts_count,
       (SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id) AS followers_count,
       (SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count
FROM users u`
)

// Models lists every table owned by the feed.
func Models() []interface{} {
	return []interface{}{
		&domain.UserModel{},
		&domain.PostModel{},
		&domain.LikeModel{},
		&domain.CommentModel{},
		&domain.FollowModel{},
	}
}

// Migrate creates or updates the tables and recreates the derived views.
func Migrate(db *gorm.DB) error {
	// Views depend on the tables, so they are dropped before any column
	// change and rebuilt afterwards.
	for _, view := range []string{"post_stats", "user_stats"} {
		if err := db.Exec("DROP VIEW IF EXISTS " + view).Error; err != nil {
			return fmt.Errorf("failed to drop view %s: %w", view, err)
		}
	}

	if err := database.AutoMigrate(db, Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	for _, stmt := range []string{createPostStatsView, createUserStatsView} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create view: %w", err)
		}
	}
	return nil
}
