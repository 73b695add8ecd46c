package domain

import (
	"time"
)

// LikeModel is the GORM model for the likes table.
// At most one like per (post, user).
type LikeModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	PostID    string    `gorm:"column:post_id;type:varchar(36);not null;uniqueIndex:uidx_likes_post_user,priority:1"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uidx_likes_post_user,priority:2;index:idx_likes_user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Post PostModel `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	User UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (LikeModel) TableName() string { return "likes" }

func (m *LikeModel) ToDomain() *Like {
	return &Like{ID: m.ID, PostID: m.PostID, UserID: m.UserID, CreatedAt: m.CreatedAt}
}

// Like is a user's like on a post.
type Like struct {
	ID        string
	PostID    string
	UserID    string
	CreatedAt time.Time
}

// LikeRequest is the body of POST and DELETE /likes.
type LikeRequest struct {
	PostID string `json:"post_id" binding:"required"`
}

// LikeResponse is a like as returned to clients.
type LikeResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) ToResponse() LikeResponse {
	return LikeResponse{ID: l.ID, PostID: l.PostID, UserID: l.UserID, CreatedAt: l.CreatedAt}
}

// CreateLikeResponse is the body of POST /likes.
type CreateLikeResponse struct {
	Success bool         `json:"success"`
	Like    LikeResponse `json:"like"`
}
