package domain

import (
	"time"
)

// FollowModel is the GORM model for the follows table.
type FollowModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:1"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:2;index:idx_follows_following"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Follower  UserModel `gorm:"foreignKey:FollowerID;references:ID;constraint:OnDelete:CASCADE"`
	Following UserModel `gorm:"foreignKey:FollowingID;references:ID;constraint:OnDelete:CASCADE"`
}

func (FollowModel) TableName() string { return "follows" }

func (m *FollowModel) ToDomain() *Follow {
	return &Follow{
		ID:          m.ID,
		FollowerID:  m.FollowerID,
		FollowingID: m.FollowingID,
		CreatedAt:   m.CreatedAt,
	}
}

// Follow is the domain representation of a follow relationship.
type Follow struct {
	ID          string
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// FollowRequest is the body of POST and DELETE /follows.
type FollowRequest struct {
	FollowingID string `json:"following_id" binding:"required"`
}

// FollowResponse is a follow as returned to clients.
type FollowResponse struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *Follow) ToResponse() FollowResponse {
	return FollowResponse{
		ID:          f.ID,
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		CreatedAt:   f.CreatedAt,
	}
}

// CreateFollowResponse is the body of POST /follows.
type CreateFollowResponse struct {
	Success bool           `json:"success"`
	Follow  FollowResponse `json:"follow"`
}
