package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	ExternalID string    `gorm:"column:external_id;type:varchar(255);uniqueIndex;not null"`
	Name       string    `gorm:"type:varchar(100);not null;default:''"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Name:       u.Name,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// User is a feed member. ExternalID is the identity provider's subject.
type User struct {
	ID         string
	ExternalID string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserSummary is the author block embedded in posts and comments.
type UserSummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

// UserStats is a row of the user_stats view.
type UserStats struct {
	UserID         string    `gorm:"column:user_id"`
	ExternalID     string    `gorm:"column:external_id"`
	Name           string    `gorm:"column:name"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	PostsCount     int64     `gorm:"column:posts_count"`
	FollowersCount int64     `gorm:"column:followers_count"`
	FollowingCount int64     `gorm:"column:following_count"`
}

// TableName points reads at the view.
func (UserStats) TableName() string {
	return "user_stats"
}

// Profile is a user with counts, as seen by a viewer.
type Profile struct {
	Stats        UserStats
	IsOwnProfile bool
	// IsFollowing is nil when the viewer is anonymous or the owner.
	IsFollowing *bool
}

// ProfileResponse is the profile returned to clients. Every field is always
// present; is_following is null when it does not apply.
type ProfileResponse struct {
	ID             string    `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	PostsCount     int64     `json:"posts_count"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	IsOwnProfile   bool      `json:"is_own_profile"`
	IsFollowing    *bool     `json:"is_following"`
}

// ToResponse converts Profile to ProfileResponse.
func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:             p.Stats.UserID,
		ExternalID:     p.Stats.ExternalID,
		Name:           p.Stats.Name,
		CreatedAt:      p.Stats.CreatedAt,
		PostsCount:     p.Stats.PostsCount,
		FollowersCount: p.Stats.FollowersCount,
		FollowingCount: p.Stats.FollowingCount,
		IsOwnProfile:   p.IsOwnProfile,
		IsFollowing:    p.IsFollowing,
	}
}

// ProfileEnvelope is the body of GET /users/:id.
type ProfileEnvelope struct {
	Data  *ProfileResponse `json:"data"`
	Error *string          `json:"error"`
}
