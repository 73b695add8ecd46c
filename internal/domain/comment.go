package domain

import (
	"time"
)

const (
	DefaultCommentLimit = 20
	MaxCommentLimit     = 100
)

// CommentModel is the GORM model for the comments table.
type CommentModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	PostID    string    `gorm:"column:post_id;type:varchar(36);not null;index:idx_comments_post_created,priority:1"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_comments_post_created,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Post PostModel `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	User UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (CommentModel) TableName() string { return "comments" }

// ToDomain converts CommentModel to a Comment. The author is filled in only
// when the User association was loaded.
func (m *CommentModel) ToDomain() *Comment {
	c := &Comment{
		ID:        m.ID,
		PostID:    m.PostID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.User.ID != "" {
		c.Author = UserSummary{ID: m.User.ID, ExternalID: m.User.ExternalID, Name: m.User.Name}
	}
	return c
}

// Comment is a comment on a post joined with its author.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    UserSummary
}

// ListCommentsRequest is the query of GET /comments.
type ListCommentsRequest struct {
	PostID string `form:"post_id" binding:"required"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// Normalize applies the default and the cap to Limit and clamps Offset.
func (r *ListCommentsRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = DefaultCommentLimit
	}
	if r.Limit > MaxCommentLimit {
		r.Limit = MaxCommentLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// CreateCommentRequest is the body of POST /comments.
type CreateCommentRequest struct {
	PostID  string `json:"post_id" binding:"required"`
	Content string `json:"content"`
}

// DeleteCommentRequest is the body of DELETE /comments.
type DeleteCommentRequest struct {
	CommentID string `json:"comment_id" binding:"required"`
}

// CommentResponse is a comment as returned to clients.
type CommentResponse struct {
	ID        string      `json:"id"`
	PostID    string      `json:"post_id"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      UserSummary `json:"user"`
}

func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		User:      c.Author,
	}
}

// ListCommentsResponse is the body of GET /comments.
type ListCommentsResponse struct {
	Comments []CommentResponse `json:"comments"`
	Total    int64             `json:"total"`
}

// CreateCommentResponse is the body of POST /comments.
type CreateCommentResponse struct {
	Success bool            `json:"success"`
	Comment CommentResponse `json:"comment"`
}
