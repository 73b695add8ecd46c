package domain

import (
	"time"
)

const (
	// MaxCaptionLength is measured in characters after trimming.
	MaxCaptionLength = 2200

	// MaxImageSize is the upload cap for post images.
	MaxImageSize = 5 << 20

	DefaultPostLimit = 10
	MaxPostLimit     = 50
)

// AllowedImageTypes maps accepted MIME types to the object extension.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PostModel is the GORM model for the posts table.
type PostModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_posts_user_created,priority:1"`
	ImageURL  string    `gorm:"column:image_url;type:text;not null"`
	ImageKey  string    `gorm:"column:image_key;type:varchar(512);not null"`
	Caption   *string   `gorm:"column:caption;type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_created;index:idx_posts_user_created,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	User UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for PostModel.
func (PostModel) TableName() string {
	return "posts"
}

// ToDomain converts PostModel to domain Post.
func (m *PostModel) ToDomain() *Post {
	return &Post{
		ID:        m.ID,
		UserID:    m.UserID,
		ImageURL:  m.ImageURL,
		ImageKey:  m.ImageKey,
		Caption:   m.Caption,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// PostToModel converts domain Post to PostModel.
func PostToModel(p *Post) *PostModel {
	return &PostModel{
		ID:        p.ID,
		UserID:    p.UserID,
		ImageURL:  p.ImageURL,
		ImageKey:  p.ImageKey,
		Caption:   p.Caption,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Post is an image post. UserID never changes after creation.
type Post struct {
	ID        string
	UserID    string
	ImageURL  string
	ImageKey  string
	Caption   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostStats is a row of the post_stats view joined with the author.
type PostStats struct {
	PostID         string    `gorm:"column:post_id"`
	UserID         string    `gorm:"column:user_id"`
	ImageURL       string    `gorm:"column:image_url"`
	ImageKey       string    `gorm:"column:image_key"`
	Caption        *string   `gorm:"column:caption"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	LikesCount     int64     `gorm:"column:likes_count"`
	CommentsCount  int64     `gorm:"column:comments_count"`
	UserExternalID string    `gorm:"column:user_external_id"`
	UserName       string    `gorm:"column:user_name"`
}

// PostFeedItem is a post with counts and the viewer's like state.
type PostFeedItem struct {
	Stats PostStats
	Liked bool
}

// PostResponse is a post as returned to clients.
type PostResponse struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	ImageURL      string      `json:"image_url"`
	Caption       *string     `json:"caption"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	LikesCount    int64       `json:"likes_count"`
	CommentsCount int64       `json:"comments_count"`
	Liked         bool        `json:"liked"`
	User          UserSummary `json:"user"`
}

// ToResponse converts PostFeedItem to PostResponse.
func (p *PostFeedItem) ToResponse() PostResponse {
	return PostResponse{
		ID:            p.Stats.PostID,
		UserID:        p.Stats.UserID,
		ImageURL:      p.Stats.ImageURL,
		Caption:       p.Stats.Caption,
		CreatedAt:     p.Stats.CreatedAt,
		UpdatedAt:     p.Stats.UpdatedAt,
		LikesCount:    p.Stats.LikesCount,
		CommentsCount: p.Stats.CommentsCount,
		Liked:         p.Liked,
		User: UserSummary{
			ID:         p.Stats.UserID,
			ExternalID: p.Stats.UserExternalID,
			Name:       p.Stats.UserName,
		},
	}
}

// ListPostsRequest is the query of GET /posts. Zero values mean defaults.
type ListPostsRequest struct {
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	UserID string `form:"userId"`
}

// Normalize applies the default and the cap to Limit and clamps Offset.
func (r *ListPostsRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = DefaultPostLimit
	}
	if r.Limit > MaxPostLimit {
		r.Limit = MaxPostLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// PostPage is one page of the feed.
type PostPage struct {
	Items   []PostFeedItem
	Limit   int
	Offset  int
	HasMore bool
}

// ListPostsResponse is the body of GET /posts.
type ListPostsResponse struct {
	Data       []PostResponse `json:"data"`
	HasMore    bool           `json:"has_more"`
	NextOffset *int           `json:"next_offset,omitempty"`
}

// ToResponse converts PostPage to ListPostsResponse. next_offset is only
// set when another page may exist.
func (p *PostPage) ToResponse() ListPostsResponse {
	data := make([]PostResponse, 0, len(p.Items))
	for i := range p.Items {
		data = append(data, p.Items[i].ToResponse())
	}
	resp := ListPostsResponse{Data: data, HasMore: p.HasMore}
	if p.HasMore {
		next := p.Offset + len(p.Items)
		resp.NextOffset = &next
	}
	return resp
}

// CreatePostInput carries an upload that has already been read from the
// request.
type CreatePostInput struct {
	Image    []byte
	Filename string
	Caption  string
}

// CreatePostResponse is the body of POST /posts.
type CreatePostResponse struct {
	Success bool         `json:"success"`
	Post    PostResponse `json:"post"`
}

// GetPostResponse is the body of GET /posts/:id.
type GetPostResponse struct {
	Data  *PostResponse `json:"data"`
	Error *string       `json:"error"`
}
