package feedclient

import "time"

// UserSummary is the author block embedded in posts and comments.
type UserSummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

// PostView is a post as served by the feed API.
type PostView struct {
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

// PostPage is one page of GET /posts.
type PostPage struct {
	Data       []PostView `json:"data"`
	HasMore    bool       `json:"has_more"`
	NextOffset *int       `json:"next_offset,omitempty"`
}

// LikeView is a stored like.
type LikeView struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is a comment with its author.
type CommentView struct {
	ID        string      `json:"id"`
	PostID    string      `json:"post_id"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      UserSummary `json:"user"`
}

// CommentPage is one page of GET /comments.
type CommentPage struct {
	Comments []CommentView `json:"comments"`
	Total    int64         `json:"total"`
}

// FollowView is a stored follow.
type FollowView struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileView is a user profile. IsFollowing is nil for anonymous viewers
// and for the owner.
type ProfileView struct {
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

// ListPostsParams selects a page of the feed. Zero values use server
// defaults.
type ListPostsParams struct {
	Limit  int
	Offset int
	UserID string
}
