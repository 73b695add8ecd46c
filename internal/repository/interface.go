package repository

import (
	"context"
	"errors"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrPostNotFound     = errors.New("post not found")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrFollowNotFound   = errors.New("follow relationship not found")
	ErrAlreadyFollowing = errors.New("already following")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts user, assigning its id. A second user with the same
	// external id yields ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetStats(ctx context.Context, id string) (*domain.UserStats, error)
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	GetStats(ctx context.Context, id string) (*domain.PostStats, error)
	// List returns posts newest first, optionally restricted to one owner.
	List(ctx context.Context, ownerID string, limit, offset int) ([]domain.PostStats, error)
	// Delete removes the post; likes and comments go with it.
	Delete(ctx context.Context, id string) error
}

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	Create(ctx context.Context, like *domain.Like) error
	// Delete removes the like of userID on postID and reports whether a row
	// was removed.
	Delete(ctx context.Context, postID, userID string) (bool, error)
	// LikedPostIDs returns which of postIDs userID has liked.
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByPost returns comments oldest first together with the total count.
	ListByPost(ctx context.Context, postID string, limit, offset int) ([]domain.Comment, int64, error)
	Delete(ctx context.Context, id string) error
}

// FollowRepository defines persistence operations for follow relationships.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) (*domain.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}
