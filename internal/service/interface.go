package service

import (
	"context"
	"errors"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
)

var (
	ErrNoSubject        = errors.New("no subject")
	ErrUserNotFound     = errors.New("user not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("not the owner of this post")
	ErrImageRequired    = errors.New("image file is required")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrCaptionTooLong   = errors.New("caption too long")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentOwner  = errors.New("not the author of this comment")
	ErrEmptyComment     = errors.New("comment content is empty")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

// IdentityService maps external subjects to internal users.
type IdentityService interface {
	middleware.SubjectResolver
}

// PostService defines the business logic for posts.
type PostService interface {
	ListPosts(ctx context.Context, viewerID string, req domain.ListPostsRequest) (*domain.PostPage, error)
	CreatePost(ctx context.Context, ownerID, ownerExternalID string, in *domain.CreatePostInput) (*domain.PostFeedItem, error)
	// GetPost works for anonymous viewers; Liked is then false.
	GetPost(ctx context.Context, viewerID, postID string) (*domain.PostFeedItem, error)
	DeletePost(ctx context.Context, requesterID, postID string) error
	// Drain blocks until background object cleanups have finished.
	Drain()
}

// LikeService defines the business logic for likes.
type LikeService interface {
	Like(ctx context.Context, userID, postID string) (*domain.Like, error)
	Unlike(ctx context.Context, userID, postID string) error
}

// CommentService defines the business logic for comments.
type CommentService interface {
	ListComments(ctx context.Context, req domain.ListCommentsRequest) ([]domain.Comment, int64, error)
	CreateComment(ctx context.Context, userID string, req domain.CreateCommentRequest) (*domain.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
}

// FollowService defines the business logic for the follow graph.
type FollowService interface {
	Follow(ctx context.Context, followerID, followingID string) (*domain.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID string) error
}

// UserService defines the business logic for profiles.
type UserService interface {
	GetProfile(ctx context.Context, viewerID, userID string) (*domain.Profile, error)
}
