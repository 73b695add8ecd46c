package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
)

// likeService implements LikeService.
type likeService struct {
	likes     repository.LikeRepository
	posts     repository.PostRepository
	publisher pubsub.Publisher
}

// NewLikeService creates a new LikeService.
func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, publisher pubsub.Publisher) LikeService {
	return &likeService{likes: likes, posts: posts, publisher: publisher}
}

// Like records userID's like on postID.
func (s *likeService) Like(ctx context.Context, userID, postID string) (*domain.Like, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	like := &domain.Like{PostID: postID, UserID: userID}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return nil, ErrAlreadyLiked
		}
		return nil, fmt.Errorf("create like: %w", err)
	}

	publish(ctx, s.publisher, pubsub.EventLikeCreated, postID, userID, like.ToResponse())
	return like, nil
}

// Unlike removes userID's like on postID. Removing a like that does not
// exist succeeds.
func (s *likeService) Unlike(ctx context.Context, userID, postID string) error {
	removed, err := s.likes.Delete(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if removed {
		publish(ctx, s.publisher, pubsub.EventLikeDeleted, postID, userID, map[string]string{
			"post_id": postID,
			"user_id": userID,
		})
	}
	return nil
}

var _ LikeService = (*likeService)(nil)
