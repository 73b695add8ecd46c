package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyuniciel/1208-sns-proj/internal/audit"
	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
)

// followService implements FollowService.
type followService struct {
	follows   repository.FollowRepository
	users     repository.UserRepository
	publisher pubsub.Publisher
}

// NewFollowService creates a new FollowService.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, publisher pubsub.Publisher) FollowService {
	return &followService{follows: follows, users: users, publisher: publisher}
}

// Follow creates a follow from followerID to followingID. Duplicates are
// checked before the insert and again by the unique index, since two
// concurrent requests can both pass the check.
func (s *followService) Follow(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	l := log.Ctx(ctx)

	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	if _, err := s.users.GetByID(ctx, followingID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	following, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return nil, fmt.Errorf("check follow: %w", err)
	}
	if following {
		return nil, ErrAlreadyFollowing
	}

	follow, err := s.follows.Follow(ctx, followerID, followingID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			l.Debug().Str(log.FieldFollowingID, followingID).Msg("follow lost insert race")
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}

	audit.Log(ctx, audit.ActionFollow, followerID, followingID, "user followed")
	publish(ctx, s.publisher, pubsub.EventFollowCreated, followingID, followerID, follow.ToResponse())
	return follow, nil
}

// Unfollow removes the follow from followerID to followingID.
func (s *followService) Unfollow(ctx context.Context, followerID, followingID string) error {
	if err := s.follows.Unfollow(ctx, followerID, followingID); err != nil {
		if errors.Is(err, repository.ErrFollowNotFound) {
			return ErrNotFollowing
		}
		return fmt.Errorf("delete follow: %w", err)
	}

	audit.Log(ctx, audit.ActionUnfollow, followerID, followingID, "user unfollowed")
	publish(ctx, s.publisher, pubsub.EventFollowDeleted, followingID, followerID, map[string]string{
		"follower_id":  followerID,
		"following_id": followingID,
	})
	return nil
}

var _ FollowService = (*followService)(nil)
