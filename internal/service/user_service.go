package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
)

// userService implements UserService.
type userService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository) UserService {
	return &userService{users: users, follows: follows}
}

// GetProfile returns userID's profile with counts and, for a signed-in
// viewer other than the owner, whether the viewer follows them.
func (s *userService) GetProfile(ctx context.Context, viewerID, userID string) (*domain.Profile, error) {
	stats, err := s.users.GetStats(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user stats: %w", err)
	}

	profile := &domain.Profile{
		Stats:        *stats,
		IsOwnProfile: viewerID != "" && viewerID == userID,
	}
	if viewerID != "" && !profile.IsOwnProfile {
		following, err := s.follows.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
		profile.IsFollowing = &following
	}
	return profile, nil
}

var _ UserService = (*userService)(nil)
