package feedclient

import (
	"context"
	"errors"
	"sync"

	"github.com/hyuniciel/1208-sns-proj/pkg/log"
)

// ErrNotFollowable is returned by ToggleFollow on the viewer's own profile
// or when the viewer is anonymous.
var ErrNotFollowable = errors.New("profile cannot be followed by this viewer")

// ProfileAPI is the part of the API a Profile needs.
type ProfileAPI interface {
	GetProfile(ctx context.Context, userID string) (*ProfileView, error)
	Follow(ctx context.Context, userID string) (*FollowView, error)
	Unfollow(ctx context.Context, userID string) error
}

// Profile is the view-model of a profile header.
type Profile struct {
	api ProfileAPI

	mu   sync.Mutex
	view ProfileView
}

// LoadProfile fetches userID ("me" for the viewer).
func LoadProfile(ctx context.Context, api ProfileAPI, userID string) (*Profile, error) {
	view, err := api.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{api: api, view: *view}, nil
}

// View returns a copy of the loaded profile.
func (p *Profile) View() ProfileView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	if v.IsFollowing != nil {
		following := *v.IsFollowing
		v.IsFollowing = &following
	}
	return v
}

// ToggleFollow flips the follow state and follower count at once, then
// calls the API. On failure both go back.
func (p *Profile) ToggleFollow(ctx context.Context) error {
	p.mu.Lock()
	if p.view.IsOwnProfile || p.view.IsFollowing == nil {
		p.mu.Unlock()
		return ErrNotFollowable
	}
	prevFollowing := *p.view.IsFollowing
	prevCount := p.view.FollowersCount

	following := !prevFollowing
	p.view.IsFollowing = &following
	if following {
		p.view.FollowersCount++
	} else if p.view.FollowersCount > 0 {
		p.view.FollowersCount--
	}
	userID := p.view.ID
	p.mu.Unlock()

	var err error
	if following {
		_, err = p.api.Follow(ctx, userID)
	} else {
		err = p.api.Unfollow(ctx, userID)
	}
	if err == nil {
		return nil
	}

	l := log.Ctx(ctx)
	l.Warn().Err(err).Str(log.FieldFollowingID, userID).Bool("following", following).Msg("follow toggle failed, rolling back")

	p.mu.Lock()
	p.view.IsFollowing = &prevFollowing
	p.view.FollowersCount = prevCount
	p.mu.Unlock()
	return err
}
