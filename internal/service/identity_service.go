package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hyuniciel/1208-sns-proj/internal/audit"
	"github.com/hyuniciel/1208-sns-proj/internal/cache"
	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
)

// identityService implements IdentityService.
type identityService struct {
	repo  repository.UserRepository
	cache cache.IdentityCache
	ttl   time.Duration
	group singleflight.Group
}

// NewIdentityService creates an IdentityService. identityCache may be nil.
func NewIdentityService(repo repository.UserRepository, identityCache cache.IdentityCache, ttl time.Duration) IdentityService {
	return &identityService{
		repo:  repo,
		cache: identityCache,
		ttl:   ttl,
	}
}

// ResolveSubject returns the internal user id of subject, creating the user
// the first time the subject is seen.
func (s *identityService) ResolveSubject(ctx context.Context, subject middleware.Subject) (string, error) {
	l := log.Ctx(ctx)

	externalID := strings.TrimSpace(subject.ExternalID)
	if externalID == "" {
		return "", ErrNoSubject
	}

	if s.cache != nil {
		userID, err := s.cache.Get(ctx, externalID)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Str(log.FieldExternalID, externalID).Msg("identity cache read failed, falling back to db")
		}
	}

	// Concurrent first requests of one subject share a single lookup/insert,
	// so the shared call must not carry any one caller's cancellation.
	sharedCtx := log.Detach(ctx)
	v, err, _ := s.group.Do(externalID, func() (interface{}, error) {
		return s.findOrCreate(sharedCtx, externalID, subject.DisplayName)
	})
	if err != nil {
		return "", err
	}
	userID, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from singleflight")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, externalID, userID, s.ttl); err != nil {
			l.Warn().Err(err).Str(log.FieldExternalID, externalID).Msg("identity cache write failed")
		}
	}
	return userID, nil
}

func (s *identityService) findOrCreate(ctx context.Context, externalID, displayName string) (string, error) {
	user, err := s.repo.GetByExternalID(ctx, externalID)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = externalID
	}

	user = &domain.User{ExternalID: externalID, Name: name}
	if err := s.repo.Create(ctx, user); err != nil {
		// Another instance inserted the same subject first.
		if errors.Is(err, repository.ErrUserExists) {
			existing, getErr := s.repo.GetByExternalID(ctx, externalID)
			if getErr != nil {
				return "", fmt.Errorf("lookup user after conflict: %w", getErr)
			}
			return existing.ID, nil
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	audit.Log(ctx, audit.ActionUserCreated, user.ID, externalID, "user created on first sight")
	return user.ID, nil
}

var _ IdentityService = (*identityService)(nil)
