package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// IdentityCache remembers which internal user id an external subject
// resolved to. The mapping never changes once created.
type IdentityCache interface {
	Get(ctx context.Context, externalID string) (string, error)
	Set(ctx context.Context, externalID, userID string, ttl time.Duration) error
	Close() error
}
