package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisIdentityCache struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds the connection settings for the cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

func NewRedisIdentityCache(cfg RedisConfig, prefix string) (*RedisIdentityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisIdentityCacheWithClient(client, prefix), nil
}

func NewRedisIdentityCacheWithClient(client *redis.Client, prefix string) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, prefix: prefix}
}

func (c *RedisIdentityCache) key(externalID string) string {
	return fmt.Sprintf("%s:identity:%s", c.prefix, externalID)
}

func (c *RedisIdentityCache) Get(ctx context.Context, externalID string) (string, error) {
	userID, err := c.client.Get(ctx, c.key(externalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}
	return userID, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, externalID, userID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(externalID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}

var _ IdentityCache = (*RedisIdentityCache)(nil)
