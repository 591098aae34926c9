package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when no entry exists for the user.
var ErrCacheMiss = errors.New("session cache miss")

// callTimeout bounds every cache call; the cache only exists to shave
// latency off directory reads, so a slow cache is worse than no cache.
const callTimeout = time.Second

// SessionCache is a disposable projection of user records keyed by user id.
// It is never authoritative: callers fall back to the user directory on any
// error, including ErrCacheMiss.
type SessionCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Set(ctx context.Context, user *domain.User, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(redisURL string) (SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &redisCache{client: redis.NewClient(opts)}, nil
}

// NewRedisCacheWithClient wraps an existing client. Used by tests to point
// the cache at miniredis.
func NewRedisCacheWithClient(client *redis.Client) SessionCache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// corrupt entry, treat as absent
		return nil, ErrCacheMiss
	}
	return &user, nil
}

func (c *redisCache) Set(ctx context.Context, user *domain.User, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, user.ID.String(), raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.client.Del(ctx, id.String()).Err()
}
