package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Service backed by a shared Redis client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis builds a Redis cache from a redis:// URL.
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt)}, nil
}

// NewRedisFromClient wraps an existing client, e.g. the one the health
// check shares.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key.String(), value, ttl).Err()
}

// Ping reports Redis connectivity for deep health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
