package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisInvalidator deletes cached read models with a single DEL.
type RedisInvalidator struct {
	client redis.UniversalClient
}

func NewRedisInvalidator(client redis.UniversalClient) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

// NewRedisClient builds a client from a redis:// URL, or from a plain address
// when url is empty.
func NewRedisClient(url, addr, password string) (*redis.Client, error) {
	if url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password}), nil
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: del %v: %w", keys, err)
	}
	return nil
}

func (r *RedisInvalidator) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Nop is used when no cache is configured.
type Nop struct{}

func (Nop) Invalidate(context.Context, ...string) error { return nil }
