package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis backs the cache with a shared Redis instance so multiple processes
// see the same memoized responses. TTL enforcement is delegated to Redis.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, "quote:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Redis) Set(ctx context.Context, key string, data []byte) {
	_ = c.rdb.Set(ctx, "quote:"+key, data, c.ttl).Err()
}
