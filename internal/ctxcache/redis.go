package ctxcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

const redisPrefix = "ctx:"

// RedisCache shares compressed context between server instances. Values are
// JSON and expire after the configured TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and checks the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (compress.Result, bool, error) {
	raw, err := c.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return compress.Result{}, false, nil
	}
	if err != nil {
		return compress.Result{}, false, fmt.Errorf("get cached context: %w", err)
	}
	var res compress.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return compress.Result{}, false, fmt.Errorf("decode cached context: %w", err)
	}
	return res, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, res compress.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	if err := c.client.Set(ctx, redisPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache context: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
