package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "retailpos:"

type RedisBarcodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBarcodeCache(addr string, password string, db int, ttl time.Duration) *RedisBarcodeCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisBarcodeCache{client: client, ttl: ttl}
}

func (c *RedisBarcodeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the underlying connection so the lock client can share it
func (c *RedisBarcodeCache) Client() *redis.Client {
	return c.client
}

func (c *RedisBarcodeCache) Close() error {
	return c.client.Close()
}

func (c *RedisBarcodeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisBarcodeCache) Set(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}
