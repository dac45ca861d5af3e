package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamejournal/internal/config"

	"github.com/go-redis/redis/v8"
)

// Cache is a thin JSON cache over redis. A nil *Cache is valid and
// behaves as a permanent miss, so callers never branch on whether
// redis is configured.
type Cache struct {
	client *redis.Client
}

func New(cfg config.Redis) (*Cache, error) {
	const op = "cache.New"

	if cfg.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Cache{client: client}, nil
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
