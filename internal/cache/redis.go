package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// Compile-time check: Redis implements Cache.
var _ Cache = (*Redis)(nil)

// RedisConfig holds connection parameters for a Redis cache.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// TTL bounds how long entries live. Zero means no expiry.
	TTL time.Duration
}

// Redis is a Redis-backed cache via rueidis.
type Redis struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis cache.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached value or ErrKeyNotFound.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Set stores value under key with the configured TTL.
func (c *Redis) Set(ctx context.Context, key string, value []byte) error {
	var cmd rueidis.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Del removes key.
func (c *Redis) Del(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (c *Redis) Close() {
	c.client.Close()
}
