// Package cache provides a tiny Redis client wrapper for preprocessed query
// buffers
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
)

// Cache wraps a Redis client for preprocessed buffer storage
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

func key(profile, query string) string {
	return fmt.Sprintf("bmt:%s:%s", profile, query)
}

// Put stores the preprocessed buffer for query under profile
func (c *Cache) Put(ctx context.Context, profile, query string, v buffer.Variant) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	data, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key(profile, query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store buffer for %s: %w", query, err)
	}
	return nil
}

// Get retrieves the preprocessed buffer for query. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, profile, query string) (v buffer.Variant, ok bool, err error) {
	if c.client == nil {
		return buffer.Variant{}, false, fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key(profile, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return buffer.Variant{}, false, nil // Key does not exist
	}
	if err != nil {
		return buffer.Variant{}, false, fmt.Errorf("failed to get buffer for %s: %w", query, err)
	}

	if err := v.UnmarshalBinary(data); err != nil {
		return buffer.Variant{}, false, fmt.Errorf("corrupt cached buffer for %s: %w", query, err)
	}
	return v, true, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
