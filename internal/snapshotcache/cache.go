// Package snapshotcache mirrors the last applied poll snapshot into Redis
// so a restarted console can show the last good data while the scoring
// API is unreachable.
package snapshotcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss means no snapshot is stored under the key.
var ErrMiss = errors.New("snapshot not cached")

type Cache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func New(rdb *redis.Client, key string, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, key: key, ttl: ttl}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func (c *Cache) Save(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (c *Cache) Load(ctx context.Context, v any) error {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	return nil
}

// Check satisfies the health checker contract.
func (c *Cache) Check(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
