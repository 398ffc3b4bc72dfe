// Package cache keeps leaderboard snapshots in Redis so repeated reads do not
// re-aggregate every stored run.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dshills/psyche/internal/aggregate"
	"github.com/dshills/psyche/internal/schema"
)

// DefaultTTL is how long a snapshot lives.
const DefaultTTL = 60 * time.Second

const (
	leaderboardKey = "psyche:leaderboard"
	modelPrefix    = "psyche:model:"
)

// Leaderboard caches aggregate results. A nil *Leaderboard is a valid,
// always-missing cache.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache over client. A ttl <= 0 means DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Leaderboard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Leaderboard{client: client, ttl: ttl}
}

// Dial connects to the Redis server at addr and verifies it answers.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Leaderboard, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

// Close closes the Redis client.
func (c *Leaderboard) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns the cached leaderboard. ok is false on a miss.
func (c *Leaderboard) Get(ctx context.Context) (entries []aggregate.Entry, ok bool, err error) {
	ok, err = c.get(ctx, leaderboardKey, &entries)
	return entries, ok, err
}

// Set stores the leaderboard.
func (c *Leaderboard) Set(ctx context.Context, entries []aggregate.Entry) error {
	return c.set(ctx, leaderboardKey, entries)
}

// GetModel returns the cached summary profile of one model.
func (c *Leaderboard) GetModel(ctx context.Context, model string) (summary *schema.ModelProfile, ok bool, err error) {
	ok, err = c.get(ctx, modelPrefix+model, &summary)
	return summary, ok, err
}

// SetModel stores the summary profile of one model.
func (c *Leaderboard) SetModel(ctx context.Context, model string, summary *schema.ModelProfile) error {
	return c.set(ctx, modelPrefix+model, summary)
}

// Invalidate drops the leaderboard and the summary of model, which is called
// after a run of model is stored.
func (c *Leaderboard) Invalidate(ctx context.Context, model string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, leaderboardKey, modelPrefix+model).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

func (c *Leaderboard) get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Leaderboard) set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}
