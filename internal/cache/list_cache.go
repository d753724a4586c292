package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const approvedListKey = "images:approved"

// ListCache holds the serialized approved-list response for a short TTL.
// Every mutation of the store invalidates it; callers fall back to the
// database on any cache error.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

func (c *ListCache) GetApproved(ctx context.Context, out any) error {
	payload, err := c.client.Get(ctx, approvedListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(payload, out)
}

func (c *ListCache) SetApproved(ctx context.Context, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, approvedListKey, payload, c.ttl).Err()
}

func (c *ListCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, approvedListKey).Err()
}
