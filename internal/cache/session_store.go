package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps operator login sessions in redis with a TTL. Losing
// redis logs everyone out, which is acceptable for a single-operator tool.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, "1", ttl).Err()
}

func (s *SessionStore) Check(ctx context.Context, sessionID string) error {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
