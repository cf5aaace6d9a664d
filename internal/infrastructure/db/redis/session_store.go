package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/storefront/internal/infrastructure/store"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// SessionStore keeps visitor session state in Redis.
// Key format: storefront:session:<session_id>:<key>
// Every read and write slides the key's expiry forward by the TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// ForSession returns the store.Backend of one session.
func (s *SessionStore) ForSession(sessionID string) store.Backend {
	return &sessionBackend{s: s, id: sessionID}
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type sessionBackend struct {
	s  *SessionStore
	id string
}

func (b *sessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.s.client.GetEx(ctx, b.key(key), b.s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (b *sessionBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.s.client.Set(ctx, b.key(key), value, b.s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *sessionBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *sessionBackend) key(k string) string {
	return fmt.Sprintf("storefront:session:%s:%s", b.id, k)
}
