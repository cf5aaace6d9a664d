// Package redis keeps per-visitor session state in Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config describes the session Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	// SessionTTL is the sliding expiry of session keys.
	SessionTTL time.Duration
	Timeout    time.Duration
}

// Connect returns a client for cfg once it answers a PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "storefront",
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Open connects and returns the session store. Close the store to release
// the connection pool.
func Open(ctx context.Context, cfg Config) (*SessionStore, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSessionStore(client, cfg.SessionTTL), nil
}

// Close releases the underlying client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
