// Package mongo keeps per-visitor session state in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "storefront"
)

// Config describes the session database.
type Config struct {
	URI      string
	Database string
	// SessionTTL is how long an untouched session document survives.
	SessionTTL time.Duration
	Timeout    time.Duration
}

// Open connects to MongoDB, checks the primary is reachable and prepares the
// session collection. Close the repository to disconnect.
func Open(ctx context.Context, cfg Config) (*SessionRepository, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetTimeout(timeout).
		SetRetryWrites(true)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	repo := NewSessionRepository(client.Database(cfg.Database), cfg.SessionTTL)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

// Close disconnects the underlying client.
func (r *SessionRepository) Close(ctx context.Context) error {
	return r.coll.Database().Client().Disconnect(ctx)
}
