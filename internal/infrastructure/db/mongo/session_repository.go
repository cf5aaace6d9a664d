package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/storefront/internal/infrastructure/store"
)

const sessionCollection = "storefront_sessions"

// SessionRepository keeps one document per visitor session:
//
//	{_id: <session_id>, values: {<key>: <bytes>}, updated_at: <time>}
//
// A TTL index on updated_at removes sessions idle for longer than the TTL.
type SessionRepository struct {
	coll *mongo.Collection
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionRepository creates a SessionRepository on db.
func NewSessionRepository(db *mongo.Database, ttl time.Duration) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionCollection), ttl: ttl, now: time.Now}
}

// EnsureIndexes creates the idle-expiry index. Safe to call on every start.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("idle_expiry").SetExpireAfterSeconds(int32(r.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

// ForSession returns the store.Backend of one session.
func (r *SessionRepository) ForSession(sessionID string) store.Backend {
	return &sessionBackend{r: r, id: sessionID}
}

// Ping reports whether MongoDB is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

type sessionBackend struct {
	r  *SessionRepository
	id string
}

func (b *sessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var doc struct {
		Values map[string][]byte `bson:"values"`
	}
	opts := options.FindOne().SetProjection(bson.M{"values." + key: 1})
	err := b.r.coll.FindOne(ctx, bson.M{"_id": b.id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session value %s: %w", key, err)
	}
	v, ok := doc.Values[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (b *sessionBackend) Set(ctx context.Context, key string, value []byte) error {
	update := bson.M{"$set": bson.M{
		"values." + key: value,
		"updated_at":    b.r.now().UTC(),
	}}
	_, err := b.r.coll.UpdateOne(ctx, bson.M{"_id": b.id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set session value %s: %w", key, err)
	}
	return nil
}

func (b *sessionBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	unset := bson.M{}
	for _, k := range keys {
		unset["values."+k] = ""
	}
	update := bson.M{
		"$unset": unset,
		"$set":   bson.M{"updated_at": b.r.now().UTC()},
	}
	if _, err := b.r.coll.UpdateOne(ctx, bson.M{"_id": b.id}, update); err != nil {
		return fmt.Errorf("unset session values: %w", err)
	}
	return nil
}
