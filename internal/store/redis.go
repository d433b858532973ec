// Package store keeps schema snapshots in Redis, for deployments where several replicas share them without a SQL
// database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stellar/graphql-stitcher/internal/data"
)

// DefaultSnapshotsKey is the HASH holding one field per backend.
const DefaultSnapshotsKey = "graphql-stitcher:schema_snapshots"

type redisSnapshot struct {
	Document  string    `json:"document"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// RedisStore implements data.SchemaSnapshotStore on top of a Redis HASH.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ data.SchemaSnapshotStore = (*RedisStore)(nil)

// NewRedisStore connects to the Redis server of a `redis://` or `rediss://` URL and checks it answers.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	store := &RedisStore{
		client: redis.NewClient(options),
		key:    DefaultSnapshotsKey,
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close() //nolint:errcheck // the ping error is the one reported
		return nil, err
	}
	return store, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

func (r *RedisStore) Upsert(ctx context.Context, backend string, document []byte, fetchedAt time.Time) error {
	value, err := json.Marshal(redisSnapshot{Document: string(document), FetchedAt: fetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("encoding schema snapshot of %s: %w", backend, err)
	}
	if err := r.client.HSet(ctx, r.key, backend, value).Err(); err != nil {
		return fmt.Errorf("storing schema snapshot of %s: %w", backend, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, backend string) (*data.SchemaSnapshot, error) {
	value, err := r.client.HGet(ctx, r.key, backend).Result()
	if errors.Is(err, redis.Nil) {
		return nil, data.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting schema snapshot of %s: %w", backend, err)
	}
	return decodeSnapshot(backend, value)
}

// GetAll returns every stored snapshot ordered by backend name.
func (r *RedisStore) GetAll(ctx context.Context) ([]data.SchemaSnapshot, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting schema snapshots: %w", err)
	}

	snapshots := make([]data.SchemaSnapshot, 0, len(values))
	for backend, value := range values {
		snapshot, err := decodeSnapshot(backend, value)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	slices.SortFunc(snapshots, func(a, b data.SchemaSnapshot) int {
		return strings.Compare(a.Backend, b.Backend)
	})
	return snapshots, nil
}

func decodeSnapshot(backend, value string) (*data.SchemaSnapshot, error) {
	var s redisSnapshot
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, fmt.Errorf("decoding schema snapshot of %s: %w", backend, err)
	}
	return &data.SchemaSnapshot{
		Backend:   backend,
		Document:  s.Document,
		FetchedAt: s.FetchedAt,
	}, nil
}
