package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentforge/core"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// KeyPrefix is prepended to thread ids. Defaults to "checkpoint:".
	KeyPrefix string
	// TTL expires idle threads. Zero keeps checkpoints forever; the engine
	// never deletes them itself.
	TTL time.Duration
}

// RedisStore persists checkpoints to Redis, one JSON value per thread key.
// A single-key SET is atomic, so concurrent Loads of the same thread see
// either the previous or the new checkpoint in full. Suitable for
// multi-process deployments sharing one Redis.
type RedisStore struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisStore creates a store from a Redis URL
// (e.g. "redis://localhost:6379/0") and verifies connectivity.
func NewRedisStore(ctx context.Context, url string, optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, optFns...), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{KeyPrefix: "checkpoint:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, opts: opts}
}

func (s *RedisStore) key(threadID string) string { return s.opts.KeyPrefix + threadID }

// Load implements core.CheckpointStore.
func (s *RedisStore) Load(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err == redis.Nil {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	var cp core.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Save implements core.CheckpointStore.
func (s *RedisStore) Save(ctx context.Context, cp *core.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cp.ThreadID), data, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for threadID.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }
