// Package checkpoint provides durable CheckpointStore implementations: a
// volatile in-memory store for tests and demos, a SQLite store for
// single-process deployments and a Redis store for multi-process ones.
package checkpoint

import (
	"context"
	"sync"

	"github.com/hupe1980/agentforge/core"
)

// InMemoryStore is a volatile CheckpointStore keeping checkpoints in a
// process-local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Checkpoints are cloned on both save and
// load so callers can never mutate stored state.
type InMemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*core.Checkpoint
}

// NewInMemoryStore constructs an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{checkpoints: make(map[string]*core.Checkpoint)}
}

// Load returns a clone of the checkpoint for threadID or core.ErrNotFound.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[threadID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cp.Clone(), nil
}

// Save stores a clone of cp, replacing any prior checkpoint for the thread.
func (s *InMemoryStore) Save(_ context.Context, cp *core.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[cp.ThreadID] = cp.Clone()
	return nil
}

// Delete removes the checkpoint for threadID. Retention is an external
// policy; the engine itself never calls this.
func (s *InMemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, threadID)
	return nil
}
