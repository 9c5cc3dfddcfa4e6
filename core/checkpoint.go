package core

import (
	"context"
	"time"
)

// Checkpoint is the durable snapshot of a thread taken after every node
// completion. PendingNode is non-empty exactly when the thread is suspended
// awaiting human input; Seq increases by one per save so stores and tests
// can verify monotonicity.
type Checkpoint struct {
	ThreadID    string    `json:"thread_id"`
	State       State     `json:"state"`
	PendingNode string    `json:"pending_node,omitempty"`
	Seq         int       `json:"seq"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Suspended reports whether the checkpoint records a mid-turn suspension.
func (c *Checkpoint) Suspended() bool { return c.PendingNode != "" }

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	clone := *c
	clone.State = *c.State.Clone()
	return &clone
}

// CheckpointStore persists one checkpoint per thread id.
//
// Save replaces any prior checkpoint for the thread and must be atomic with
// respect to concurrent Loads of the same id: a Load never observes a
// partially written checkpoint, and a failed Save leaves the previous
// checkpoint intact. Load returns ErrNotFound for unknown threads.
// Implementations must be safe for concurrent use across thread ids.
type CheckpointStore interface {
	Load(ctx context.Context, threadID string) (*Checkpoint, error)
	Save(ctx context.Context, cp *Checkpoint) error
}
