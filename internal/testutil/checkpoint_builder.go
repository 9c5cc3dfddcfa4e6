package testutil

import (
	"time"

	"github.com/hupe1980/agentforge/core"
)

// CheckpointBuilder helps construct checkpoints with fluent chaining for tests.
// Example:
//
//	cp := NewCheckpointBuilder("t1").Pending("clarify").Seq(3).Build()
type CheckpointBuilder struct {
	threadID string
	state    *core.State
	pending  string
	seq      int
}

// NewCheckpointBuilder creates a builder for a checkpoint of the given thread.
func NewCheckpointBuilder(threadID string) *CheckpointBuilder {
	return &CheckpointBuilder{threadID: threadID, state: core.NewState()}
}

// State sets the checkpointed state (chainable).
func (b *CheckpointBuilder) State(s *core.State) *CheckpointBuilder {
	b.state = s
	return b
}

// Pending marks the checkpoint as suspended at a node (chainable).
func (b *CheckpointBuilder) Pending(node string) *CheckpointBuilder {
	b.pending = node
	return b
}

// Seq sets the checkpoint sequence number (chainable).
func (b *CheckpointBuilder) Seq(seq int) *CheckpointBuilder {
	b.seq = seq
	return b
}

// Build returns the assembled *core.Checkpoint.
func (b *CheckpointBuilder) Build() *core.Checkpoint {
	return &core.Checkpoint{
		ThreadID:    b.threadID,
		State:       *b.state.Clone(),
		PendingNode: b.pending,
		Seq:         b.seq,
		UpdatedAt:   time.Now().UTC(),
	}
}
