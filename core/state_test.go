package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSeedUserMessage(t *testing.T) {
	s := NewState()
	s.SeedUserMessage("build an agent")

	assert.Equal(t, "build an agent", s.LatestUserMessage)
	require.Len(t, s.History, 1)
	assert.Equal(t, RoleUser, s.History[0].Role)
	assert.Equal(t, 1, s.UserTurns())

	s.SeedUserMessage("use the Brave API")
	assert.Equal(t, "use the Brave API", s.LatestUserMessage)
	assert.Equal(t, 2, s.UserTurns())
}

func TestStateApplyDeltaReplacesFields(t *testing.T) {
	s := NewState()
	s.ApplyDelta(map[string]any{"draft": "v1", "attempts": 1})
	s.ApplyDelta(map[string]any{"draft": "v2"})

	assert.Equal(t, "v2", s.StringField("draft"))
	v, ok := s.Field("attempts")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestStateApplyDeltaNilScope(t *testing.T) {
	s := &State{}
	s.ApplyDelta(map[string]any{"k": "v"})
	assert.Equal(t, "v", s.StringField("k"))
}

func TestStateStringFieldMissingOrWrongType(t *testing.T) {
	s := NewState()
	s.ApplyDelta(map[string]any{"n": 42})

	assert.Empty(t, s.StringField("n"))
	assert.Empty(t, s.StringField("missing"))
}

func TestStateCloneIsIndependent(t *testing.T) {
	s := NewState()
	s.SeedUserMessage("original")
	s.ApplyDelta(map[string]any{"draft": "v1"})

	clone := s.Clone()
	clone.SeedUserMessage("mutated")
	clone.ApplyDelta(map[string]any{"draft": "v2"})

	assert.Equal(t, "original", s.LatestUserMessage)
	assert.Equal(t, "v1", s.StringField("draft"))
	assert.Len(t, s.History, 1)
	assert.Len(t, clone.History, 2)
}

func TestCheckpointSuspended(t *testing.T) {
	cp := &Checkpoint{ThreadID: "t1"}
	assert.False(t, cp.Suspended())

	cp.PendingNode = "clarify"
	assert.True(t, cp.Suspended())
}

func TestCheckpointCloneIsIndependent(t *testing.T) {
	s := NewState()
	s.SeedUserMessage("hi")
	cp := &Checkpoint{ThreadID: "t1", State: *s, Seq: 1}

	clone := cp.Clone()
	clone.State.SeedUserMessage("more")
	clone.Seq = 9

	assert.Equal(t, 1, cp.Seq)
	assert.Len(t, cp.State.History, 1)
}
