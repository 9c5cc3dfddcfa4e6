package agentforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/checkpoint"
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/engine"
	"github.com/hupe1980/agentforge/model"
)

func TestBuildWorkflowCompiles(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	wf, err := BuildWorkflow(llm, llm)
	require.NoError(t, err)
	assert.Equal(t, "refine", wf.Entry())
	for _, name := range []string{"refine", "scope", "coder", "clarify", "route", "finish"} {
		assert.True(t, wf.HasNode(name), name)
	}
}

func TestWorkflowFullConversation(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("make the retries configurable", "coder")
	llm.AddResponse("looks good", "finish")

	wf, err := BuildWorkflow(llm, llm)
	require.NoError(t, err)

	store := checkpoint.NewInMemoryStore()
	eng := engine.New(wf, engine.WithStore(store))
	ctx := context.Background()

	// Turn 1: refine -> scope -> coder, then clarify suspends for feedback.
	status, err := eng.RunTurn(ctx, "t1", "build me a weather agent", true, nil)
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuspended, status)

	cp, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "clarify", cp.PendingNode)
	assert.NotEmpty(t, cp.State.StringField("refined_prompt"))
	assert.NotEmpty(t, cp.State.StringField("scope_doc"))
	assert.NotEmpty(t, cp.State.StringField("draft"))

	// Turn 2: the reply routes back into coder, then clarify suspends again.
	status, err = eng.RunTurn(ctx, "t1", "make the retries configurable", false, nil)
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuspended, status)

	cp, err = store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "clarify", cp.PendingNode)
	assert.Equal(t, "coder", cp.State.StringField("next_action"))

	// Turn 3: the reply routes to finish and the thread completes.
	status, err = eng.RunTurn(ctx, "t1", "looks good", false, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, status)

	cp, err = store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, cp.PendingNode)
	assert.Equal(t, "finish", cp.State.StringField("next_action"))
	assert.Equal(t, 3, cp.State.UserTurns())
}

func TestWantsCoder(t *testing.T) {
	tests := []struct {
		decision string
		want     bool
	}{
		{"coder", true},
		{"Coder", true},
		{" coder.\n", true},
		{`"coder" because changes were requested`, true},
		{"finish", false},
		{"done", false},
		{"", false},
	}
	for _, tt := range tests {
		s := core.NewState()
		s.Scope["next_action"] = tt.decision
		assert.Equal(t, tt.want, wantsCoder(s), "decision %q", tt.decision)
	}
}
