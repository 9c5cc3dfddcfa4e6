package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/internal/testutil"
)

func TestInstructionStaticText(t *testing.T) {
	instr := NewInstructionFromText("You are a helpful assistant.")
	assert.True(t, instr.IsStatic())

	text, err := instr.Resolve(core.NewState())
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant.", text)
}

func TestInstructionTemplateOverState(t *testing.T) {
	state := testutil.NewStateBuilder().
		UserMessage("build a scraper").
		Scope("scope_doc", "## Scope\nfetch pages").
		Build()

	instr := NewInstructionFromText("Scope:\n{{.scope_doc}}\n\nTask: {{.latest_user_message}}")
	text, err := instr.Resolve(state)
	require.NoError(t, err)
	assert.Equal(t, "Scope:\n## Scope\nfetch pages\n\nTask: build a scraper", text)
}

func TestInstructionTemplateMissingKeyDoesNotFail(t *testing.T) {
	instr := NewInstructionFromText("Draft: {{.draft}}")
	text, err := instr.Resolve(core.NewState())
	require.NoError(t, err)
	assert.Equal(t, "Draft: <no value>", text)
}

func TestInstructionTemplateSyntaxError(t *testing.T) {
	instr := NewInstructionFromText("broken {{.draft")
	_, err := instr.Resolve(core.NewState())
	assert.Error(t, err)
}

func TestInstructionFromFunc(t *testing.T) {
	instr := NewInstructionFromFunc(func(s *core.State) (string, error) {
		return "dynamic for " + s.LatestUserMessage, nil
	})
	assert.False(t, instr.IsStatic())

	state := testutil.NewStateBuilder().UserMessage("hi").Build()
	text, err := instr.Resolve(state)
	require.NoError(t, err)
	assert.Equal(t, "dynamic for hi", text)
}

func TestInstructionProviderError(t *testing.T) {
	wantErr := errors.New("lookup failed")
	instr := NewInstructionFromFunc(func(s *core.State) (string, error) {
		return "", wantErr
	})
	_, err := instr.Resolve(core.NewState())
	assert.ErrorIs(t, err, wantErr)
}
