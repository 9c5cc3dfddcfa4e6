package agentforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/config"
	"github.com/hupe1980/agentforge/engine"
	"github.com/hupe1980/agentforge/gateway"
	"github.com/hupe1980/agentforge/model"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.Model.Provider = "mock"
	cfg.Model.Primary = "test-model"
	return cfg
}

func TestNewModelResolvesProviderOnce(t *testing.T) {
	llm, err := NewModel(config.ModelConfig{Provider: "mock", Primary: "test-model"}, "")
	require.NoError(t, err)
	assert.Equal(t, "test-model", llm.Info().Name)
	assert.Equal(t, "mock", llm.Info().Provider)

	_, err = NewModel(config.ModelConfig{Provider: "gemini"}, "")
	assert.Error(t, err)
}

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()

	store, cleanup, err := NewStore(ctx, config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, cleanup())

	store, cleanup, err = NewStore(ctx, config.StoreConfig{
		Backend: "sqlite",
		Path:    t.TempDir() + "/cp.db",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, cleanup())

	_, _, err = NewStore(ctx, config.StoreConfig{Backend: "dynamo"})
	assert.Error(t, err)
}

func TestAgentForgeEndToEnd(t *testing.T) {
	forge, err := New(mockConfig())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := forge.InvokeSync(ctx, gateway.Request{
		Message:        "build me a weather agent",
		IsFirstMessage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuspended, first.Status)
	assert.NotEmpty(t, first.Response)

	cp, err := forge.Engine().Checkpoint(ctx, first.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, "clarify", cp.PendingNode)
}

func TestAgentForgeWorkflowOverride(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("hello", "hi there")

	wf, err := BuildWorkflow(llm, llm)
	require.NoError(t, err)

	forge, err := New(mockConfig(), func(o *Options) {
		o.Workflow = wf
		o.Primary = llm
	})
	require.NoError(t, err)

	turn, err := forge.Invoke(context.Background(), gateway.Request{
		Message:        "hello",
		IsFirstMessage: true,
	})
	require.NoError(t, err)
	for range turn.Chunks() {
	}
	status, err := turn.Wait()
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuspended, status)
}

func TestAgentForgeNilConfigUsesDefaults(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	forge, err := New(nil, func(o *Options) {
		o.Primary = llm
		o.Reasoner = llm
	})
	require.NoError(t, err)
	assert.NotNil(t, forge.Engine())
	assert.NotNil(t, forge.Server())
}
