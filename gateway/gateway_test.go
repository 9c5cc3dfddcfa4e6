package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/agent"
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/engine"
	"github.com/hupe1980/agentforge/graph"
	"github.com/hupe1980/agentforge/model"
)

// newTestGateway wires a gateway over a two-stage workflow: a streaming
// model node followed by a human-input gate.
func newTestGateway(t *testing.T, llm model.Model) *Gateway {
	t.Helper()

	respond := agent.NewModelNode("respond", llm, func(o *agent.ModelNodeOptions) {
		o.OutputKey = "draft"
	})
	clarify := agent.NewInputNode("clarify", func(o *agent.InputNodeOptions) {
		o.Prompt = agent.NewInstructionFromText("Anything to add?")
	})
	finish := agent.NewModelNode("finish", llm, func(o *agent.ModelNodeOptions) {
		o.AppendHistory = true
		o.Signal = core.SignalDone
	})

	wf, err := graph.New().
		AddNode(respond).
		AddNode(clarify).
		AddNode(finish).
		AddEdge("respond", "clarify").
		AddEdge("clarify", "finish").
		SetEntry("respond").
		Compile()
	require.NoError(t, err)

	return New(engine.New(wf))
}

func TestGatewayInvokeStreamsChunks(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("build an agent", "on it")
	gw := newTestGateway(t, llm)

	turn, err := gw.Invoke(context.Background(), Request{
		Message:        "build an agent",
		IsFirstMessage: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ThreadID())

	var text string
	var lastSeq int
	for chunk := range turn.Chunks() {
		assert.Greater(t, chunk.Seq, lastSeq)
		lastSeq = chunk.Seq
		if chunk.Kind == core.ChunkText {
			text += chunk.Text
		}
	}

	status, err := turn.Wait()
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuspended, status)
	assert.Equal(t, "on itAnything to add?", text)
}

func TestGatewayInvokeSyncBuffersResponse(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("build an agent", "on it")
	gw := newTestGateway(t, llm)

	result, err := gw.InvokeSync(context.Background(), Request{
		Message:        "build an agent",
		IsFirstMessage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuspended, result.Status)
	assert.Equal(t, "on itAnything to add?", result.Response)
	assert.NotEmpty(t, result.ThreadID)
}

func TestGatewayResumeRoundTrip(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	gw := newTestGateway(t, llm)
	ctx := context.Background()

	first, err := gw.InvokeSync(ctx, Request{Message: "build an agent", IsFirstMessage: true})
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuspended, first.Status)

	second, err := gw.InvokeSync(ctx, Request{
		ThreadID: first.ThreadID,
		Message:  "no additions",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, second.Status)
	assert.Equal(t, first.ThreadID, second.ThreadID)
}

func TestGatewayRejectsContinuationWithoutThreadID(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	gw := newTestGateway(t, llm)

	_, err := gw.Invoke(context.Background(), Request{Message: "hello"})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestGatewayRejectsEmptyMessage(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	gw := newTestGateway(t, llm)

	_, err := gw.Invoke(context.Background(), Request{IsFirstMessage: true})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestGatewayInvokeSyncSurfacesEngineError(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	gw := newTestGateway(t, llm)

	// Declared first message against an existing thread.
	first, err := gw.InvokeSync(context.Background(), Request{Message: "hi", IsFirstMessage: true})
	require.NoError(t, err)

	_, err = gw.InvokeSync(context.Background(), Request{
		ThreadID:       first.ThreadID,
		Message:        "hi again",
		IsFirstMessage: true,
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestGatewayCancelDropsChunksWithoutFailingTurn(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.AddResponse("build an agent", "a rather long streamed answer the consumer walks away from")
	gw := newTestGateway(t, llm)

	turn, err := gw.Invoke(context.Background(), Request{
		Message:        "build an agent",
		IsFirstMessage: true,
	})
	require.NoError(t, err)

	// Read one chunk, then abandon the stream.
	<-turn.Chunks()
	turn.Cancel()

	status, err := turn.Wait()
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuspended, status)

	// The turn persisted normally; the thread resumes as usual.
	result, err := gw.InvokeSync(context.Background(), Request{
		ThreadID: turn.ThreadID(),
		Message:  "no additions",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, result.Status)
}
