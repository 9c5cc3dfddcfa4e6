// Package gateway is the invocation boundary: it accepts (thread id,
// message, first-message flag) requests, drives one workflow turn per call
// and hands results back either as a live chunk stream or as one buffered
// response string. An HTTP front end over the same operations lives in
// server.go.
package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/engine"
	"github.com/hupe1980/agentforge/logging"
	"github.com/hupe1980/agentforge/stream"
)

// Request is one invocation of the workflow on a thread.
type Request struct {
	// ThreadID addresses the conversation. Empty on a first message means
	// the gateway generates a fresh id, returned on the Turn.
	ThreadID string `json:"thread_id"`

	// Message is the user's input for this turn.
	Message string `json:"message"`

	// IsFirstMessage declares whether this starts a new thread. The engine
	// validates the declaration against checkpoint presence and rejects
	// mismatches without touching state.
	IsFirstMessage bool `json:"is_first_message"`

	// Config carries optional per-call settings. Unknown keys are ignored.
	Config map[string]any `json:"config,omitempty"`
}

// Options configures a Gateway.
type Options struct {
	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// ChunkBuffer sets the streaming session buffer per turn.
	ChunkBuffer int
}

// Gateway drives workflow turns on behalf of callers. Per-thread
// serialization and validation live in the engine; the gateway owns the
// streaming session lifecycle and the sync/async consumption modes.
type Gateway struct {
	engine *engine.Engine
	opts   Options
}

// New creates a Gateway around an engine.
func New(eng *engine.Engine, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		ChunkBuffer: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gateway{engine: eng, opts: opts}
}

// Turn is an in-flight invocation. Consume chunks from Chunks() while the
// turn runs, then call Wait() for the terminal status. Cancel() abandons
// chunk delivery without interrupting the node already in flight.
type Turn struct {
	threadID string
	session  *stream.Session
	done     chan struct{}

	status engine.TurnStatus
	err    error
}

// ThreadID returns the thread the turn ran on. For requests without a
// thread id this is the generated one.
func (t *Turn) ThreadID() string { return t.threadID }

// Chunks returns the live chunk stream for this turn. The channel closes
// when the turn reaches a terminal state.
func (t *Turn) Chunks() <-chan core.Chunk { return t.session.Chunks() }

// Wait blocks until the turn is terminal and returns its status and error.
func (t *Turn) Wait() (engine.TurnStatus, error) {
	<-t.done
	return t.status, t.err
}

// Cancel tells the turn its consumer has gone away. Further chunks are
// dropped; the turn itself runs to its next checkpoint and persists
// normally.
func (t *Turn) Cancel() { t.session.Abandon() }

// Invoke starts one workflow turn and returns immediately with a Turn for
// incremental consumption. This is the UI path: range over Chunks() for
// live rendering, then Wait() for the outcome.
func (g *Gateway) Invoke(ctx context.Context, req Request) (*Turn, error) {
	threadID := req.ThreadID
	if threadID == "" {
		if !req.IsFirstMessage {
			return nil, core.InvalidRequestf("thread id required for a continuation")
		}
		threadID = uuid.NewString()
	}
	if req.Message == "" {
		return nil, core.InvalidRequestf("message must not be empty")
	}

	session := stream.NewSession(func(o *stream.Options) {
		o.BufferSize = g.opts.ChunkBuffer
	})
	turn := &Turn{
		threadID: threadID,
		session:  session,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(turn.done)
		defer session.Close()
		turn.status, turn.err = g.engine.RunTurn(ctx, threadID, req.Message, req.IsFirstMessage, session)
	}()

	return turn, nil
}

// Result is the buffered outcome of a synchronous invocation.
type Result struct {
	ThreadID string
	Status   engine.TurnStatus
	// Response is the ordered concatenation of all text chunks the turn
	// produced, identical to what an incremental consumer would have seen.
	Response string
}

// InvokeSync runs one workflow turn to its terminal state and returns the
// buffered response. This is the API path for synchronous callers.
func (g *Gateway) InvokeSync(ctx context.Context, req Request) (*Result, error) {
	turn, err := g.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	response, collectErr := turn.session.Collect(ctx)
	status, runErr := turn.Wait()
	if runErr != nil {
		return nil, runErr
	}
	if collectErr != nil {
		return nil, collectErr
	}

	return &Result{
		ThreadID: turn.ThreadID(),
		Status:   status,
		Response: response,
	}, nil
}
