package core

import (
	"context"

	"github.com/hupe1980/agentforge/logging"
)

// Signal tells the engine what to do after a node completes. It replaces
// exception-style interrupts with an explicit tagged result.
type Signal int

const (
	// SignalContinue routes to the next node via the outgoing edges.
	SignalContinue Signal = iota
	// SignalAwaitInput suspends the turn until a human reply resumes it.
	SignalAwaitInput
	// SignalDone completes the turn.
	SignalDone
)

// String returns a readable name for the signal.
func (s Signal) String() string {
	switch s {
	case SignalContinue:
		return "continue"
	case SignalAwaitInput:
		return "await_input"
	case SignalDone:
		return "done"
	default:
		return "unknown"
	}
}

// NodeKind categorizes a node for the engine's retry policy.
type NodeKind int

const (
	// KindTransform marks a pure function of state. Transform errors are
	// never retried; they indicate caller or configuration problems.
	KindTransform NodeKind = iota
	// KindModelBacked marks a node that invokes an external model and may
	// fail transiently. The engine retries it under a bounded policy.
	KindModelBacked
)

// Outcome is the result a node returns from Execute. Delta carries scope
// field writes, History carries messages to append, and Signal directs the
// engine. A node performs no durable writes itself; the engine applies the
// outcome and checkpoints.
type Outcome struct {
	Delta   map[string]any
	History []Message
	Signal  Signal
}

// Node is a unit of work in a workflow graph.
//
// Implementations must be safe for concurrent Execute calls across threads;
// per-thread serialization is the engine's job. Execute reads the snapshot
// in the Execution, pushes chunks through it, and returns the delta to apply.
type Node interface {
	Name() string
	Kind() NodeKind
	Execute(ctx context.Context, exec *Execution) (Outcome, error)
}

// Emitter receives chunks as a node produces them. Implemented by
// stream.Session; kept as an interface here so nodes never depend on the
// delivery mechanics.
type Emitter interface {
	Publish(ctx context.Context, chunk Chunk) error
}

// Execution is the per-node execution scope handed to Node.Execute. It
// carries a read snapshot of the thread state, the chunk emitter for the
// in-flight turn, and the resolved human input when the node is re-entered
// after a suspension.
type Execution struct {
	ThreadID     string
	InvocationID string
	NodeName     string
	State        *State
	Stream       Emitter
	Logger       logging.Logger

	resumed     bool
	resumeInput string
}

// NewExecution builds the execution scope for a single node run. resume is
// nil unless the node is being re-entered with a human reply.
func NewExecution(
	threadID, invocationID, nodeName string,
	state *State,
	stream Emitter,
	logger logging.Logger,
	resume *string,
) *Execution {
	exec := &Execution{
		ThreadID:     threadID,
		InvocationID: invocationID,
		NodeName:     nodeName,
		State:        state,
		Stream:       stream,
		Logger:       logger,
	}
	if resume != nil {
		exec.resumed = true
		exec.resumeInput = *resume
	}
	return exec
}

// IsResume reports whether this execution re-enters a previously suspended
// node with an injected human reply.
func (e *Execution) IsResume() bool { return e.resumed }

// Input returns the input the node should act on: the injected human reply
// on the resume path, otherwise the thread's latest user message.
func (e *Execution) Input() string {
	if e.resumed {
		return e.resumeInput
	}
	return e.State.LatestUserMessage
}

// EmitText publishes a text fragment chunk authored by this node.
func (e *Execution) EmitText(ctx context.Context, text string) error {
	if e.Stream == nil {
		return nil
	}
	return e.Stream.Publish(ctx, NewTextChunk(e.NodeName, text))
}

// EmitEvent publishes a structured event chunk authored by this node.
func (e *Execution) EmitEvent(ctx context.Context, data map[string]any) error {
	if e.Stream == nil {
		return nil
	}
	return e.Stream.Publish(ctx, NewEventChunk(e.NodeName, data))
}
