package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentforge/checkpoint"
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/graph"
	"github.com/hupe1980/agentforge/logging"
	"github.com/hupe1980/agentforge/observability"
)

// TurnStatus is the terminal outcome of a successful turn.
type TurnStatus int

const (
	// StatusCompleted means the workflow reached a terminal node. The thread
	// remains addressable for follow-up turns starting from the entry node.
	StatusCompleted TurnStatus = iota
	// StatusSuspended means a node requested human input. The next turn on
	// this thread resumes at the recorded pending node.
	StatusSuspended
)

// String returns a readable name for the status.
func (s TurnStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Options configures an Engine instance using the functional options pattern.
//
// All dependencies have in-memory or no-op defaults so a bare New(workflow)
// is immediately usable in tests and examples. Production deployments
// typically provide a durable checkpoint store, a real logger and OTel
// span/metrics implementations.
type Options struct {
	// Store persists one checkpoint per thread. Defaults to the in-memory
	// implementation if not provided.
	Store core.CheckpointStore

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// MaxAttempts bounds how often a model-backed node is tried per turn
	// (first attempt included). Transform nodes always run exactly once.
	MaxAttempts int

	// RetryBackoff is the base delay between attempts; the n-th retry waits
	// n times this value.
	RetryBackoff time.Duration

	// MaxIterations guards against routing cycles. A turn visiting more
	// nodes than this fails with a configuration fault.
	MaxIterations int

	// Spans traces turns and node executions. Defaults to NoopSpanManager.
	Spans observability.SpanManager

	// Metrics records turn, node, retry and checkpoint measurements.
	// Defaults to NoopMetrics.
	Metrics observability.MetricsRecorder

	// Hooks observe the turn lifecycle. Optional.
	Hooks []Hook
}

// Engine executes workflow turns against a compiled graph.
//
// Concurrency model: turns addressing the same thread id are serialized via
// a per-thread mutex, turns on distinct threads proceed in parallel. The
// engine is safe for concurrent use; a single instance serves all threads.
//
// Durability model: the engine checkpoints after every node completion. A
// turn that fails mid-way leaves the last completed node's checkpoint in
// place, so a caller can retry the whole turn without losing thread history.
type Engine struct {
	workflow *graph.Compiled
	store    core.CheckpointStore
	logger   logging.Logger
	opts     Options
	hooks    hookChain

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// New creates an Engine for the given compiled workflow.
//
// Example:
//
//	eng := engine.New(workflow,
//	    engine.WithStore(sqliteStore),
//	    engine.WithLogger(logger),
//	)
func New(workflow *graph.Compiled, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Store:         checkpoint.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
		MaxAttempts:   3,
		RetryBackoff:  250 * time.Millisecond,
		MaxIterations: 25,
		Spans:         observability.NoopSpanManager{},
		Metrics:       observability.NoopMetrics{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		workflow: workflow,
		store:    opts.Store,
		logger:   opts.Logger,
		opts:     opts,
		hooks:    hookChain(opts.Hooks),
		threads:  make(map[string]*sync.Mutex),
	}
}

// WithStore sets the checkpoint store.
func WithStore(store core.CheckpointStore) func(o *Options) {
	return func(o *Options) { o.Store = store }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithRetryPolicy tunes the bounded retry for model-backed nodes.
func WithRetryPolicy(maxAttempts int, backoff time.Duration) func(o *Options) {
	return func(o *Options) {
		o.MaxAttempts = maxAttempts
		o.RetryBackoff = backoff
	}
}

// WithObservability sets the span manager and metrics recorder.
func WithObservability(spans observability.SpanManager, metrics observability.MetricsRecorder) func(o *Options) {
	return func(o *Options) {
		o.Spans = spans
		o.Metrics = metrics
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks ...Hook) func(o *Options) {
	return func(o *Options) { o.Hooks = append(o.Hooks, hooks...) }
}

// threadLock returns the mutex serializing turns for threadID, creating it
// on first use. Mutexes are never evicted; one entry per thread id is cheap
// relative to the checkpoint the store already keeps for it.
func (e *Engine) threadLock(threadID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		e.threads[threadID] = lock
	}
	return lock
}

// RunTurn executes one workflow turn for a thread and publishes chunks to
// out as nodes produce them.
//
// A first turn (first=true) requires the thread to be unknown; a follow-up
// turn requires an existing checkpoint. Violations are rejected with
// core.ErrInvalidRequest before any state is touched. When the thread is
// suspended, message is injected as the human reply to the pending node;
// otherwise a fresh traversal starts at the entry node.
//
// RunTurn blocks until the turn reaches a terminal status or fails. Chunk
// delivery to an abandoned consumer is dropped, never blocks the turn.
func (e *Engine) RunTurn(
	ctx context.Context,
	threadID string,
	message string,
	first bool,
	out core.Emitter,
) (TurnStatus, error) {
	if threadID == "" {
		return 0, core.InvalidRequestf("thread id must not be empty")
	}
	if message == "" {
		return 0, core.InvalidRequestf("message must not be empty")
	}

	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	invocationID := core.NewID()
	started := time.Now()

	turnCtx, turnSpan := e.opts.Spans.StartTurnSpan(ctx, threadID, invocationID)
	status, err := e.runTurn(turnCtx, threadID, invocationID, message, first, out)
	e.opts.Spans.EndSpanWithError(turnSpan, err)

	label := "failed"
	if err == nil {
		label = status.String()
	}
	e.opts.Metrics.RecordTurn(ctx, label, time.Since(started))
	e.hooks.afterTurn(ctx, threadID, invocationID, label, err)

	if err != nil {
		e.logger.Error("turn failed",
			"thread_id", threadID, "invocation_id", invocationID, "error", err)
		return 0, err
	}
	e.logger.Info("turn finished",
		"thread_id", threadID, "invocation_id", invocationID,
		"status", label, "duration", time.Since(started))
	return status, nil
}

func (e *Engine) runTurn(
	ctx context.Context,
	threadID, invocationID, message string,
	first bool,
	out core.Emitter,
) (TurnStatus, error) {
	cp, err := e.loadCheckpoint(ctx, threadID)
	if err != nil {
		return 0, err
	}

	if first && cp != nil {
		return 0, core.InvalidRequestf("thread %q already exists", threadID)
	}
	if !first && cp == nil {
		return 0, core.InvalidRequestf("unknown thread %q", threadID)
	}

	var (
		state   *core.State
		current string
		resume  *string
		seq     int
	)
	switch {
	case cp == nil:
		state = core.NewState()
		current = e.workflow.Entry()
	case cp.Suspended():
		state = cp.State.Clone()
		current = cp.PendingNode
		resume = &message
		seq = cp.Seq
		if !e.workflow.HasNode(current) {
			return 0, &core.ConfigFaultError{Node: current, Reason: "pending node no longer in workflow"}
		}
	default:
		state = cp.State.Clone()
		current = e.workflow.Entry()
		seq = cp.Seq
	}
	seedTurn(state, message)

	e.hooks.beforeTurn(ctx, threadID, invocationID, resume != nil)

	for iterations := 0; ; iterations++ {
		if iterations >= e.opts.MaxIterations {
			return 0, &core.ConfigFaultError{Node: current, Reason: "iteration guard exceeded"}
		}

		node, ok := e.workflow.Node(current)
		if !ok {
			return 0, &core.ConfigFaultError{Node: current, Reason: "node not found"}
		}

		exec := core.NewExecution(threadID, invocationID, current, state, out, e.logger, resume)
		outcome, err := e.executeNode(ctx, node, exec)
		if err != nil {
			return 0, err
		}
		// The injected reply is consumed by the first node of the turn.
		resume = nil

		state.ApplyDelta(outcome.Delta)
		state.AppendHistory(outcome.History...)

		pending := ""
		if outcome.Signal == core.SignalAwaitInput {
			pending = current
		}
		seq++
		if err := e.saveCheckpoint(ctx, &core.Checkpoint{
			ThreadID:    threadID,
			State:       *state.Clone(),
			PendingNode: pending,
			Seq:         seq,
			UpdatedAt:   time.Now().UTC(),
		}, current); err != nil {
			return 0, err
		}

		switch outcome.Signal {
		case core.SignalAwaitInput:
			e.logger.Debug("turn suspended", "thread_id", threadID, "node", current)
			return StatusSuspended, nil
		case core.SignalDone:
			return StatusCompleted, nil
		}

		next, err := e.workflow.Next(current, state)
		if err != nil {
			return 0, err
		}
		if next == graph.End {
			return StatusCompleted, nil
		}
		current = next
	}
}

// seedTurn records the caller message as the turn's user input. When a prior
// attempt of this turn failed after a mid-turn checkpoint, that checkpoint
// already carries the message as the trailing history entry; appending it
// again would make the retried turn end in a different checkpoint than a
// clean run produces.
func seedTurn(state *core.State, message string) {
	if n := len(state.History); n > 0 {
		last := state.History[n-1]
		if last.Role == core.RoleUser && last.Content == message {
			state.LatestUserMessage = message
			return
		}
	}
	state.SeedUserMessage(message)
}

// executeNode runs a single node, retrying transient failures of
// model-backed nodes under the configured bounded policy. Transform node
// errors and non-transient failures surface immediately.
func (e *Engine) executeNode(ctx context.Context, node core.Node, exec *core.Execution) (core.Outcome, error) {
	attempts := 1
	if node.Kind() == core.KindModelBacked {
		attempts = e.opts.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		nodeCtx, span := e.opts.Spans.StartNodeSpan(ctx, node.Name())
		e.hooks.beforeNode(nodeCtx, exec.ThreadID, node.Name(), attempt)
		started := time.Now()

		outcome, err := node.Execute(nodeCtx, exec)

		e.opts.Metrics.RecordNodeExecution(nodeCtx, node.Name(), time.Since(started), err)
		e.opts.Spans.EndSpanWithError(span, err)
		e.hooks.afterNode(nodeCtx, exec.ThreadID, node.Name(), err)

		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if !core.IsTransient(err) || attempt == attempts {
			break
		}

		e.opts.Metrics.RecordRetry(ctx, node.Name())
		e.logger.Warn("retrying node",
			"thread_id", exec.ThreadID, "node", node.Name(),
			"attempt", attempt, "error", err)

		backoff := time.Duration(attempt) * e.opts.RetryBackoff
		select {
		case <-ctx.Done():
			return core.Outcome{}, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return core.Outcome{}, fmt.Errorf("node %q failed: %w", node.Name(), lastErr)
}

// loadCheckpoint returns nil (not an error) for an unknown thread.
func (e *Engine) loadCheckpoint(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	cp, err := e.store.Load(ctx, threadID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.PersistenceError{Op: "load", Err: err}
	}
	return cp, nil
}

func (e *Engine) saveCheckpoint(ctx context.Context, cp *core.Checkpoint, node string) error {
	if err := e.store.Save(ctx, cp); err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}
	if data, err := json.Marshal(cp); err == nil {
		e.opts.Metrics.RecordCheckpoint(ctx, node, int64(len(data)))
	}
	return nil
}

// Checkpoint returns the current checkpoint for a thread, primarily for
// debugging and introspection. Returns core.ErrNotFound for unknown threads.
func (e *Engine) Checkpoint(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	return e.store.Load(ctx, threadID)
}
