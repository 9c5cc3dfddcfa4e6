package engine

import "context"

// Hook observes the turn lifecycle. Hooks run synchronously on the turn
// goroutine and must be fast; they cannot influence routing or durability.
// Use them for audit trails, custom metrics or debugging aids that do not
// belong in the engine itself.
//
// All methods are optional; embed NoopHook and override what you need.
type Hook interface {
	// BeforeTurn fires after validation, before the first node runs.
	// resumed is true when the turn re-enters a suspended node.
	BeforeTurn(ctx context.Context, threadID, invocationID string, resumed bool)

	// AfterTurn fires once per turn with the terminal status label
	// ("completed", "suspended" or "failed") and the error, if any.
	AfterTurn(ctx context.Context, threadID, invocationID, status string, err error)

	// BeforeNode fires before each node attempt, including retries.
	BeforeNode(ctx context.Context, threadID, nodeName string, attempt int)

	// AfterNode fires after each node attempt with its error, if any.
	AfterNode(ctx context.Context, threadID, nodeName string, err error)
}

// NoopHook implements Hook with empty methods, for embedding.
type NoopHook struct{}

// BeforeTurn does nothing.
func (NoopHook) BeforeTurn(context.Context, string, string, bool) {}

// AfterTurn does nothing.
func (NoopHook) AfterTurn(context.Context, string, string, string, error) {}

// BeforeNode does nothing.
func (NoopHook) BeforeNode(context.Context, string, string, int) {}

// AfterNode does nothing.
func (NoopHook) AfterNode(context.Context, string, string, error) {}

// hookChain fans one lifecycle event out to all registered hooks in
// registration order.
type hookChain []Hook

func (h hookChain) beforeTurn(ctx context.Context, threadID, invocationID string, resumed bool) {
	for _, hook := range h {
		hook.BeforeTurn(ctx, threadID, invocationID, resumed)
	}
}

func (h hookChain) afterTurn(ctx context.Context, threadID, invocationID, status string, err error) {
	for _, hook := range h {
		hook.AfterTurn(ctx, threadID, invocationID, status, err)
	}
}

func (h hookChain) beforeNode(ctx context.Context, threadID, nodeName string, attempt int) {
	for _, hook := range h {
		hook.BeforeNode(ctx, threadID, nodeName, attempt)
	}
}

func (h hookChain) afterNode(ctx context.Context, threadID, nodeName string, err error) {
	for _, hook := range h {
		hook.AfterNode(ctx, threadID, nodeName, err)
	}
}
