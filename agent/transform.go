package agent

import (
	"context"

	"github.com/hupe1980/agentforge/core"
)

// TransformFunc is the body of a transform node: a pure function of the
// execution scope. It must not block on external services; use a model node
// for anything that can fail transiently.
type TransformFunc func(ctx context.Context, exec *core.Execution) (core.Outcome, error)

// Transform is a node computing a state delta without external calls.
// Typical uses are routing decisions, counters and derived fields.
type Transform struct {
	name string
	fn   TransformFunc
}

// NewTransform creates a transform node. Panics on an empty name or nil fn;
// workflow assembly errors should fail fast at startup.
func NewTransform(name string, fn TransformFunc) *Transform {
	if name == "" {
		panic("agent: transform name must not be empty")
	}
	if fn == nil {
		panic("agent: transform fn must not be nil")
	}
	return &Transform{name: name, fn: fn}
}

// Name implements core.Node.
func (t *Transform) Name() string { return t.name }

// Kind implements core.Node.
func (t *Transform) Kind() core.NodeKind { return core.KindTransform }

// Execute implements core.Node.
func (t *Transform) Execute(ctx context.Context, exec *core.Execution) (core.Outcome, error) {
	return t.fn(ctx, exec)
}
