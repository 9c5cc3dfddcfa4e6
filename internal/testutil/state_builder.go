package testutil

import (
	"github.com/hupe1980/agentforge/core"
)

// StateBuilder helps construct thread states with fluent chaining for tests.
// Example:
//
//	state := NewStateBuilder().UserMessage("hi").Scope("draft", "...").Build()
type StateBuilder struct {
	messages []string
	scope    map[string]any
	history  []core.Message
}

// NewStateBuilder creates a new builder for an empty thread state.
// Use chainable methods (UserMessage, Scope, History) then call Build.
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{scope: map[string]any{}}
}

// UserMessage seeds a user turn; the last one becomes the latest message (chainable).
func (b *StateBuilder) UserMessage(msg string) *StateBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Scope sets or overwrites a scope field on the resulting state (chainable).
func (b *StateBuilder) Scope(key string, val any) *StateBuilder {
	b.scope[key] = val
	return b
}

// History appends messages to the history verbatim (chainable).
func (b *StateBuilder) History(msgs ...core.Message) *StateBuilder {
	b.history = append(b.history, msgs...)
	return b
}

// Build returns a *core.State with the accumulated turns and scope fields.
func (b *StateBuilder) Build() *core.State {
	s := core.NewState()
	for _, msg := range b.messages {
		s.SeedUserMessage(msg)
	}
	s.AppendHistory(b.history...)
	for k, v := range b.scope {
		s.Scope[k] = v
	}
	return s
}
