package agent

import (
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from thread state, environment, etc.
type Provider interface {
	Instruction(s *core.State) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(s *core.State) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(s *core.State) (string, error) { return f(s) }

// Instruction represents either a static (optionally templated) instruction
// string or a dynamic provider. This mirrors a union of string | provider in
// a Go-idiomatic way.
//
// Static text supports Go template syntax over the thread state: scope
// fields by name, plus "latest_user_message". For example:
//
//	agent.NewInstructionFromText("Scope:\n{{.scope_document}}\n\nTask: {{.latest_user_message}}")
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(s *core.State) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider or rendering
// the template as needed.
func (i Instruction) Resolve(s *core.State) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(s)
	}
	return util.RenderTemplate(i.text, templateData(s))
}

// templateData flattens the state for template rendering. Scope fields are
// exposed by name; a scope field named "latest_user_message" would shadow
// the built-in and is considered a workflow authoring mistake.
func templateData(s *core.State) map[string]any {
	data := make(map[string]any, len(s.Scope)+1)
	for k, v := range s.Scope {
		data[k] = v
	}
	data["latest_user_message"] = s.LatestUserMessage
	return data
}
