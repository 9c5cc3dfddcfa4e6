package agent

import (
	"context"

	"github.com/hupe1980/agentforge/core"
)

// InputNodeOptions configures an InputNode instance.
type InputNodeOptions struct {
	// Prompt is shown to the human when the node suspends the turn. It is
	// resolved against the thread state like any instruction.
	Prompt Instruction

	// OutputKey names the scope field the human reply is written to on
	// resumption. Empty means the reply only lands in the history, which
	// the engine does on every turn regardless.
	OutputKey string
}

// InputNode suspends the turn to collect a human reply.
//
// On first entry it emits its prompt and signals the engine to suspend; the
// engine records this node as pending in the checkpoint. When a follow-up
// turn resumes the thread, the engine re-enters this node with the reply
// injected and the node passes control onward.
type InputNode struct {
	name string
	opts InputNodeOptions
}

// NewInputNode creates a human-input node.
func NewInputNode(name string, optFns ...func(o *InputNodeOptions)) *InputNode {
	if name == "" {
		panic("agent: input node name must not be empty")
	}
	opts := InputNodeOptions{
		Prompt: NewInstructionFromText("Additional input required."),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InputNode{name: name, opts: opts}
}

// Name implements core.Node.
func (n *InputNode) Name() string { return n.name }

// Kind implements core.Node.
func (n *InputNode) Kind() core.NodeKind { return core.KindTransform }

// Execute implements core.Node.
func (n *InputNode) Execute(ctx context.Context, exec *core.Execution) (core.Outcome, error) {
	if exec.IsResume() {
		outcome := core.Outcome{Signal: core.SignalContinue}
		if n.opts.OutputKey != "" {
			outcome.Delta = map[string]any{n.opts.OutputKey: exec.Input()}
		}
		return outcome, nil
	}

	prompt, err := n.opts.Prompt.Resolve(exec.State)
	if err != nil {
		return core.Outcome{}, &core.ConfigFaultError{Node: n.name, Reason: err.Error()}
	}
	if err := exec.EmitText(ctx, prompt); err != nil {
		return core.Outcome{}, err
	}
	return core.Outcome{
		History: []core.Message{{Role: core.RoleAssistant, Content: prompt}},
		Signal:  core.SignalAwaitInput,
	}, nil
}
