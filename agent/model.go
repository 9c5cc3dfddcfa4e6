package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/model"
)

// ModelNodeOptions configures a ModelNode instance.
//
// Use functional options with NewModelNode to override defaults.
type ModelNodeOptions struct {
	// Instruction becomes the system prompt, resolved against the thread
	// state before every call.
	Instruction Instruction

	// OutputKey names the scope field the final text is written to.
	// Empty means the text is not stored in scope.
	OutputKey string

	// AppendHistory appends the final text to the conversation history as
	// an assistant message.
	AppendHistory bool

	// EnableStreaming forwards partial text to the turn's chunk stream as
	// the provider produces it. The final text is identical either way.
	EnableStreaming bool

	// MaxHistoryMessages limits how many trailing history messages are sent
	// to the provider. Zero sends the full history.
	MaxHistoryMessages int

	// Signal is returned in the outcome on success. Defaults to
	// core.SignalContinue; set core.SignalDone for a terminal node.
	Signal core.Signal
}

// ModelNode invokes a language model and writes its output into the thread.
//
// The node renders its instruction over the current state, sends the
// conversation history to the provider and streams text chunks as they
// arrive. Provider failures are surfaced as transient errors so the engine
// retries them under its bounded policy.
type ModelNode struct {
	name string
	llm  model.Model
	opts ModelNodeOptions
}

// NewModelNode creates a model-backed node with sensible defaults.
//
// Example:
//
//	coder := agent.NewModelNode("coder", llm, func(o *agent.ModelNodeOptions) {
//	    o.Instruction = agent.NewInstructionFromText(coderPrompt)
//	    o.OutputKey = "draft"
//	    o.AppendHistory = true
//	})
func NewModelNode(name string, llm model.Model, optFns ...func(o *ModelNodeOptions)) *ModelNode {
	if name == "" {
		panic("agent: model node name must not be empty")
	}
	if llm == nil {
		panic("agent: model node requires a model")
	}

	opts := ModelNodeOptions{
		Instruction:     NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming: true,
		Signal:          core.SignalContinue,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelNode{name: name, llm: llm, opts: opts}
}

// Name implements core.Node.
func (n *ModelNode) Name() string { return n.name }

// Kind implements core.Node.
func (n *ModelNode) Kind() core.NodeKind { return core.KindModelBacked }

// Execute implements core.Node.
func (n *ModelNode) Execute(ctx context.Context, exec *core.Execution) (core.Outcome, error) {
	instructions, err := n.opts.Instruction.Resolve(exec.State)
	if err != nil {
		// A broken instruction template is a workflow bug, not a provider
		// hiccup; never retried.
		return core.Outcome{}, &core.ConfigFaultError{Node: n.name, Reason: err.Error()}
	}

	req := model.Request{
		Instructions: instructions,
		Messages:     n.historyWindow(exec.State),
		Stream:       n.opts.EnableStreaming,
	}

	text, err := n.generate(ctx, exec, req)
	if err != nil {
		return core.Outcome{}, core.Transient(fmt.Errorf("model call failed: %w", err))
	}

	outcome := core.Outcome{Signal: n.opts.Signal}
	if n.opts.OutputKey != "" {
		outcome.Delta = map[string]any{n.opts.OutputKey: text}
	}
	if n.opts.AppendHistory {
		outcome.History = []core.Message{{Role: core.RoleAssistant, Content: text}}
	}
	return outcome, nil
}

// generate drains the provider channels, forwarding partial text to the
// chunk stream and returning the final text.
func (n *ModelNode) generate(ctx context.Context, exec *core.Execution, req model.Request) (string, error) {
	respCh, errCh := n.llm.Generate(ctx, req)

	var finalText strings.Builder
	sawFinal := false
	for resp := range respCh {
		if resp.Partial {
			if req.Stream {
				if err := exec.EmitText(ctx, resp.Text); err != nil {
					return "", err
				}
			}
			continue
		}
		finalText.Reset()
		finalText.WriteString(resp.Text)
		sawFinal = true
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	if !sawFinal {
		return "", fmt.Errorf("provider closed stream without a final response")
	}
	return finalText.String(), nil
}

// historyWindow returns the trailing MaxHistoryMessages of the history, or
// the full history when unlimited.
func (n *ModelNode) historyWindow(s *core.State) []core.Message {
	history := s.History
	if max := n.opts.MaxHistoryMessages; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	out := make([]core.Message, len(history))
	copy(out, history)
	return out
}
