package agentforge

import (
	"strings"

	"github.com/hupe1980/agentforge/agent"
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/graph"
	"github.com/hupe1980/agentforge/model"
)

// Node instructions for the standard agent-builder workflow. Templates are
// rendered over the thread state before every call.
const (
	refinePrompt = `You refine user requests for an AI agent builder. Restate the
request below as a precise, self-contained specification of the agent to
build. Keep every requirement the user stated, make implicit requirements
explicit and do not invent features.

Request: {{.latest_user_message}}`

	scopePrompt = `You are a planning reasoner for an AI agent builder. Produce a
detailed scope document for building the requested agent: objectives,
required capabilities, external APIs or data sources, and a step-by-step
build plan.

Specification:
{{.refined_prompt}}`

	coderPrompt = `You are an expert AI agent engineer. Using the scope document
below, write the agent implementation the user asked for. Produce complete,
runnable code with brief usage notes. Incorporate any corrections from the
conversation so far.

Scope document:
{{.scope_doc}}`

	routePrompt = `Decide what the user wants next based on their latest message.
Answer with exactly one word and nothing else:
- "coder" if they request changes, additions or fixes to the agent being built
- "finish" if they are satisfied and the conversation should conclude

Latest message: {{.latest_user_message}}`

	finishPrompt = `The agent-building conversation is concluding. Summarize what
was built, how to run it and any follow-up steps the user should take.`

	clarifyPrompt = `I have drafted the agent above. Tell me what to adjust, or say
you are satisfied and I will wrap up.`
)

// BuildWorkflow assembles the standard agent-builder workflow:
//
//	refine -> scope -> coder -> clarify -(await input)-> route -> coder | finish
//
// refine and coder run on the primary model, scope on the reasoner. clarify
// suspends the turn for a human reply; route classifies the reply and either
// loops back into coder or concludes via finish.
func BuildWorkflow(primary, reasoner model.Model) (*graph.Compiled, error) {
	refine := agent.NewModelNode("refine", primary, func(o *agent.ModelNodeOptions) {
		o.Instruction = agent.NewInstructionFromText(refinePrompt)
		o.OutputKey = "refined_prompt"
		o.EnableStreaming = false
	})

	scope := agent.NewModelNode("scope", reasoner, func(o *agent.ModelNodeOptions) {
		o.Instruction = agent.NewInstructionFromText(scopePrompt)
		o.OutputKey = "scope_doc"
		o.EnableStreaming = false
	})

	coder := agent.NewModelNode("coder", primary, func(o *agent.ModelNodeOptions) {
		o.Instruction = agent.NewInstructionFromText(coderPrompt)
		o.OutputKey = "draft"
		o.AppendHistory = true
	})

	clarify := agent.NewInputNode("clarify", func(o *agent.InputNodeOptions) {
		o.Prompt = agent.NewInstructionFromText(clarifyPrompt)
	})

	route := agent.NewModelNode("route", primary, func(o *agent.ModelNodeOptions) {
		o.Instruction = agent.NewInstructionFromText(routePrompt)
		o.OutputKey = "next_action"
		o.EnableStreaming = false
	})

	finish := agent.NewModelNode("finish", primary, func(o *agent.ModelNodeOptions) {
		o.Instruction = agent.NewInstructionFromText(finishPrompt)
		o.AppendHistory = true
		o.Signal = core.SignalDone
	})

	return graph.New().
		AddNode(refine).
		AddNode(scope).
		AddNode(coder).
		AddNode(clarify).
		AddNode(route).
		AddNode(finish).
		SetEntry("refine").
		AddEdge("refine", "scope").
		AddEdge("scope", "coder").
		AddEdge("coder", "clarify").
		AddEdge("clarify", "route").
		AddConditionalEdge("route", "coder", wantsCoder).
		AddEdge("route", "finish").
		AddEdge("finish", graph.End).
		Compile()
}

// wantsCoder reads the route node's classification. Anything that is not a
// clear "coder" decision concludes the conversation; the model is told to
// answer with a single token but trailing prose must not break routing.
func wantsCoder(s *core.State) bool {
	decision := strings.ToLower(strings.TrimSpace(s.StringField("next_action")))
	return strings.Contains(decision, "coder")
}
