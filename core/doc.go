// Package core defines the shared vocabulary of the AgentForge workflow
// engine: per-thread conversation state, graph nodes and their execution
// outcomes, streamed output chunks, durable checkpoints and the error
// taxonomy surfaced at the invocation boundary.
//
// The package is deliberately free of orchestration logic. Nodes compute a
// delta over state and emit chunks; the engine (package engine) owns
// durability, routing and retries. Keeping the split here makes nodes pure
// values that can be tested without a store or a graph.
package core
