// Package engine drives workflow turns: it loads the thread checkpoint,
// walks the compiled graph node by node, applies node outcomes to state,
// checkpoints after every node completion and resolves suspension and
// resumption for human-in-the-loop nodes.
//
// The engine owns all durability and concurrency concerns. Nodes stay pure:
// they read a state snapshot, emit chunks and return a delta. Turns on the
// same thread are serialized; turns on different threads run concurrently.
package engine
