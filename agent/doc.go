// Package agent provides the node implementations that workflow graphs are
// assembled from: model-backed generation nodes, pure transform nodes and
// human-input nodes that suspend the turn.
//
// Nodes never persist anything. They read the state snapshot handed to them,
// stream chunks through the execution scope and return an outcome the engine
// applies and checkpoints.
package agent
