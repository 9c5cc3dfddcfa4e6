package core

import (
	"time"

	"github.com/google/uuid"
)

// ChunkKind discriminates the payload of a Chunk.
type ChunkKind string

const (
	// ChunkText is a plain text fragment of partial node output.
	ChunkText ChunkKind = "text"
	// ChunkEvent is a structured event (node transitions, prompts, ...).
	ChunkEvent ChunkKind = "event"
)

// Chunk is one ordered unit of partial output produced during a turn. It is
// tagged with the name of the node that produced it and, once published to a
// streaming session, a sequence number that increases monotonically within
// the turn. After emission a chunk is immutable.
type Chunk struct {
	ID        string         `json:"id"`
	Node      string         `json:"node"`
	Seq       int            `json:"seq"`
	Kind      ChunkKind      `json:"kind"`
	Text      string         `json:"text,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewTextChunk creates a text fragment chunk authored by node. The sequence
// number is assigned on publish.
func NewTextChunk(node, text string) Chunk {
	return Chunk{
		ID:        NewID(),
		Node:      node,
		Kind:      ChunkText,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventChunk creates a structured event chunk authored by node.
func NewEventChunk(node string, data map[string]any) Chunk {
	return Chunk{
		ID:        NewID(),
		Node:      node,
		Kind:      ChunkEvent,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a unique identifier for chunks and invocations.
func NewID() string { return uuid.NewString() }
