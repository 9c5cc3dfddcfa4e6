// Package stream implements the per-turn streaming session: a FIFO of
// sequence-numbered chunks pushed by the currently executing node and
// consumed either incrementally (live rendering) or buffered (synchronous
// API callers). Both modes read the same ordered sequence; buffering is a
// consumer-side aggregation, not a different producer contract.
package stream

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/agentforge/core"
)

// Options configures a Session.
type Options struct {
	// BufferSize sets the chunk channel buffer. Larger buffers decouple
	// slow consumers from producing nodes at the cost of memory.
	BufferSize int
}

// Session is the single-turn chunk pipeline. It is created by the gateway
// for each invocation, written by whichever node is currently executing and
// read by exactly one consumer loop.
//
// Ordering: publishes are serialized through one channel, so chunks are
// delivered in strict production order. Nodes execute sequentially within a
// turn, so cross-node order equals execution order.
type Session struct {
	ch chan core.Chunk

	mu        sync.Mutex
	seq       int
	closed    bool
	abandoned chan struct{}
	abandon   sync.Once
}

// NewSession creates a session for one turn.
func NewSession(optFns ...func(o *Options)) *Session {
	opts := Options{BufferSize: 64}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Session{
		ch:        make(chan core.Chunk, opts.BufferSize),
		abandoned: make(chan struct{}),
	}
}

// Publish assigns the next sequence number to chunk and delivers it. It
// blocks when the buffer is full, returns the context error on cancellation,
// and silently drops chunks once the consumer has abandoned the session.
// The producing node keeps running to completion either way.
func (s *Session) Publish(ctx context.Context, chunk core.Chunk) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	chunk.Seq = s.seq
	s.mu.Unlock()

	select {
	case <-s.abandoned:
		return nil
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.abandoned:
		return nil
	case s.ch <- chunk:
		return nil
	}
}

// Chunks returns the consumer side of the session. The channel is closed
// when the turn reaches a terminal state.
func (s *Session) Chunks() <-chan core.Chunk { return s.ch }

// Close marks the turn terminal and closes the chunk channel. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Abandon signals that the consumer has gone away (e.g. a closed UI
// connection). Subsequent publishes are dropped without blocking; state
// already in flight is not rolled back.
func (s *Session) Abandon() {
	s.abandon.Do(func() { close(s.abandoned) })
}

// Collect drains the session until it closes and returns the ordered
// concatenation of all text chunks. This is the buffered consumption mode
// used by synchronous API callers.
func (s *Session) Collect(ctx context.Context) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case chunk, ok := <-s.ch:
			if !ok {
				return b.String(), nil
			}
			if chunk.Kind == core.ChunkText {
				b.WriteString(chunk.Text)
			}
		}
	}
}
