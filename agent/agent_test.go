package agent

import (
	"context"
	"sync"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/logging"
)

// recordingEmitter captures published chunks for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	chunks []core.Chunk
}

func (e *recordingEmitter) Publish(ctx context.Context, chunk core.Chunk) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = append(e.chunks, chunk)
	return nil
}

func (e *recordingEmitter) text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out string
	for _, c := range e.chunks {
		if c.Kind == core.ChunkText {
			out += c.Text
		}
	}
	return out
}

func newTestExecution(state *core.State, stream core.Emitter, resume *string) *core.Execution {
	return core.NewExecution("t1", "inv1", "node", state, stream, logging.NoOpLogger{}, resume)
}
