package stream

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/core"
)

func TestSessionOrderPreservation(t *testing.T) {
	s := NewSession(func(o *Options) { o.BufferSize = 128 })
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", fmt.Sprintf("c%d", i))))
	}
	s.Close()

	var got []core.Chunk
	for chunk := range s.Chunks() {
		got = append(got, chunk)
	}

	require.Len(t, got, 50)
	for i, chunk := range got {
		assert.Equal(t, fmt.Sprintf("c%d", i), chunk.Text)
		assert.Equal(t, i+1, chunk.Seq, "sequence numbers are dense and increasing")
	}
}

func TestSessionCollectConcatenatesText(t *testing.T) {
	s := NewSession()
	ctx := context.Background()

	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "hello ")))
	require.NoError(t, s.Publish(ctx, core.NewEventChunk("coder", map[string]any{"kind": "progress"})))
	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "world")))
	s.Close()

	text, err := s.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text, "event chunks do not contribute text")
}

func TestSessionAbandonDropsWithoutBlocking(t *testing.T) {
	s := NewSession(func(o *Options) { o.BufferSize = 1 })
	ctx := context.Background()

	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "a")))
	s.Abandon()

	// Buffer is full and nobody consumes; without the abandon signal this
	// publish would block forever.
	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "b")))
	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "c")))
	s.Close()
}

func TestSessionPublishAfterCloseIsDropped(t *testing.T) {
	s := NewSession()
	s.Close()
	assert.NoError(t, s.Publish(context.Background(), core.NewTextChunk("coder", "late")))
}

func TestSessionCloseIdempotent(t *testing.T) {
	s := NewSession()
	s.Close()
	assert.NotPanics(t, func() { s.Close() })
}

func TestSessionPublishHonorsContext(t *testing.T) {
	s := NewSession(func(o *Options) { o.BufferSize = 1 })
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Publish(ctx, core.NewTextChunk("coder", "a")))
	cancel()
	err := s.Publish(ctx, core.NewTextChunk("coder", "b"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionIncrementalConsumptionWhileProducing(t *testing.T) {
	s := NewSession(func(o *Options) { o.BufferSize = 1 })
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.Close()
		for i := 0; i < 10; i++ {
			_ = s.Publish(ctx, core.NewTextChunk("coder", "x"))
		}
	}()

	count := 0
	for range s.Chunks() {
		count++
	}
	<-done
	assert.Equal(t, 10, count)
}
