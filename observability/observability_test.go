package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	testTracerProvider *sdktrace.TracerProvider
	tracerProviderOnce sync.Once
)

// setupTracing installs one shared tracer provider (the otel global
// delegates exactly once) and registers a fresh recorder per test.
func setupTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	tracerProviderOnce.Do(func() {
		testTracerProvider = sdktrace.NewTracerProvider()
		otel.SetTracerProvider(testTracerProvider)
	})
	recorder := tracetest.NewSpanRecorder()
	testTracerProvider.RegisterSpanProcessor(recorder)
	t.Cleanup(func() { testTracerProvider.UnregisterSpanProcessor(recorder) })
	return recorder
}

func TestSpanManagerTurnAndNodeSpans(t *testing.T) {
	recorder := setupTracing(t)
	spans := NewSpanManager()

	ctx, turnSpan := spans.StartTurnSpan(context.Background(), "t1", "inv1")
	nodeCtx, nodeSpan := spans.StartNodeSpan(ctx, "refine")
	spans.AddSpanEvent(nodeCtx, "checkpoint.saved", attribute.Int("seq", 1))
	spans.EndSpanWithError(nodeSpan, nil)
	spans.EndSpanWithError(turnSpan, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	node, turn := ended[0], ended[1]
	assert.Equal(t, "agentforge.node.refine", node.Name())
	assert.Equal(t, "agentforge.turn", turn.Name())
	assert.Equal(t, codes.Ok, node.Status().Code)

	// The node span is a child of the turn span.
	assert.Equal(t, turn.SpanContext().SpanID(), node.Parent().SpanID())

	require.Len(t, node.Events(), 1)
	assert.Equal(t, "checkpoint.saved", node.Events()[0].Name)
}

func TestSpanManagerRecordsError(t *testing.T) {
	recorder := setupTracing(t)
	spans := NewSpanManager()

	_, span := spans.StartNodeSpan(context.Background(), "coder")
	spans.EndSpanWithError(span, errors.New("model call failed"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "model call failed", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1) // the recorded error
}

func TestMetricsRecorderInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics := NewMetricsRecorder()
	ctx := context.Background()

	metrics.RecordNodeExecution(ctx, "refine", 12*time.Millisecond, nil)
	metrics.RecordNodeExecution(ctx, "coder", 30*time.Millisecond, errors.New("boom"))
	metrics.RecordTurn(ctx, "suspended", 50*time.Millisecond)
	metrics.RecordCheckpoint(ctx, "refine", 512)
	metrics.RecordRetry(ctx, "coder")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{
		"agentforge.node.executions",
		"agentforge.node.latency_ms",
		"agentforge.node.errors",
		"agentforge.node.retries",
		"agentforge.turns",
		"agentforge.turn.latency_ms",
		"agentforge.checkpoint.size_bytes",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestNoopImplementationsAreSafe(t *testing.T) {
	ctx := context.Background()

	var spans SpanManager = NoopSpanManager{}
	spanCtx, span := spans.StartTurnSpan(ctx, "t1", "inv1")
	assert.Equal(t, ctx, spanCtx)
	spans.AddSpanEvent(spanCtx, "ignored")
	spans.EndSpanWithError(span, errors.New("ignored"))

	var metrics MetricsRecorder = NoopMetrics{}
	metrics.RecordNodeExecution(ctx, "n", time.Millisecond, nil)
	metrics.RecordTurn(ctx, "completed", time.Millisecond)
	metrics.RecordCheckpoint(ctx, "n", 1)
	metrics.RecordRetry(ctx, "n")
}
