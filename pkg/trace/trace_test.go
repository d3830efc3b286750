package trace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/anaconda/anaconda-otel-go/internal/connection"
	"github.com/anaconda/anaconda-otel-go/internal/shim"
	"github.com/anaconda/anaconda-otel-go/pkg/config"
)

func TestBuildSinkKinds(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{name: "otlp http", endpoint: "http://host:4318"},
		{name: "otlp grpc", endpoint: "grpc://host:4317"},
		{name: "console", endpoint: "console:"},
		{name: "devnull", endpoint: "devnull:"},
		{name: "unsupported scheme", endpoint: "amqp://host:5672", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := BuildSink(ctx, log, connection.Target{Endpoint: tt.endpoint})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, exp)
			require.NoError(t, exp.Shutdown(ctx))
		})
	}
}

func TestSwappableExporterRoutesToCurrentSink(t *testing.T) {
	ctx := context.Background()

	sinkA := tracetest.NewInMemoryExporter()
	sh := shim.New[[]sdktrace.ReadOnlySpan](WrapSink(sinkA))

	tp := NewTracerProvider(resource.Default(), NewSwappableExporter(sh), config.Traces{
		BatchTimeout:  time.Minute,
		ExportTimeout: 30 * time.Second,
		SamplingRate:  1,
	})
	defer func() { _ = tp.Shutdown(ctx) }()

	tracer := tp.Tracer("test")

	_, span := tracer.Start(ctx, "before-swap")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))
	require.Len(t, sinkA.GetSpans(), 1)
	assert.Equal(t, "before-swap", sinkA.GetSpans()[0].Name)

	sinkB := tracetest.NewInMemoryExporter()
	_, err := sh.Swap(ctx, WrapSink(sinkB))
	require.NoError(t, err)

	_, span = tracer.Start(ctx, "after-swap")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))

	require.Len(t, sinkA.GetSpans(), 1)
	require.Len(t, sinkB.GetSpans(), 1)
	assert.Equal(t, "after-swap", sinkB.GetSpans()[0].Name)
}

func TestWrapSinkForceFlushIsOptional(t *testing.T) {
	// The devnull exporter has no ForceFlush of its own; the adapter
	// must treat that as success.
	s := WrapSink(newDevNullExporter())
	require.NoError(t, s.ForceFlush(context.Background()))
	require.NoError(t, s.Export(context.Background(), nil))
	require.NoError(t, s.Shutdown(context.Background()))
}
