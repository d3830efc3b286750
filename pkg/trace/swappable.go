package trace

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/anaconda/anaconda-otel-go/internal/shim"
)

// SwappableExporter is the sdktrace.SpanExporter handed to the batch
// span processor at initialization. Batches flow to whichever sink is
// currently installed in its shim.
type SwappableExporter struct {
	shim *shim.Shim[[]sdktrace.ReadOnlySpan]
}

// NewSwappableExporter wraps the shim into the SDK exporter interface.
func NewSwappableExporter(sh *shim.Shim[[]sdktrace.ReadOnlySpan]) *SwappableExporter {
	return &SwappableExporter{shim: sh}
}

func (e *SwappableExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return e.shim.Export(ctx, spans)
}

func (e *SwappableExporter) Shutdown(ctx context.Context) error {
	return e.shim.Shutdown(ctx)
}
