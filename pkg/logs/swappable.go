package logs

import (
	"context"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/anaconda/anaconda-otel-go/internal/shim"
)

// SwappableExporter is the sdklog.Exporter handed to the batch
// processor at initialization. Record batches flow to whichever sink is
// currently installed in its shim.
type SwappableExporter struct {
	shim *shim.Shim[[]sdklog.Record]
}

// NewSwappableExporter wraps the shim into the SDK exporter interface.
func NewSwappableExporter(sh *shim.Shim[[]sdklog.Record]) *SwappableExporter {
	return &SwappableExporter{shim: sh}
}

func (e *SwappableExporter) Export(ctx context.Context, records []sdklog.Record) error {
	return e.shim.Export(ctx, records)
}

func (e *SwappableExporter) ForceFlush(ctx context.Context) error {
	return e.shim.ForceFlush(ctx)
}

func (e *SwappableExporter) Shutdown(ctx context.Context) error {
	return e.shim.Shutdown(ctx)
}
