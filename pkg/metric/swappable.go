package metric

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/anaconda/anaconda-otel-go/internal/shim"
)

// SwappableExporter is the sdkmetric.Exporter handed to the periodic
// reader at initialization. It forwards every batch to whichever sink
// is currently installed in its shim, so the reader never has to be
// rebuilt when the destination changes.
//
// Temporality and aggregation are answered from selectors fixed at
// construction rather than delegated through the shim: the reader may
// query them while an export is in flight, and they must not queue
// behind a slow sink call.
type SwappableExporter struct {
	shim        *shim.Shim[*metricdata.ResourceMetrics]
	temporality sdkmetric.TemporalitySelector
	aggregation sdkmetric.AggregationSelector
}

// NewSwappableExporter wraps the shim into the SDK exporter interface.
func NewSwappableExporter(sh *shim.Shim[*metricdata.ResourceMetrics]) *SwappableExporter {
	return &SwappableExporter{
		shim:        sh,
		temporality: sdkmetric.DefaultTemporalitySelector,
		aggregation: sdkmetric.DefaultAggregationSelector,
	}
}

func (e *SwappableExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return e.temporality(kind)
}

func (e *SwappableExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return e.aggregation(kind)
}

func (e *SwappableExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	return e.shim.Export(ctx, rm)
}

func (e *SwappableExporter) ForceFlush(ctx context.Context) error {
	return e.shim.ForceFlush(ctx)
}

func (e *SwappableExporter) Shutdown(ctx context.Context) error {
	return e.shim.Shutdown(ctx)
}
