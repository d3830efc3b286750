package metric

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// devNullExporter accepts and discards every batch. It backs the
// devnull: scheme and is also useful as a safe initial sink before the
// first real destination is known.
type devNullExporter struct{}

func newDevNullExporter() sdkmetric.Exporter {
	return &devNullExporter{}
}

func (devNullExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(kind)
}

func (devNullExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (devNullExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	return nil
}

func (devNullExporter) ForceFlush(context.Context) error {
	return nil
}

func (devNullExporter) Shutdown(context.Context) error {
	return nil
}
