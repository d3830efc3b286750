package metric

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// debugExporter wraps an sdkmetric.Exporter and logs export details.
type debugExporter struct {
	wrapped sdkmetric.Exporter
	logger  *zap.Logger
}

// NewDebugExporter decorates an exporter so every export is visible in
// the SDK log. Enabled by the debug config flag.
func NewDebugExporter(wrapped sdkmetric.Exporter, logger *zap.Logger) sdkmetric.Exporter {
	return &debugExporter{wrapped: wrapped, logger: logger.Named("metric-debug")}
}

func (d *debugExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return d.wrapped.Temporality(kind)
}

func (d *debugExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return d.wrapped.Aggregation(kind)
}

func (d *debugExporter) ForceFlush(ctx context.Context) error {
	return d.wrapped.ForceFlush(ctx)
}

func (d *debugExporter) Shutdown(ctx context.Context) error {
	return d.wrapped.Shutdown(ctx)
}

func (d *debugExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	start := time.Now()

	totalMetrics := 0
	for _, sm := range rm.ScopeMetrics {
		totalMetrics += len(sm.Metrics)
		for _, m := range sm.Metrics {
			d.logger.Debug("Metric",
				zap.String("name", m.Name),
				zap.String("unit", m.Unit),
				zap.String("type", fmt.Sprintf("%T", m.Data)),
				zap.Int("data_points", dataPointCount(m)),
			)
		}
	}

	err := d.wrapped.Export(ctx, rm)
	duration := time.Since(start)

	if err != nil {
		d.logger.Error("Metric export failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
	} else {
		d.logger.Info("Metric export succeeded",
			zap.Int("total_metrics", totalMetrics),
			zap.Duration("duration", duration),
		)
	}

	return err
}

func dataPointCount(m metricdata.Metrics) int {
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		return len(data.DataPoints)
	case metricdata.Sum[float64]:
		return len(data.DataPoints)
	case metricdata.Histogram[int64]:
		return len(data.DataPoints)
	case metricdata.Histogram[float64]:
		return len(data.DataPoints)
	case metricdata.Gauge[int64]:
		return len(data.DataPoints)
	case metricdata.Gauge[float64]:
		return len(data.DataPoints)
	default:
		return 0
	}
}
