package trace

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/anaconda/anaconda-otel-go/pkg/config"
)

// NewTracerProvider builds the tracer provider for the traces pipeline.
// The batcher created here is persistent; only the sink behind the
// exporter changes on a connection change.
func NewTracerProvider(res *resource.Resource, exporter sdktrace.SpanExporter, cfg config.Traces) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithRawSpanLimits(sdktrace.SpanLimits{
			// Avoid misuse of attributes.
			AttributeValueLengthLimit: 3 * 1024, // 3KB
			// Based on the default values from the OpenTelemetry specification.
			AttributeCountLimit:         sdktrace.DefaultAttributeCountLimit,
			EventCountLimit:             sdktrace.DefaultEventCountLimit,
			LinkCountLimit:              sdktrace.DefaultLinkCountLimit,
			AttributePerEventCountLimit: sdktrace.DefaultEventCountLimit,
			AttributePerLinkCountLimit:  sdktrace.DefaultAttributePerLinkCountLimit,
		}),
		sdktrace.WithSampler(
			sdktrace.ParentBased(
				sdktrace.TraceIDRatioBased(cfg.SamplingRate),
				// By default, when the parent span is sampled, the child span will be sampled.
			),
		),
		sdktrace.WithResource(res),
		// Always be sure to batch in production.
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		),
	)
}
