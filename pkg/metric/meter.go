package metric

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/anaconda/anaconda-otel-go/pkg/config"
)

// NewMeterProvider builds the meter provider for the metrics pipeline.
// The exporter is expected to be a SwappableExporter: the periodic
// reader created here lives for the whole process and is never rebuilt
// on a connection change.
func NewMeterProvider(res *resource.Resource, exporter sdkmetric.Exporter, cfg config.Metrics, extraReaders ...sdkmetric.Reader) *sdkmetric.MeterProvider {
	opts := []sdkmetric.Option{
		// Record information about this application in a Resource.
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(cfg.ExportInterval),
				sdkmetric.WithTimeout(cfg.ExportTimeout),
			),
		),
	}

	for _, r := range extraReaders {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	return sdkmetric.NewMeterProvider(opts...)
}
