package logs

import (
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/anaconda/anaconda-otel-go/pkg/config"
)

// NewLoggerProvider builds the logger provider for the logs pipeline.
// The batch processor created here is persistent; only the sink behind
// the exporter changes on a connection change.
func NewLoggerProvider(res *resource.Resource, exporter sdklog.Exporter, cfg config.Logs) *sdklog.LoggerProvider {
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exporter,
				sdklog.WithExportInterval(cfg.ExportInterval),
				sdklog.WithExportTimeout(cfg.ExportTimeout),
			),
		),
	)
}
