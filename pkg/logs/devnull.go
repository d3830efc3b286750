package logs

import (
	"context"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// devNullExporter accepts and discards every record batch.
type devNullExporter struct{}

func newDevNullExporter() sdklog.Exporter {
	return &devNullExporter{}
}

func (devNullExporter) Export(context.Context, []sdklog.Record) error {
	return nil
}

func (devNullExporter) ForceFlush(context.Context) error {
	return nil
}

func (devNullExporter) Shutdown(context.Context) error {
	return nil
}
