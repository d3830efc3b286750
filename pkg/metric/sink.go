package metric

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	_ "google.golang.org/grpc/encoding/gzip" // Required for gzip support over grpc

	"github.com/anaconda/anaconda-otel-go/internal/connection"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
	sdkcreds "github.com/anaconda/anaconda-otel-go/pkg/credentials"
)

// BuildSink constructs a metric exporter for the given target. The sink
// kind is decided by the endpoint scheme: http/https and grpc/grpcs map
// to OTLP, console to a pretty-printed stdout exporter, devnull to a
// discard exporter.
func BuildSink(ctx context.Context, log *zap.Logger, target connection.Target) (sdkmetric.Exporter, error) {
	u, err := otelconfig.ParseEndpoint(target.Endpoint)
	if err != nil {
		return nil, err
	}

	kind, err := otelconfig.SinkKindForScheme(u.Scheme)
	if err != nil {
		return nil, err
	}

	headers := otelconfig.EndpointHeaders(target.AuthToken)

	var exporter sdkmetric.Exporter
	switch kind {
	case otelconfig.SinkKindOTLPHTTP:
		opts := []otlpmetrichttp.Option{
			// Includes host and port
			otlpmetrichttp.WithEndpoint(u.Host),
			otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression),
		}

		if u.Scheme != "https" {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlpmetrichttp.WithTLSClientConfig(tlsCfg))
		}

		if len(headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(headers))
		}
		path := u.Path
		if path == "" {
			path = otelconfig.DefaultMetricsPath
		}
		opts = append(opts, otlpmetrichttp.WithURLPath(path))

		exporter, err = otlpmetrichttp.New(ctx, opts...)
	case otelconfig.SinkKindOTLPGRPC:
		opts := []otlpmetricgrpc.Option{
			// Includes host and port
			otlpmetricgrpc.WithEndpoint(u.Host),
			otlpmetricgrpc.WithCompressor("gzip"),
		}

		if u.Scheme != "grpcs" {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
		}

		if len(headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(headers))
		}

		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	case otelconfig.SinkKindConsole:
		exporter, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case otelconfig.SinkKindDevNull:
		exporter = newDevNullExporter()
	default:
		return nil, fmt.Errorf("unknown metrics sink kind %s", kind)
	}

	if err != nil {
		return nil, err
	}

	log.Info("Metric sink built",
		zap.String("kind", string(kind)),
		zap.String("endpoint", target.Endpoint),
	)
	return exporter, nil
}
