// Package logs wires the log-record pipeline: OTLP sinks, the
// swappable exporter facade, and the logger provider.
package logs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	_ "google.golang.org/grpc/encoding/gzip" // Required for gzip support over grpc

	"github.com/anaconda/anaconda-otel-go/internal/connection"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
	sdkcreds "github.com/anaconda/anaconda-otel-go/pkg/credentials"
)

// BuildSink constructs a log exporter for the given target, dispatched
// on the endpoint scheme.
func BuildSink(ctx context.Context, log *zap.Logger, target connection.Target) (sdklog.Exporter, error) {
	u, err := otelconfig.ParseEndpoint(target.Endpoint)
	if err != nil {
		return nil, err
	}

	kind, err := otelconfig.SinkKindForScheme(u.Scheme)
	if err != nil {
		return nil, err
	}

	headers := otelconfig.EndpointHeaders(target.AuthToken)

	var exporter sdklog.Exporter
	switch kind {
	case otelconfig.SinkKindOTLPHTTP:
		opts := []otlploghttp.Option{
			// Includes host and port
			otlploghttp.WithEndpoint(u.Host),
			otlploghttp.WithCompression(otlploghttp.GzipCompression),
		}

		if u.Scheme != "https" {
			opts = append(opts, otlploghttp.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlploghttp.WithTLSClientConfig(tlsCfg))
		}

		if len(headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(headers))
		}
		path := u.Path
		if path == "" {
			path = otelconfig.DefaultLogsPath
		}
		opts = append(opts, otlploghttp.WithURLPath(path))

		exporter, err = otlploghttp.New(ctx, opts...)
	case otelconfig.SinkKindOTLPGRPC:
		opts := []otlploggrpc.Option{
			// Includes host and port
			otlploggrpc.WithEndpoint(u.Host),
			otlploggrpc.WithCompressor("gzip"),
		}

		if u.Scheme != "grpcs" {
			opts = append(opts, otlploggrpc.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
		}

		if len(headers) > 0 {
			opts = append(opts, otlploggrpc.WithHeaders(headers))
		}

		exporter, err = otlploggrpc.New(ctx, opts...)
	case otelconfig.SinkKindConsole:
		exporter, err = stdoutlog.New(stdoutlog.WithPrettyPrint())
	case otelconfig.SinkKindDevNull:
		exporter = newDevNullExporter()
	default:
		return nil, fmt.Errorf("unknown logs sink kind %s", kind)
	}

	if err != nil {
		return nil, err
	}

	log.Info("Log sink built",
		zap.String("kind", string(kind)),
		zap.String("endpoint", target.Endpoint),
	)
	return exporter, nil
}
