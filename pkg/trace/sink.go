package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	_ "google.golang.org/grpc/encoding/gzip" // Required for gzip support over grpc

	"github.com/anaconda/anaconda-otel-go/internal/connection"
	"github.com/anaconda/anaconda-otel-go/internal/shim"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
	sdkcreds "github.com/anaconda/anaconda-otel-go/pkg/credentials"
)

// BuildSink constructs a span exporter for the given target, dispatched
// on the endpoint scheme.
func BuildSink(ctx context.Context, log *zap.Logger, target connection.Target) (sdktrace.SpanExporter, error) {
	u, err := otelconfig.ParseEndpoint(target.Endpoint)
	if err != nil {
		return nil, err
	}

	kind, err := otelconfig.SinkKindForScheme(u.Scheme)
	if err != nil {
		return nil, err
	}

	headers := otelconfig.EndpointHeaders(target.AuthToken)

	var exporter sdktrace.SpanExporter
	switch kind {
	case otelconfig.SinkKindOTLPHTTP:
		opts := []otlptracehttp.Option{
			// Includes host and port
			otlptracehttp.WithEndpoint(u.Host),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		}

		if u.Scheme != "https" {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
		}

		if len(headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		path := u.Path
		if path == "" {
			path = otelconfig.DefaultTracesPath
		}
		opts = append(opts, otlptracehttp.WithURLPath(path))

		exporter, err = otlptracehttp.New(ctx, opts...)
	case otelconfig.SinkKindOTLPGRPC:
		opts := []otlptracegrpc.Option{
			// Includes host and port
			otlptracegrpc.WithEndpoint(u.Host),
			otlptracegrpc.WithCompressor("gzip"),
		}

		if u.Scheme != "grpcs" {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else if tlsCfg := sdkcreds.ClientTLSConfig(log, target.CertFile); tlsCfg != nil {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
		}

		if len(headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(headers))
		}

		exporter, err = otlptracegrpc.New(ctx, opts...)
	case otelconfig.SinkKindConsole:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case otelconfig.SinkKindDevNull:
		exporter = newDevNullExporter()
	default:
		return nil, fmt.Errorf("unknown traces sink kind %s", kind)
	}

	if err != nil {
		return nil, err
	}

	log.Info("Span sink built",
		zap.String("kind", string(kind)),
		zap.String("endpoint", target.Endpoint),
	)
	return exporter, nil
}

// WrapSink adapts an sdktrace.SpanExporter to the shim's sink shape.
// SpanExporter has no ForceFlush of its own; the flush is handled by
// the batch processor above the shim, so the adapter treats it as a
// no-op unless the concrete exporter offers one.
func WrapSink(exp sdktrace.SpanExporter) shim.Sink[[]sdktrace.ReadOnlySpan] {
	return &spanSink{exp: exp}
}

type spanSink struct {
	exp sdktrace.SpanExporter
}

func (s *spanSink) Export(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return s.exp.ExportSpans(ctx, spans)
}

func (s *spanSink) ForceFlush(ctx context.Context) error {
	if f, ok := s.exp.(interface{ ForceFlush(context.Context) error }); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (s *spanSink) Shutdown(ctx context.Context) error {
	return s.exp.Shutdown(ctx)
}

// Unwrap exposes the wrapped exporter, mainly for tests.
func (s *spanSink) Unwrap() sdktrace.SpanExporter {
	return s.exp
}
