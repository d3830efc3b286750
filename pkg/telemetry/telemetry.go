// Package telemetry is the public surface of the SDK. A Telemetry
// value owns the three signal pipelines (metrics, traces, logs), the
// common attribute state, and the live connection-change protocol that
// redirects all of them to a new destination without recreating any
// processor.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	otellog "go.opentelemetry.io/otel/log"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anaconda/anaconda-otel-go/internal/connection"
	"github.com/anaconda/anaconda-otel-go/internal/shim"
	"github.com/anaconda/anaconda-otel-go/pkg/config"
	"github.com/anaconda/anaconda-otel-go/pkg/logging"
	"github.com/anaconda/anaconda-otel-go/pkg/logs"
	"github.com/anaconda/anaconda-otel-go/pkg/metric"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
	"github.com/anaconda/anaconda-otel-go/pkg/trace"
)

const instrumentationName = "github.com/anaconda/anaconda-otel-go"

// Telemetry is the application's handle on the SDK. It is created once
// with New and passed explicitly; there is no package-level singleton.
type Telemetry struct {
	log   *zap.Logger
	cfg   config.Config
	res   *resource.Resource
	attrs *attributeState

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider

	metricsConn *connection.Connection[*metricdata.ResourceMetrics]
	tracesConn  *connection.Connection[[]sdktrace.ReadOnlySpan]
	logsConn    *connection.Connection[[]sdklog.Record]

	meter  otelmetric.Meter
	tracer oteltrace.Tracer
	logger otellog.Logger

	promRegistry *prometheus.Registry

	instruments instrumentCache
	shutdown    atomic.Bool
}

// Option customizes construction of a Telemetry.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger supplies the zap logger the SDK reports its own failures
// to. Defaults to a production JSON logger on stdout.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New initializes every enabled signal pipeline against the configured
// destination. The returned Telemetry is ready for recording; Shutdown
// must be called at process end.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = logging.New(false, false, zapcore.InfoLevel)
	}
	log = log.Named("telemetry")

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{
		log:   log,
		cfg:   cfg,
		res:   res,
		attrs: newAttributeState(cfg.UserID),
	}
	t.instruments.init()

	if cfg.Metrics.Enabled {
		if err := t.initMetrics(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Traces.Enabled {
		if err := t.initTraces(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Logs.Enabled {
		if err := t.initLogs(ctx); err != nil {
			return nil, err
		}
	}

	log.Info("Telemetry initialized",
		zap.String("service", cfg.ServiceName),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("traces", cfg.Traces.Enabled),
		zap.Bool("logs", cfg.Logs.Enabled),
	)

	return t, nil
}

func buildResource(ctx context.Context, cfg config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)),
		resource.WithAttributes(semconv.ServiceVersionKey.String(cfg.ServiceVersion)),
		resource.WithAttributes(semconv.ServiceInstanceIDKey.String(uuid.NewString())),
		resource.WithAttributes(semconv.DeploymentEnvironmentKey.String(cfg.Environment)),
		resource.WithProcessPID(),
		resource.WithOSType(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
}

func (t *Telemetry) initMetrics(ctx context.Context) error {
	target := targetFor(t.cfg, otelconfig.SignalMetrics)

	build := func(ctx context.Context, target connection.Target) (shim.Sink[*metricdata.ResourceMetrics], error) {
		exp, err := metric.BuildSink(ctx, t.log, target)
		if err != nil {
			return nil, err
		}
		if t.cfg.Debug {
			exp = metric.NewDebugExporter(exp, t.log)
		}
		return exp, nil
	}

	initial, err := build(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to build metrics sink: %w", err)
	}

	sh := shim.New[*metricdata.ResourceMetrics](initial)

	var extraReaders []sdkmetric.Reader
	if t.cfg.Metrics.Prometheus.Enabled {
		reader, registry, err := metric.NewPrometheusReader()
		if err != nil {
			return fmt.Errorf("failed to create prometheus reader: %w", err)
		}
		t.promRegistry = registry
		extraReaders = append(extraReaders, reader)
	}

	t.meterProvider = metric.NewMeterProvider(t.res, metric.NewSwappableExporter(sh), t.cfg.Metrics, extraReaders...)
	t.meter = t.meterProvider.Meter(instrumentationName)
	t.metricsConn = connection.New(t.log, otelconfig.SignalMetrics, sh, target,
		build, t.meterProvider.ForceFlush, t.cfg.DrainTimeout)
	return nil
}

func (t *Telemetry) initTraces(ctx context.Context) error {
	target := targetFor(t.cfg, otelconfig.SignalTraces)

	build := func(ctx context.Context, target connection.Target) (shim.Sink[[]sdktrace.ReadOnlySpan], error) {
		exp, err := trace.BuildSink(ctx, t.log, target)
		if err != nil {
			return nil, err
		}
		return trace.WrapSink(exp), nil
	}

	initial, err := build(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to build traces sink: %w", err)
	}

	sh := shim.New[[]sdktrace.ReadOnlySpan](initial)
	t.tracerProvider = trace.NewTracerProvider(t.res, trace.NewSwappableExporter(sh), t.cfg.Traces)
	t.tracer = t.tracerProvider.Tracer(instrumentationName)
	t.tracesConn = connection.New(t.log, otelconfig.SignalTraces, sh, target,
		build, t.tracerProvider.ForceFlush, t.cfg.DrainTimeout)
	return nil
}

func (t *Telemetry) initLogs(ctx context.Context) error {
	target := targetFor(t.cfg, otelconfig.SignalLogs)

	build := func(ctx context.Context, target connection.Target) (shim.Sink[[]sdklog.Record], error) {
		return logs.BuildSink(ctx, t.log, target)
	}

	initial, err := build(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to build logs sink: %w", err)
	}

	sh := shim.New[[]sdklog.Record](initial)
	t.loggerProvider = logs.NewLoggerProvider(t.res, logs.NewSwappableExporter(sh), t.cfg.Logs)
	t.logger = t.loggerProvider.Logger(instrumentationName)
	t.logsConn = connection.New(t.log, otelconfig.SignalLogs, sh, target,
		build, t.loggerProvider.ForceFlush, t.cfg.DrainTimeout)
	return nil
}

func targetFor(cfg config.Config, sig otelconfig.Signal) connection.Target {
	ep := cfg.EndpointFor(sig)
	return connection.Target{
		Endpoint:  ep.URL,
		AuthToken: ep.AuthToken,
		CertFile:  ep.CertFile,
	}
}

// ChangeConnectionOptions carries the fields of a live destination
// change. Empty fields keep their current values.
type ChangeConnectionOptions struct {
	Endpoint  string
	AuthToken string
	CertFile  string
	UserID    string
}

// ChangeConnection redirects every enabled signal to a new destination.
// It never returns an error: false means the change was rejected (for
// example, an invalid endpoint) and the previous destination is still
// in place.
//
// A supplied user ID is applied to the common attribute state before
// the endpoint is validated, so it sticks even when the endpoint part
// of the change is rejected. This mirrors the long-standing behavior of
// the SDK's other language implementations.
func (t *Telemetry) ChangeConnection(ctx context.Context, opts ChangeConnectionOptions) bool {
	if userID := strings.TrimSpace(opts.UserID); userID != "" {
		t.attrs.setUserID(userID)
	}

	change := connection.ChangeOptions{
		Endpoint:  opts.Endpoint,
		AuthToken: opts.AuthToken,
		CertFile:  opts.CertFile,
	}

	ok := true
	if t.metricsConn != nil {
		ok = t.metricsConn.Change(ctx, change) && ok
	}
	if t.tracesConn != nil {
		ok = t.tracesConn.Change(ctx, change) && ok
	}
	if t.logsConn != nil {
		ok = t.logsConn.Change(ctx, change) && ok
	}
	return ok
}

// SetUserID updates the user attribute attached to every measurement,
// span, and log record. Blank values are ignored.
func (t *Telemetry) SetUserID(userID string) {
	if userID = strings.TrimSpace(userID); userID != "" {
		t.attrs.setUserID(userID)
	}
}

// Flush drains every enabled pipeline. Failures are aggregated, not
// short-circuited: each signal gets its chance to flush.
func (t *Telemetry) Flush(ctx context.Context) error {
	var result *multierror.Error
	if t.meterProvider != nil {
		result = multierror.Append(result, t.meterProvider.ForceFlush(ctx))
	}
	if t.tracerProvider != nil {
		result = multierror.Append(result, t.tracerProvider.ForceFlush(ctx))
	}
	if t.loggerProvider != nil {
		result = multierror.Append(result, t.loggerProvider.ForceFlush(ctx))
	}
	return result.ErrorOrNil()
}

// Shutdown flushes and tears down every pipeline. It is safe to call
// more than once; only the first call does work.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	var result *multierror.Error
	if t.meterProvider != nil {
		result = multierror.Append(result, t.meterProvider.Shutdown(ctx))
	}
	if t.tracerProvider != nil {
		result = multierror.Append(result, t.tracerProvider.Shutdown(ctx))
	}
	if t.loggerProvider != nil {
		result = multierror.Append(result, t.loggerProvider.Shutdown(ctx))
	}

	t.log.Info("Telemetry shut down")
	return result.ErrorOrNil()
}

// MeterProvider exposes the SDK meter provider, for callers that want
// to create their own instruments.
func (t *Telemetry) MeterProvider() *sdkmetric.MeterProvider { return t.meterProvider }

// TracerProvider exposes the SDK tracer provider.
func (t *Telemetry) TracerProvider() *sdktrace.TracerProvider { return t.tracerProvider }

// LoggerProvider exposes the SDK logger provider.
func (t *Telemetry) LoggerProvider() *sdklog.LoggerProvider { return t.loggerProvider }

// PrometheusRegistry returns the scrape registry when the Prometheus
// reader is enabled, nil otherwise.
func (t *Telemetry) PrometheusRegistry() *prometheus.Registry { return t.promRegistry }
