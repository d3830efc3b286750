package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// instrumentCache keeps instruments keyed by name so repeated
// recordings with the same name reuse the same instrument instead of
// asking the meter again.
type instrumentCache struct {
	mu         sync.RWMutex
	counters   map[string]otelmetric.Int64Counter
	upDowns    map[string]otelmetric.Int64UpDownCounter
	histograms map[string]otelmetric.Float64Histogram
	gauges     map[string]otelmetric.Float64Gauge
}

func (c *instrumentCache) init() {
	c.counters = make(map[string]otelmetric.Int64Counter)
	c.upDowns = make(map[string]otelmetric.Int64UpDownCounter)
	c.histograms = make(map[string]otelmetric.Float64Histogram)
	c.gauges = make(map[string]otelmetric.Float64Gauge)
}

func (t *Telemetry) counter(name string) (otelmetric.Int64Counter, error) {
	t.instruments.mu.RLock()
	counter, ok := t.instruments.counters[name]
	t.instruments.mu.RUnlock()
	if ok {
		return counter, nil
	}

	t.instruments.mu.Lock()
	defer t.instruments.mu.Unlock()
	if counter, ok = t.instruments.counters[name]; ok {
		return counter, nil
	}
	counter, err := t.meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	t.instruments.counters[name] = counter
	return counter, nil
}

func (t *Telemetry) upDownCounter(name string) (otelmetric.Int64UpDownCounter, error) {
	t.instruments.mu.RLock()
	counter, ok := t.instruments.upDowns[name]
	t.instruments.mu.RUnlock()
	if ok {
		return counter, nil
	}

	t.instruments.mu.Lock()
	defer t.instruments.mu.Unlock()
	if counter, ok = t.instruments.upDowns[name]; ok {
		return counter, nil
	}
	counter, err := t.meter.Int64UpDownCounter(name)
	if err != nil {
		return nil, err
	}
	t.instruments.upDowns[name] = counter
	return counter, nil
}

func (t *Telemetry) histogram(name, unit string) (otelmetric.Float64Histogram, error) {
	t.instruments.mu.RLock()
	histogram, ok := t.instruments.histograms[name]
	t.instruments.mu.RUnlock()
	if ok {
		return histogram, nil
	}

	t.instruments.mu.Lock()
	defer t.instruments.mu.Unlock()
	if histogram, ok = t.instruments.histograms[name]; ok {
		return histogram, nil
	}
	histogram, err := t.meter.Float64Histogram(name, otelmetric.WithUnit(unit))
	if err != nil {
		return nil, err
	}
	t.instruments.histograms[name] = histogram
	return histogram, nil
}

func (t *Telemetry) gauge(name string) (otelmetric.Float64Gauge, error) {
	t.instruments.mu.RLock()
	gauge, ok := t.instruments.gauges[name]
	t.instruments.mu.RUnlock()
	if ok {
		return gauge, nil
	}

	t.instruments.mu.Lock()
	defer t.instruments.mu.Unlock()
	if gauge, ok = t.instruments.gauges[name]; ok {
		return gauge, nil
	}
	gauge, err := t.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	t.instruments.gauges[name] = gauge
	return gauge, nil
}

// IncrementCounter adds delta to the named counter. Recording is
// fire-and-forget: instrument creation failures are logged, never
// surfaced to the caller.
func (t *Telemetry) IncrementCounter(ctx context.Context, name string, delta int64, attrs ...attribute.KeyValue) {
	if t.meter == nil {
		return
	}
	counter, err := t.counter(name)
	if err != nil {
		t.log.Warn("Failed to create counter", zap.String("name", name), zap.Error(err))
		return
	}
	counter.Add(ctx, delta, otelmetric.WithAttributes(t.attrs.with(attrs...)...))
}

// RecordUpDownCounter adds delta, which may be negative, to the named
// up-down counter.
func (t *Telemetry) RecordUpDownCounter(ctx context.Context, name string, delta int64, attrs ...attribute.KeyValue) {
	if t.meter == nil {
		return
	}
	counter, err := t.upDownCounter(name)
	if err != nil {
		t.log.Warn("Failed to create up-down counter", zap.String("name", name), zap.Error(err))
		return
	}
	counter.Add(ctx, delta, otelmetric.WithAttributes(t.attrs.with(attrs...)...))
}

// RecordHistogram records value into the named histogram.
func (t *Telemetry) RecordHistogram(ctx context.Context, name, unit string, value float64, attrs ...attribute.KeyValue) {
	if t.meter == nil {
		return
	}
	histogram, err := t.histogram(name, unit)
	if err != nil {
		t.log.Warn("Failed to create histogram", zap.String("name", name), zap.Error(err))
		return
	}
	histogram.Record(ctx, value, otelmetric.WithAttributes(t.attrs.with(attrs...)...))
}

// RecordGauge records the latest value for the named gauge.
func (t *Telemetry) RecordGauge(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
	if t.meter == nil {
		return
	}
	gauge, err := t.gauge(name)
	if err != nil {
		t.log.Warn("Failed to create gauge", zap.String("name", name), zap.Error(err))
		return
	}
	gauge.Record(ctx, value, otelmetric.WithAttributes(t.attrs.with(attrs...)...))
}

// StartSpan starts a span carrying the common attributes. The caller
// must end the returned span.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if t.tracer == nil {
		return tracenoop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return t.tracer.Start(ctx, name, oteltrace.WithAttributes(t.attrs.with(attrs...)...))
}

// EmitLog emits a log record through the log pipeline.
func (t *Telemetry) EmitLog(ctx context.Context, severity otellog.Severity, body string, attrs ...otellog.KeyValue) {
	if t.logger == nil {
		return
	}
	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(otellog.StringValue(body))
	record.AddAttributes(t.attrs.logAttributes(attrs...)...)
	t.logger.Emit(ctx, record)
}
