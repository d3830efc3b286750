// Package shim provides a payload-generic facade over a replaceable
// telemetry sink. The sink behind a Shim can be swapped at any moment
// while exports are in flight; callers never observe a sink that is
// mid-replacement.
package shim

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/atomic"

	"github.com/anaconda/anaconda-otel-go/internal/syncx"
)

// ErrShutdown is returned by Export after the shim has been shut down.
var ErrShutdown = errors.New("exporter is shut down")

// Sink is the minimal capability set of one concrete telemetry
// destination: it can export a batch, drain its internal buffers, and
// release its resources. The OTLP exporters of the OpenTelemetry SDK
// satisfy this interface directly for metrics and logs; spans use a
// small adapter.
type Sink[T any] interface {
	Export(ctx context.Context, batch T) error
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Shim owns exactly one current Sink and serializes every operation on
// it through a FIFO hand-off mutex. Swap replaces the sink atomically
// with respect to Export, ForceFlush, and Shutdown: an export either
// completes against the old sink or queues behind the swap and runs
// against the new one, never both, never neither.
//
// Shutdown is idempotent at the shim level regardless of the wrapped
// sink's own behavior. Swap revives a shut-down shim by clearing the
// shutdown flag, which supports reconnect-after-teardown flows.
type Shim[T any] struct {
	mu       syncx.Mutex
	sink     Sink[T]
	shutdown atomic.Bool
}

// New returns a Shim bound to the given initial sink.
func New[T any](sink Sink[T]) *Shim[T] {
	return &Shim[T]{sink: sink}
}

// recovered invokes one sink operation and converts a panic into an
// error. Every sink call the shim makes goes through here: a
// misbehaving sink produces a FAILED result, never an escaping panic.
func recovered(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink %s panicked: %v", op, r)
		}
	}()
	return fn()
}

// Export forwards the batch to the current sink. A panic in the sink is
// recovered and converted to an error; nothing escapes to the caller of
// the export pipeline.
//
// The shutdown check ahead of the mutex is deliberately unsynchronized:
// it may be stale, but staleness only ever costs one extra export
// against a sink that is about to be retired.
func (s *Shim[T]) Export(ctx context.Context, batch T) error {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	return s.mu.RunExclusive(ctx, func() error {
		return recovered("export", func() error {
			return s.sink.Export(ctx, batch)
		})
	})
}

// ForceFlush drains the current sink's internal buffers. After shutdown
// it is a successful no-op.
func (s *Shim[T]) ForceFlush(ctx context.Context) error {
	if s.shutdown.Load() {
		return nil
	}
	return s.mu.RunExclusive(ctx, func() error {
		return recovered("flush", func() error {
			return s.sink.ForceFlush(ctx)
		})
	})
}

// Shutdown shuts the current sink down. Only the first call reaches the
// sink; later calls return nil immediately.
func (s *Shim[T]) Shutdown(ctx context.Context) error {
	if s.shutdown.Load() {
		return nil
	}
	return s.mu.RunExclusive(ctx, func() error {
		if s.shutdown.Load() {
			return nil
		}
		err := recovered("shutdown", func() error {
			return s.sink.Shutdown(ctx)
		})
		s.shutdown.Store(true)
		return err
	})
}

// Swap installs next as the current sink and returns the sink it
// replaced. The shutdown flag is cleared so a previously shut-down shim
// accepts exports again. The caller owns the returned sink and is
// expected to shut it down outside this shim's mutex, so a slow
// teardown of the old destination never blocks exports to the new one.
func (s *Shim[T]) Swap(ctx context.Context, next Sink[T]) (Sink[T], error) {
	var old Sink[T]
	err := s.mu.RunExclusive(ctx, func() error {
		old = s.sink
		s.sink = next
		s.shutdown.Store(false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}
