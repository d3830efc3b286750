// Package connection implements the live connection-change protocol
// shared by the metrics, traces, and logs pipelines: validate the new
// target, build a new sink for it, drain what is buffered against the
// old sink, swap, and tear the old sink down in the background.
package connection

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anaconda/anaconda-otel-go/internal/shim"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
)

// Target is one signal's destination: where to send, how to
// authenticate, and which CA to trust.
type Target struct {
	Endpoint  string
	AuthToken string
	CertFile  string
}

// ChangeOptions carries the fields of a connection change. An empty
// field keeps the current value; there is no way to clear a value, only
// to replace it.
type ChangeOptions struct {
	Endpoint  string
	AuthToken string
	CertFile  string
}

func (t Target) merged(opts ChangeOptions) Target {
	if opts.Endpoint != "" {
		t.Endpoint = opts.Endpoint
	}
	if opts.AuthToken != "" {
		t.AuthToken = opts.AuthToken
	}
	if opts.CertFile != "" {
		t.CertFile = opts.CertFile
	}
	return t
}

// Builder constructs a sink for a validated target.
type Builder[T any] func(ctx context.Context, target Target) (shim.Sink[T], error)

// Flusher drains the signal's processor so batches buffered against the
// old sink are exported before the swap.
type Flusher func(ctx context.Context) error

// Connection owns one signal's target and shim and runs the change
// protocol against them. The processor above the shim is never touched:
// data already enqueued there survives a destination swap.
type Connection[T any] struct {
	log          *zap.Logger
	signal       otelconfig.Signal
	shim         *shim.Shim[T]
	build        Builder[T]
	flush        Flusher
	drainTimeout time.Duration

	mu     syncMutex
	target Target
}

// syncMutex is a tiny channel semaphore serializing Change calls. Only
// one change may be merging and swapping at a time; exports are
// serialized separately by the shim.
type syncMutex chan struct{}

func (m syncMutex) lock()   { m <- struct{}{} }
func (m syncMutex) unlock() { <-m }

// New returns a Connection for one signal. drainTimeout bounds the
// pre-swap flush and the background teardown of the old sink; zero
// means unbounded, which mirrors the behavior of letting a hung sink
// block forever.
func New[T any](log *zap.Logger, signal otelconfig.Signal, sh *shim.Shim[T], target Target, build Builder[T], flush Flusher, drainTimeout time.Duration) *Connection[T] {
	return &Connection[T]{
		log:          log.With(zap.String("signal", string(signal))),
		signal:       signal,
		shim:         sh,
		build:        build,
		flush:        flush,
		drainTimeout: drainTimeout,
		mu:           make(syncMutex, 1),
		target:       target,
	}
}

// Target returns the current destination.
func (c *Connection[T]) Target() Target {
	c.mu.lock()
	defer c.mu.unlock()
	return c.target
}

// Change redirects the signal to a new destination. It never panics and
// never returns an error: the outcome is a bool, false meaning the
// change was rejected and no state was mutated.
//
// The swap, not the old sink's teardown, is the point of no return:
// once the new sink is installed the change reports success even if the
// old sink fails to shut down.
func (c *Connection[T]) Change(ctx context.Context, opts ChangeOptions) bool {
	c.mu.lock()
	defer c.mu.unlock()

	next := c.target.merged(opts)

	if !otelconfig.IsValidEndpointURL(next.Endpoint) {
		c.log.Warn("Rejecting connection change, invalid endpoint",
			zap.String("endpoint", next.Endpoint),
		)
		return false
	}

	sink, err := c.build(ctx, next)
	if err != nil {
		c.log.Warn("Rejecting connection change, could not build sink",
			zap.String("endpoint", next.Endpoint),
			zap.Error(err),
		)
		return false
	}

	// Drain batches buffered against the old sink. Best effort: a
	// flush failure loses data but must not abort the change.
	if c.flush != nil {
		flushCtx, cancel := c.drainContext(ctx)
		if err := c.flush(flushCtx); err != nil {
			c.log.Warn("Flushing before connection change failed, continuing",
				zap.Error(err),
			)
		}
		cancel()
	}

	old, err := c.shim.Swap(ctx, sink)
	if err != nil {
		// Swap only fails when ctx is done before the shim mutex is
		// acquired. The new sink was never installed; release it.
		c.log.Warn("Connection change aborted before swap", zap.Error(err))
		c.retire(sink)
		return false
	}

	c.target = next
	c.log.Info("Connection changed",
		zap.String("endpoint", next.Endpoint),
	)

	// Tear the old sink down outside the shim mutex so a slow network
	// teardown never blocks exports against the new sink.
	go c.retire(old)

	return true
}

// retire shuts a replaced sink down under the drain timeout. The sink
// is called directly rather than through a shim, so a panic must be
// contained here: retire runs on its own goroutine, where an escaping
// panic would kill the process.
func (c *Connection[T]) retire(sink shim.Sink[T]) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("Shutting down replaced sink panicked",
				zap.Any("panic", r),
			)
		}
	}()

	shutdownCtx, cancel := c.drainContext(context.Background())
	defer cancel()
	if err := sink.Shutdown(shutdownCtx); err != nil {
		c.log.Warn("Shutting down replaced sink failed", zap.Error(err))
	}
}

func (c *Connection[T]) drainContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.drainTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, c.drainTimeout)
}
