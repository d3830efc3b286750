package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anaconda/anaconda-otel-go/internal/shim"
	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
)

type fakeSink struct {
	mu        sync.Mutex
	name      string
	exports   []int
	flushes   int
	shutdowns int
}

func (f *fakeSink) Export(_ context.Context, batch int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports = append(f.exports, batch)
	return nil
}

func (f *fakeSink) ForceFlush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeSink) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	return nil
}

func (f *fakeSink) shutdownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

func newTestConnection(t *testing.T, initial *fakeSink, build Builder[int], flush Flusher) (*Connection[int], *shim.Shim[int]) {
	t.Helper()
	sh := shim.New[int](initial)
	conn := New[int](zap.NewNop(), otelconfig.SignalMetrics, sh,
		Target{Endpoint: "http://host:4318", AuthToken: "tok-a"},
		build, flush, time.Second)
	return conn, sh
}

func TestChangeRejectsInvalidEndpoint(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	built := false
	conn, sh := newTestConnection(t, initial,
		func(context.Context, Target) (shim.Sink[int], error) {
			built = true
			return &fakeSink{}, nil
		}, nil)

	require.False(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "not-a-valid-url"}))
	require.False(t, built)

	// No state mutated: target unchanged, original sink still wired.
	require.Equal(t, "http://host:4318", conn.Target().Endpoint)
	require.NoError(t, sh.Export(context.Background(), 1))
	require.Equal(t, []int{1}, initial.exports)
}

func TestChangeRejectsBuilderFailure(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	conn, sh := newTestConnection(t, initial,
		func(context.Context, Target) (shim.Sink[int], error) {
			return nil, errors.New("no such scheme")
		}, nil)

	require.False(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "http://host2:4318"}))
	require.Equal(t, "http://host:4318", conn.Target().Endpoint)

	require.NoError(t, sh.Export(context.Background(), 2))
	require.Equal(t, []int{2}, initial.exports)
}

func TestChangeSwapsAndRetiresOldSink(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	replacement := &fakeSink{name: "replacement"}
	flushed := 0

	conn, sh := newTestConnection(t, initial,
		func(_ context.Context, target Target) (shim.Sink[int], error) {
			require.Equal(t, "http://host2:4318", target.Endpoint)
			// Omitted fields keep their current values.
			require.Equal(t, "tok-a", target.AuthToken)
			return replacement, nil
		},
		func(context.Context) error {
			flushed++
			return nil
		})

	require.True(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "http://host2:4318"}))
	require.Equal(t, 1, flushed)
	require.Equal(t, "http://host2:4318", conn.Target().Endpoint)

	// Exports after the change land only on the new sink.
	require.NoError(t, sh.Export(context.Background(), 3))
	require.Empty(t, initial.exports)
	require.Equal(t, []int{3}, replacement.exports)

	// The old sink is shut down in the background.
	require.Eventually(t, func() bool {
		return initial.shutdownCount() == 1
	}, time.Second, 10*time.Millisecond)
	require.Zero(t, replacement.shutdownCount())
}

// panicSink blows up on Shutdown, like a transport whose teardown hits
// a nil connection.
type panicSink struct {
	fakeSink
	shutdownCalled chan struct{}
}

func (p *panicSink) Shutdown(context.Context) error {
	close(p.shutdownCalled)
	panic("teardown blew up")
}

func TestChangeSurvivesPanickingRetiredSink(t *testing.T) {
	initial := &panicSink{shutdownCalled: make(chan struct{})}
	replacement := &fakeSink{name: "replacement"}

	sh := shim.New[int](initial)
	conn := New[int](zap.NewNop(), otelconfig.SignalMetrics, sh,
		Target{Endpoint: "http://host:4318"},
		func(context.Context, Target) (shim.Sink[int], error) {
			return replacement, nil
		}, nil, time.Second)

	require.True(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "http://host2:4318"}))

	// The background teardown must reach the sink and contain its
	// panic; an escaping panic here would kill the test process.
	select {
	case <-initial.shutdownCalled:
	case <-time.After(time.Second):
		t.Fatal("retired sink was never shut down")
	}

	require.NoError(t, sh.Export(context.Background(), 9))
	require.Equal(t, []int{9}, replacement.exports)
}

func TestChangeContinuesWhenFlushFails(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	replacement := &fakeSink{name: "replacement"}

	conn, _ := newTestConnection(t, initial,
		func(context.Context, Target) (shim.Sink[int], error) {
			return replacement, nil
		},
		func(context.Context) error {
			return errors.New("flush timed out")
		})

	require.True(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "http://host2:4318"}))
}

func TestChangeMergesAuthTokenOnly(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	var builtTarget Target

	conn, _ := newTestConnection(t, initial,
		func(_ context.Context, target Target) (shim.Sink[int], error) {
			builtTarget = target
			return &fakeSink{}, nil
		}, nil)

	// Rotating only the token keeps the endpoint.
	require.True(t, conn.Change(context.Background(), ChangeOptions{AuthToken: "tok-b"}))
	require.Equal(t, "http://host:4318", builtTarget.Endpoint)
	require.Equal(t, "tok-b", builtTarget.AuthToken)
	require.Equal(t, "tok-b", conn.Target().AuthToken)
}

func TestChangeToDevNullScheme(t *testing.T) {
	initial := &fakeSink{name: "initial"}
	conn, _ := newTestConnection(t, initial,
		func(_ context.Context, target Target) (shim.Sink[int], error) {
			kind, err := otelconfig.SinkKindForScheme("devnull")
			require.NoError(t, err)
			require.Equal(t, otelconfig.SinkKindDevNull, kind)
			return &fakeSink{}, nil
		}, nil)

	require.True(t, conn.Change(context.Background(), ChangeOptions{Endpoint: "devnull:"}))
	require.Equal(t, "devnull:", conn.Target().Endpoint)
}
