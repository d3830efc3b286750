package otelconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkKindForScheme(t *testing.T) {
	tests := []struct {
		scheme  string
		want    SinkKind
		wantErr bool
	}{
		{scheme: "http", want: SinkKindOTLPHTTP},
		{scheme: "https", want: SinkKindOTLPHTTP},
		{scheme: "grpc", want: SinkKindOTLPGRPC},
		{scheme: "grpcs", want: SinkKindOTLPGRPC},
		{scheme: "console", want: SinkKindConsole},
		{scheme: "devnull", want: SinkKindDevNull},
		{scheme: "udp", wantErr: true},
		{scheme: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			kind, err := SinkKindForScheme(tt.scheme)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, kind)
		})
	}
}

func TestIsValidEndpointURL(t *testing.T) {
	assert.True(t, IsValidEndpointURL("http://host:4318/v1/metrics"))
	assert.True(t, IsValidEndpointURL("https://collector.example.com"))
	assert.True(t, IsValidEndpointURL("grpc://host:4317"))
	assert.True(t, IsValidEndpointURL("grpcs://host:4317"))
	assert.True(t, IsValidEndpointURL("console:"))
	assert.True(t, IsValidEndpointURL("devnull:"))

	assert.False(t, IsValidEndpointURL("not-a-valid-url"))
	assert.False(t, IsValidEndpointURL("ftp://host:21"))
	assert.False(t, IsValidEndpointURL("http://"))
	assert.False(t, IsValidEndpointURL(""))
}

func TestDefaultEndpointOverride(t *testing.T) {
	t.Setenv("ATEL_DEFAULT_ENDPOINT", "http://otel.internal:4318")
	require.Equal(t, "http://otel.internal:4318", DefaultEndpoint())
}

func TestEndpointHeaders(t *testing.T) {
	require.Nil(t, EndpointHeaders(""))
	require.Equal(t, map[string]string{"Authorization": "Bearer tok"}, EndpointHeaders("tok"))
}

func TestDefaultHTTPPath(t *testing.T) {
	require.Equal(t, "/v1/metrics", DefaultHTTPPath(SignalMetrics))
	require.Equal(t, "/v1/traces", DefaultHTTPPath(SignalTraces))
	require.Equal(t, "/v1/logs", DefaultHTTPPath(SignalLogs))
}
