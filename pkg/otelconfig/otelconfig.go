// Package otelconfig holds the shared vocabulary of the SDK: signal
// kinds, sink kinds, default endpoints, and endpoint validation.
package otelconfig

import (
	"fmt"
	"net/url"
	"os"
)

// Signal identifies one of the three independent telemetry streams.
type Signal string

const (
	SignalMetrics Signal = "metrics"
	SignalTraces  Signal = "traces"
	SignalLogs    Signal = "logs"
)

// SinkKind is the closed set of destinations a signal can be wired to.
// Each kind carries its own construction path; there is no open
// constructor registry.
type SinkKind string

const (
	// SinkKindOTLPHTTP exports over OTLP/HTTP (http and https schemes).
	SinkKindOTLPHTTP SinkKind = "otlphttp"
	// SinkKindOTLPGRPC exports over OTLP/gRPC (grpc and grpcs schemes).
	SinkKindOTLPGRPC SinkKind = "otlpgrpc"
	// SinkKindConsole writes human-readable output to stdout.
	SinkKindConsole SinkKind = "console"
	// SinkKindDevNull discards everything.
	SinkKindDevNull SinkKind = "devnull"
)

const (
	// DefaultEndpointFallback is used when no endpoint is configured
	// anywhere. 4318 is the standard OTLP/HTTP collector port.
	DefaultEndpointFallback = "http://localhost:4318"

	DefaultMetricsPath = "/v1/metrics"
	DefaultTracesPath  = "/v1/traces"
	DefaultLogsPath    = "/v1/logs"
)

// DefaultEndpoint returns the endpoint used when none is configured.
func DefaultEndpoint() string {
	// Allow overriding this during development.
	if ep := os.Getenv("ATEL_DEFAULT_ENDPOINT"); ep != "" {
		return ep
	}
	return DefaultEndpointFallback
}

// DefaultHTTPPath returns the standard OTLP/HTTP URL path for a signal.
func DefaultHTTPPath(sig Signal) string {
	switch sig {
	case SignalMetrics:
		return DefaultMetricsPath
	case SignalTraces:
		return DefaultTracesPath
	case SignalLogs:
		return DefaultLogsPath
	}
	return ""
}

// EndpointHeaders returns the headers required to authenticate against
// an endpoint with a bearer token. An empty token yields no headers.
func EndpointHeaders(authToken string) map[string]string {
	if authToken == "" {
		return nil
	}
	return map[string]string{
		"Authorization": "Bearer " + authToken,
	}
}

// SinkKindForScheme maps a URL scheme to its sink kind. The mapping is
// exhaustive over the supported schemes; anything else is an error.
func SinkKindForScheme(scheme string) (SinkKind, error) {
	switch scheme {
	case "http", "https":
		return SinkKindOTLPHTTP, nil
	case "grpc", "grpcs":
		return SinkKindOTLPGRPC, nil
	case "console":
		return SinkKindConsole, nil
	case "devnull":
		return SinkKindDevNull, nil
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", scheme)
	}
}

// IsSecureScheme reports whether the scheme implies TLS on the wire.
func IsSecureScheme(scheme string) bool {
	return scheme == "https" || scheme == "grpcs"
}

// ParseEndpoint parses and validates a telemetry endpoint URL. The
// scheme must be one of the supported ones, and network schemes must
// carry a host.
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	kind, err := SinkKindForScheme(u.Scheme)
	if err != nil {
		return nil, err
	}
	switch kind {
	case SinkKindOTLPHTTP, SinkKindOTLPGRPC:
		if u.Host == "" {
			return nil, fmt.Errorf("endpoint %q has no host", raw)
		}
	}
	return u, nil
}

// IsValidEndpointURL reports whether raw is an endpoint the SDK can
// build a sink for.
func IsValidEndpointURL(raw string) bool {
	_, err := ParseEndpoint(raw)
	return err == nil
}
