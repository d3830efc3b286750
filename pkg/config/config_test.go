package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// No config file, no env: everything comes from defaults.
	result, err := LoadConfig(filepath.Join(t.TempDir(), "telemetry.yaml"))
	require.Error(t, err) // explicit missing file is an error

	result, err = LoadConfig("")
	require.NoError(t, err)
	cfg := result.Config

	assert.Equal(t, "unknown_service", cfg.ServiceName)
	assert.Equal(t, otelconfig.DefaultEndpoint(), cfg.Endpoint)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Traces.Enabled)
	assert.True(t, cfg.Logs.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval)
	assert.Equal(t, 5*time.Second, cfg.Traces.BatchTimeout)
	assert.Equal(t, float64(1), cfg.Traces.SamplingRate)
	assert.Zero(t, cfg.DrainTimeout)
}

func TestLoadConfigFileOverridesEnv(t *testing.T) {
	t.Setenv("ATEL_SERVICE_NAME", "from-env")
	t.Setenv("ATEL_METRICS_EXPORT_INTERVAL", "30s")

	path := writeConfigFile(t, `
service_name: from-file
endpoint: http://collector:4318
auth_token: tok
metrics:
  enabled: true
  export_interval: 60s
`)

	result, err := LoadConfig(path)
	require.NoError(t, err)
	cfg := result.Config

	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, "http://collector:4318", cfg.Endpoint)
	assert.Equal(t, time.Minute, cfg.Metrics.ExportInterval)
}

func TestLoadConfigExpandsEnvInFile(t *testing.T) {
	t.Setenv("COLLECTOR_HOST", "otel.internal")

	path := writeConfigFile(t, "endpoint: http://${COLLECTOR_HOST}:4318\n")

	result, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://otel.internal:4318", result.Config.Endpoint)
}

func TestLoadConfigRejectsInvalidEndpoint(t *testing.T) {
	path := writeConfigFile(t, "endpoint: ftp://host:21\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestEndpointFor(t *testing.T) {
	cfg := Config{
		Endpoint:  "http://shared:4318",
		AuthToken: "shared-token",
		CertFile:  "/etc/ssl/shared.pem",
		Traces: Traces{
			Override: SignalOverride{
				Endpoint:  "grpc://traces:4317",
				AuthToken: "traces-token",
			},
		},
	}

	t.Run("no override falls back to shared tuple", func(t *testing.T) {
		ep := cfg.EndpointFor(otelconfig.SignalMetrics)
		assert.Equal(t, "http://shared:4318", ep.URL)
		assert.Equal(t, "shared-token", ep.AuthToken)
		assert.Equal(t, "/etc/ssl/shared.pem", ep.CertFile)
	})

	t.Run("override wins field by field", func(t *testing.T) {
		ep := cfg.EndpointFor(otelconfig.SignalTraces)
		assert.Equal(t, "grpc://traces:4317", ep.URL)
		assert.Equal(t, "traces-token", ep.AuthToken)
		// Cert file was not overridden and falls through.
		assert.Equal(t, "/etc/ssl/shared.pem", ep.CertFile)
	})

	t.Run("empty shared endpoint uses the default", func(t *testing.T) {
		ep := Config{}.EndpointFor(otelconfig.SignalLogs)
		assert.Equal(t, otelconfig.DefaultEndpoint(), ep.URL)
	})
}
