// Package config resolves the SDK configuration from a YAML file and
// the environment. Environment variables provide defaults and
// fallbacks; values from the config file win. `${VAR}` references
// inside the file are expanded before parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/anaconda/anaconda-otel-go/pkg/otelconfig"
)

const DefaultConfigPath = "telemetry.yaml"

// Endpoint is one signal's destination tuple.
type Endpoint struct {
	URL       string
	AuthToken string
	CertFile  string
}

// SignalOverride lets a single signal diverge from the shared
// destination. Empty fields fall back to the top-level values.
type SignalOverride struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	AuthToken string `yaml:"auth_token,omitempty"`
	CertFile  string `yaml:"cert_file,omitempty"`
}

type Prometheus struct {
	Enabled bool `yaml:"enabled" env:"ATEL_PROMETHEUS_ENABLED" envDefault:"false"`
}

type Metrics struct {
	Enabled        bool           `yaml:"enabled" env:"ATEL_METRICS_ENABLED" envDefault:"true"`
	Override       SignalOverride `yaml:"override,omitempty"`
	ExportInterval time.Duration  `yaml:"export_interval,omitempty" env:"ATEL_METRICS_EXPORT_INTERVAL" envDefault:"15s"`
	ExportTimeout  time.Duration  `yaml:"export_timeout,omitempty" env:"ATEL_METRICS_EXPORT_TIMEOUT" envDefault:"30s"`
	Prometheus     Prometheus     `yaml:"prometheus,omitempty"`
}

type Traces struct {
	Enabled       bool           `yaml:"enabled" env:"ATEL_TRACES_ENABLED" envDefault:"true"`
	Override      SignalOverride `yaml:"override,omitempty"`
	BatchTimeout  time.Duration  `yaml:"batch_timeout,omitempty" env:"ATEL_TRACES_BATCH_TIMEOUT" envDefault:"5s"`
	ExportTimeout time.Duration  `yaml:"export_timeout,omitempty" env:"ATEL_TRACES_EXPORT_TIMEOUT" envDefault:"30s"`
	SamplingRate  float64        `yaml:"sampling_rate,omitempty" env:"ATEL_TRACES_SAMPLING_RATE" envDefault:"1"`
}

type Logs struct {
	Enabled        bool           `yaml:"enabled" env:"ATEL_LOGS_ENABLED" envDefault:"true"`
	Override       SignalOverride `yaml:"override,omitempty"`
	ExportInterval time.Duration  `yaml:"export_interval,omitempty" env:"ATEL_LOGS_EXPORT_INTERVAL" envDefault:"5s"`
	ExportTimeout  time.Duration  `yaml:"export_timeout,omitempty" env:"ATEL_LOGS_EXPORT_TIMEOUT" envDefault:"30s"`
}

type Config struct {
	ServiceName    string `yaml:"service_name" env:"ATEL_SERVICE_NAME" envDefault:"unknown_service"`
	ServiceVersion string `yaml:"service_version,omitempty" env:"ATEL_SERVICE_VERSION" envDefault:"dev"`
	Environment    string `yaml:"environment,omitempty" env:"ATEL_ENVIRONMENT" envDefault:"development"`

	// Shared destination for all signals unless overridden per signal.
	Endpoint  string `yaml:"endpoint,omitempty" env:"ATEL_ENDPOINT"`
	AuthToken string `yaml:"auth_token,omitempty" env:"ATEL_AUTH_TOKEN"`
	CertFile  string `yaml:"cert_file,omitempty" env:"ATEL_CERT_FILE"`

	// UserID is applied as a common attribute on every measurement,
	// span, and log record.
	UserID string `yaml:"user_id,omitempty" env:"ATEL_USER_ID"`

	// DrainTimeout bounds the flush and old-sink teardown during a
	// connection change. Zero lets a hung sink block indefinitely.
	DrainTimeout time.Duration `yaml:"drain_timeout,omitempty" env:"ATEL_DRAIN_TIMEOUT"`

	// Debug wraps every sink in a decorator that logs each export.
	Debug bool `yaml:"debug,omitempty" env:"ATEL_DEBUG"`

	Metrics Metrics `yaml:"metrics,omitempty"`
	Traces  Traces  `yaml:"traces,omitempty"`
	Logs    Logs    `yaml:"logs,omitempty"`
}

type LoadResult struct {
	Config        Config
	DefaultLoaded bool
}

// LoadConfig reads the configuration. The file path argument takes
// precedence over ATEL_CONFIG_PATH; a missing file is only an error
// when it was requested explicitly.
func LoadConfig(configFilePath string) (*LoadResult, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := &LoadResult{
		Config:        Config{},
		DefaultLoaded: true,
	}

	// Load the environment variables into the config first; the file
	// overrides them.
	if err := env.Parse(&cfg.Config); err != nil {
		return nil, err
	}

	if configFilePath == "" {
		configFilePath = os.Getenv("ATEL_CONFIG_PATH")
		if configFilePath == "" {
			configFilePath = DefaultConfigPath
		}
	}

	isDefaultConfigPath := configFilePath == DefaultConfigPath
	configFileBytes, err := os.ReadFile(configFilePath)
	if err != nil {
		if isDefaultConfigPath {
			cfg.DefaultLoaded = false
		} else {
			return nil, fmt.Errorf("could not read config file %s: %w", configFilePath, err)
		}
	}

	if configFileBytes != nil {
		configYamlData := os.ExpandEnv(string(configFileBytes))
		if err := yaml.Unmarshal([]byte(configYamlData), &cfg.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal telemetry config: %w", err)
		}
	}

	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every configured endpoint up front so an invalid
// destination fails at initialization rather than at the first export.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		c.Endpoint = otelconfig.DefaultEndpoint()
	}
	if !otelconfig.IsValidEndpointURL(c.Endpoint) {
		return fmt.Errorf("invalid endpoint %q", c.Endpoint)
	}
	for _, o := range []SignalOverride{c.Metrics.Override, c.Traces.Override, c.Logs.Override} {
		if o.Endpoint != "" && !otelconfig.IsValidEndpointURL(o.Endpoint) {
			return fmt.Errorf("invalid signal endpoint %q", o.Endpoint)
		}
	}
	return nil
}

// EndpointFor resolves the destination tuple for a signal, applying the
// per-signal override over the shared destination field by field.
func (c Config) EndpointFor(sig otelconfig.Signal) Endpoint {
	ep := Endpoint{
		URL:       c.Endpoint,
		AuthToken: c.AuthToken,
		CertFile:  c.CertFile,
	}
	if ep.URL == "" {
		ep.URL = otelconfig.DefaultEndpoint()
	}

	var o SignalOverride
	switch sig {
	case otelconfig.SignalMetrics:
		o = c.Metrics.Override
	case otelconfig.SignalTraces:
		o = c.Traces.Override
	case otelconfig.SignalLogs:
		o = c.Logs.Override
	}
	if o.Endpoint != "" {
		ep.URL = o.Endpoint
	}
	if o.AuthToken != "" {
		ep.AuthToken = o.AuthToken
	}
	if o.CertFile != "" {
		ep.CertFile = o.CertFile
	}
	return ep
}
