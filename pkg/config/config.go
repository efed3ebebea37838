// Package config provides the unified configuration for dap2 tools.
// A single Config structure carries every setting, organized into
// sections:
//   - Codec: wire limits and the protocol version to speak
//   - Compression: body compression of DODS responses
//   - Observability: logging, metrics and tracing
//
// Example usage:
//
//	cfg := config.NewConfig("dapdump")
//	cfg.Codec.ServerVersion = "dods/3.2"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"strings"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"github.com/ajitpratap0/dap2/pkg/logger"
	"github.com/ajitpratap0/dap2/pkg/observability"
)

// Config is the single configuration structure shared by the codec, the
// response encoder and the CLI.
type Config struct {
	// Name identifies the tool or service instance
	Name string `yaml:"name" json:"name" toml:"name"`

	// Codec settings for the binary wire format
	Codec CodecConfig `yaml:"codec" json:"codec" toml:"codec"`

	// Compression of DODS response bodies
	Compression CompressionConfig `yaml:"compression" json:"compression" toml:"compression"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability" toml:"observability"`
}

// CodecConfig contains wire format settings.
type CodecConfig struct {
	// MaxStringLength bounds the declared length of a string on the wire
	MaxStringLength int `yaml:"max_string_length" json:"max_string_length" toml:"max_string_length"`
	// ServerVersion is the peer's version token, e.g. "dods/3.2". Empty
	// means a current server.
	ServerVersion string `yaml:"server_version" json:"server_version" toml:"server_version"`
	// SingleStringCount writes string vectors with one element count
	// instead of two
	SingleStringCount bool `yaml:"single_string_count" json:"single_string_count" toml:"single_string_count"`
}

// CompressionConfig selects the response body encoding.
type CompressionConfig struct {
	// Algorithm is one of none, gzip, deflate, zstd, snappy, s2, lz4
	Algorithm string `yaml:"algorithm" json:"algorithm" toml:"algorithm"`
	// Level is one of fastest, default, better, best
	Level string `yaml:"level" json:"level" toml:"level"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" toml:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" toml:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" toml:"tracing_sample_rate"`
	// ServiceName is reported with every span
	ServiceName string `yaml:"service_name" json:"service_name" toml:"service_name"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" toml:"log_encoding"`
}

// NewConfig creates a Config with defaults for the named tool.
func NewConfig(name string) *Config {
	return &Config{
		Name: name,
		Codec: CodecConfig{
			MaxStringLength: dap.DefaultMaxStringLength,
		},
		Compression: CompressionConfig{
			Algorithm: string(compression.None),
			Level:     "default",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 0.1,
			ServiceName:       name,
			LogLevel:          "info",
			LogEncoding:       "json",
		},
	}
}

// Validate checks that every setting can be applied.
func (c *Config) Validate() error {
	if c.Name == "" {
		return daperrors.New(daperrors.ErrorTypeConfig, "name is required")
	}
	if c.Codec.MaxStringLength <= 0 {
		return daperrors.New(daperrors.ErrorTypeConfig, "codec.max_string_length must be positive")
	}
	if _, err := c.Codec.Version(); err != nil {
		return err
	}
	if _, err := c.Compression.Config(); err != nil {
		return err
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return daperrors.Newf(daperrors.ErrorTypeConfig, "observability.tracing_sample_rate %v is outside [0, 1]", r)
	}
	switch strings.ToLower(c.Observability.LogEncoding) {
	case "", "json", "console":
	default:
		return daperrors.Newf(daperrors.ErrorTypeConfig, "observability.log_encoding %q must be json or console",
			c.Observability.LogEncoding)
	}
	return nil
}

// Version parses the configured server version. An empty token yields the
// zero version, which speaks the current protocol.
func (c *CodecConfig) Version() (dap.ServerVersion, error) {
	if c.ServerVersion == "" {
		return dap.ServerVersion{}, nil
	}
	v, err := dap.ParseServerVersion(c.ServerVersion)
	if err != nil {
		return dap.ServerVersion{}, daperrors.Wrap(err, daperrors.ErrorTypeConfig, "invalid codec.server_version")
	}
	return v, nil
}

// Options returns the wire options matching the codec settings.
func (c *CodecConfig) Options() ([]dap.Option, error) {
	v, err := c.Version()
	if err != nil {
		return nil, err
	}
	opts := []dap.Option{dap.WithServerVersion(v)}
	if c.MaxStringLength > 0 {
		opts = append(opts, dap.WithMaxStringLength(c.MaxStringLength))
	}
	if c.SingleStringCount {
		opts = append(opts, dap.WithSingleStringCount())
	}
	return opts, nil
}

// Config returns the compression settings in the form the compression
// package takes.
func (c *CompressionConfig) Config() (*compression.Config, error) {
	algorithm, err := compression.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	level, err := compression.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return &compression.Config{Algorithm: algorithm, Level: level}, nil
}

// Logger returns the logger settings.
func (o *ObservabilityConfig) Logger() logger.Config {
	return logger.Config{
		Level:       o.LogLevel,
		Encoding:    strings.ToLower(o.LogEncoding),
		Development: strings.EqualFold(o.LogEncoding, "console"),
	}
}

// Tracing returns the tracer settings, or false when tracing is disabled.
func (o *ObservabilityConfig) Tracing(version string) (observability.Config, bool) {
	return observability.Config{
		ServiceName:    o.ServiceName,
		ServiceVersion: version,
		SamplingRate:   o.TracingSampleRate,
	}, o.EnableTracing
}
