package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFormats(t *testing.T) {
	t.Setenv("DAP_VERSION", "dods/2.14")

	files := map[string]string{
		"cfg.yaml": `
name: svc
codec:
  server_version: ${DAP_VERSION}
  single_string_count: true
compression:
  algorithm: gzip
`,
		"cfg.toml": `
name = "svc"
[codec]
server_version = "${DAP_VERSION}"
single_string_count = true
[compression]
algorithm = "gzip"
`,
		"cfg.json": `{
  "name": "svc",
  "codec": {"server_version": "${DAP_VERSION}", "single_string_count": true},
  "compression": {"algorithm": "gzip"}
}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig("default")
			require.NoError(t, Load(writeFile(t, name, content), cfg))
			require.NoError(t, cfg.Validate())

			assert.Equal(t, "svc", cfg.Name)
			assert.True(t, cfg.Codec.SingleStringCount)
			// Unset values keep their defaults.
			assert.Equal(t, dap.DefaultMaxStringLength, cfg.Codec.MaxStringLength)
			assert.Equal(t, "info", cfg.Observability.LogLevel)

			v, err := cfg.Codec.Version()
			require.NoError(t, err)
			assert.Equal(t, dap.ServerVersion{Major: 2, Minor: 14}, v)
			assert.False(t, v.SequenceMarkers())

			cc, err := cfg.Compression.Config()
			require.NoError(t, err)
			assert.Equal(t, compression.Gzip, cc.Algorithm)
			assert.Equal(t, compression.Default, cc.Level)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	cfg := NewConfig("x")
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), cfg)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeConfig))

	err = Load(writeFile(t, "bad.json", "{"), cfg)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeConfig))

	assert.Error(t, Decode("ini", []byte("a=b"), cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no name", func(c *Config) { c.Name = "" }},
		{"string limit", func(c *Config) { c.Codec.MaxStringLength = 0 }},
		{"version", func(c *Config) { c.Codec.ServerVersion = "latest" }},
		{"algorithm", func(c *Config) { c.Compression.Algorithm = "rar" }},
		{"level", func(c *Config) { c.Compression.Level = "max" }},
		{"sample rate", func(c *Config) { c.Observability.TracingSampleRate = 2 }},
		{"encoding", func(c *Config) { c.Observability.LogEncoding = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("svc")
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeConfig))
		})
	}
}

func TestCodecOptions(t *testing.T) {
	cfg := NewConfig("svc")
	cfg.Codec.MaxStringLength = 8
	opts, err := cfg.Codec.Options()
	require.NoError(t, err)

	r := dap.NewReader(nopReader{}, opts...)
	assert.True(t, r.ServerVersion().IsZero())
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, nil }

func TestSaveRoundTrip(t *testing.T) {
	cfg := NewConfig("svc")
	cfg.Compression.Algorithm = "zstd"
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	loaded := NewConfig("other")
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, cfg, loaded)
}

func TestLoggerConfig(t *testing.T) {
	o := ObservabilityConfig{LogLevel: "debug", LogEncoding: "Console"}
	lc := o.Logger()
	assert.Equal(t, "console", lc.Encoding)
	assert.True(t, lc.Development)
	assert.Equal(t, "debug", lc.Level)
}

func TestTracingConfig(t *testing.T) {
	cfg := NewConfig("dapdump")
	tc, on := cfg.Observability.Tracing("1.0.0")
	assert.False(t, on)
	assert.Equal(t, "dapdump", tc.ServiceName)
	assert.Equal(t, "1.0.0", tc.ServiceVersion)
	assert.Equal(t, 0.1, tc.SamplingRate)
}
