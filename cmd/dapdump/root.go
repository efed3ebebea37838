package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/config"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/dods"
	"github.com/ajitpratap0/dap2/pkg/logger"
	"github.com/ajitpratap0/dap2/pkg/metrics"
	"github.com/ajitpratap0/dap2/pkg/observability"
)

// app carries the settings resolved before a command runs.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "dapdump",
		Short: "dapdump - inspect, write and read DAP2 data responses",
		Long: `dapdump works with DAP2 (OPeNDAP) data responses: the DDS text of a
dataset followed by its XDR encoded values.

Datasets are declared in YAML, JSON or TOML documents. A document can carry
values, which encode writes as a response, and decode fills in the values of
a response read from a file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			_ = logger.Sync()
			return observability.Shutdown(context.Background())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML, TOML or JSON configuration file")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-encoding", "console", "Log encoding (json, console)")
	flags.String("compression", "none", "Body compression (none, gzip, deflate, zstd, snappy, s2, lz4)")
	flags.String("level", "default", "Compression level (fastest, default, better, best or 1-9)")
	flags.String("server-version", "", "Protocol version of the peer, e.g. dods/3.2; empty means current")
	flags.Int("max-string-length", dap.DefaultMaxStringLength, "Largest string accepted from a response")
	flags.Bool("single-string-count", false, "String vectors carry one element count instead of two")
	flags.Bool("metrics", true, "Publish Prometheus transfer metrics")
	flags.Bool("trace", false, "Export OpenTelemetry spans to stderr")

	a.v.SetEnvPrefix("DAPDUMP")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newVersionCmd(),
		newDescribeCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newRecompressCmd(a),
	)
	return root
}

// setup resolves the configuration, then initializes logging, metrics and
// tracing from it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig("dapdump")
	cfg.Observability.LogLevel = a.v.GetString("log-level")
	cfg.Observability.LogEncoding = a.v.GetString("log-encoding")
	if path := a.v.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return err
		}
	}

	set := func(key string, apply func()) {
		if a.v.IsSet(key) {
			apply()
		}
	}
	set("log-level", func() { cfg.Observability.LogLevel = a.v.GetString("log-level") })
	set("log-encoding", func() { cfg.Observability.LogEncoding = a.v.GetString("log-encoding") })
	set("compression", func() { cfg.Compression.Algorithm = a.v.GetString("compression") })
	set("level", func() { cfg.Compression.Level = a.v.GetString("level") })
	set("server-version", func() { cfg.Codec.ServerVersion = a.v.GetString("server-version") })
	set("max-string-length", func() { cfg.Codec.MaxStringLength = a.v.GetInt("max-string-length") })
	set("single-string-count", func() { cfg.Codec.SingleStringCount = a.v.GetBool("single-string-count") })
	set("metrics", func() { cfg.Observability.EnableMetrics = a.v.GetBool("metrics") })
	set("trace", func() { cfg.Observability.EnableTracing = a.v.GetBool("trace") })
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Observability.Logger())
	if err != nil {
		return err
	}
	logger.Set(log)
	a.log = log.With(zap.String("component", "dapdump"), zap.String("command", cmd.Name()))

	metrics.SetEnabled(cfg.Observability.EnableMetrics)
	if tc, on := cfg.Observability.Tracing(version); on {
		tc.Writer = cmd.ErrOrStderr()
		tc.SamplingRate = 1
		if err := observability.Init(tc); err != nil {
			return err
		}
	}
	return nil
}

// codecOptions returns the response codec options the configuration asks
// for.
func (a *app) codecOptions() ([]dods.Option, error) {
	cc, err := a.cfg.Compression.Config()
	if err != nil {
		return nil, err
	}
	wire, err := a.cfg.Codec.Options()
	if err != nil {
		return nil, err
	}
	return []dods.Option{
		dods.WithCompression(cc),
		dods.WithCodecOptions(wire...),
		dods.WithLogger(a.log),
	}, nil
}
