package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/columnar"
	"github.com/ajitpratap0/dap2/pkg/config"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/declare"
	"github.com/ajitpratap0/dap2/pkg/dods"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dapdump version %s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	var (
		das    bool
		format string
		vars   []string
	)

	cmd := &cobra.Command{
		Use:   "describe <declaration>",
		Short: "Print the DDS, DAS or normalized document of a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args[0], vars)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case das:
				return ds.PrintDAS(out)
			case format == "" || format == "dds":
				return ds.Print(out, len(vars) > 0)
			default:
				return writeDocument(out, ds, format)
			}
		},
	}

	cmd.Flags().BoolVar(&das, "das", false, "Print the attribute response instead of the DDS")
	cmd.Flags().StringVarP(&format, "format", "f", "dds", "Output format (dds, yaml, json, toml)")
	cmd.Flags().StringSliceVar(&vars, "vars", nil, "Project these variables (dotted names)")
	return cmd
}

func newEncodeCmd(a *app) *cobra.Command {
	var (
		output string
		vars   []string
	)

	cmd := &cobra.Command{
		Use:   "encode <declaration>",
		Short: "Write the data response of a declaration carrying values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args[0], vars)
			if err != nil {
				return err
			}
			opts, err := a.codecOptions()
			if err != nil {
				return err
			}

			w, closeOut, err := create(cmd, output)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(w)
			stats, err := dods.NewEncoder(bw, opts...).Encode(cmd.Context(), ds)
			if err == nil {
				err = bw.Flush()
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			a.log.Info("response written",
				zap.String("output", output),
				zap.Int("variables", stats.Variables),
				zap.Int64("bytes", stats.Bytes),
				zap.Duration("duration", stats.Duration))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Response file, - for stdout")
	cmd.Flags().StringSliceVar(&vars, "vars", nil, "Project these variables (dotted names)")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		format string
		arrow  string
		output string
		vars   []string
	)

	cmd := &cobra.Command{
		Use:   "decode <declaration> <response>",
		Short: "Read a data response into the dataset a declaration describes",
		Long: `decode reads a data response using the declaration as its DDS. The
values are printed as a document, or one variable is exported as an Arrow
IPC file with --arrow.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args[0], vars)
			if err != nil {
				return err
			}
			opts, err := a.codecOptions()
			if err != nil {
				return err
			}

			f, err := os.Open(args[1]) //nolint:gosec // G304: path comes from the command line
			if err != nil {
				return err
			}
			defer f.Close()
			stats, err := dods.NewDecoder(f, opts...).Decode(cmd.Context(), ds)
			if err != nil {
				return err
			}
			a.log.Info("response read",
				zap.String("response", args[1]),
				zap.Int("variables", stats.Variables),
				zap.Int64("bytes", stats.Bytes),
				zap.Duration("duration", stats.Duration))

			w, closeOut, err := create(cmd, output)
			if err != nil {
				return err
			}
			if arrow != "" {
				err = exportArrow(w, ds, arrow, a.log)
			} else {
				err = writeDocument(w, ds, format)
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Document format (yaml, json, toml)")
	cmd.Flags().StringVar(&arrow, "arrow", "", "Export this variable as an Arrow IPC file")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringSliceVar(&vars, "vars", nil, "Project these variables (dotted names)")
	return cmd
}

func newRecompressCmd(a *app) *cobra.Command {
	var (
		to     string
		level  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "recompress <response>",
		Short: "Rewrite a data response with a different body compression",
		Long: `recompress reads a data response whose body uses the configured
compression and writes it again compressed with --to. The DDS text is copied
unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := a.cfg.Compression.Config()
			if err != nil {
				return err
			}
			target := config.CompressionConfig{Algorithm: to, Level: level}
			cc, err := target.Config()
			if err != nil {
				return err
			}

			resp, err := os.ReadFile(args[0]) //nolint:gosec // G304: path comes from the command line
			if err != nil {
				return err
			}
			out, err := dods.Recompress(resp, from.Algorithm, cc)
			if err != nil {
				return err
			}

			w, closeOut, err := create(cmd, output)
			if err != nil {
				return err
			}
			_, err = w.Write(out)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			a.log.Info("response recompressed",
				zap.String("from", string(from.Algorithm)),
				zap.String("to", string(cc.Algorithm)),
				zap.Int("in_bytes", len(resp)),
				zap.Int("out_bytes", len(out)))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "none", "Target body compression")
	cmd.Flags().StringVar(&level, "to-level", "default", "Target compression level")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	return cmd
}

// load builds the dataset a declaration file describes and applies the
// projection in vars.
func (a *app) load(path string, vars []string) (*dap.Dataset, error) {
	doc, err := declare.Load(path)
	if err != nil {
		return nil, err
	}
	ds, err := declare.NewBuilder(declare.WithLogger(a.log)).Build(doc)
	if err != nil {
		return nil, err
	}
	if err := project(ds, vars); err != nil {
		return nil, err
	}
	return ds, nil
}

// project selects the named variables and everything below them. An empty
// list leaves the dataset unconstrained.
func project(ds *dap.Dataset, vars []string) error {
	if len(vars) == 0 {
		return nil
	}
	for _, m := range ds.Members() {
		dap.SelectAll(m, false)
	}
	for _, name := range vars {
		v, err := ds.Find(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		dap.SelectAll(v, true)
		dap.Select(v)
	}
	return nil
}

func writeDocument(w io.Writer, ds *dap.Dataset, format string) error {
	data, err := declare.Marshal(declare.Describe(ds), format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func exportArrow(w io.Writer, ds *dap.Dataset, name string, log *zap.Logger) error {
	v, err := ds.Find(name)
	if err != nil {
		return err
	}
	return columnar.NewExporter(columnar.WithLogger(log)).WriteFile(w, v)
}

// create opens path for writing, or returns the command's output for "-".
func create(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
