package dods

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"github.com/ajitpratap0/dap2/pkg/logger"
	"github.com/ajitpratap0/dap2/pkg/metrics"
	"github.com/ajitpratap0/dap2/pkg/observability"
)

// Stats describes one finished transfer.
type Stats struct {
	// DDS is the declaration text written or skipped
	DDS string
	// Variables counts the top-level variables transferred
	Variables int
	// Bytes counts uncompressed body bytes
	Bytes    int64
	Duration time.Duration
}

// Encoder writes DODS responses to a stream.
type Encoder struct {
	w io.Writer
	s settings
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, s: buildSettings(opts)}
}

// Encode writes the constrained DDS of ds, the separator and the values of
// every selected top-level variable.
func (e *Encoder) Encode(ctx context.Context, ds *dap.Dataset) (Stats, error) {
	alg := e.s.algorithm()
	ctx = logger.WithDataset(ctx, ds.Name())
	ctx, span := observability.StartSpan(ctx, "dods.encode",
		attribute.String("dap2.dataset", ds.Name()),
		attribute.String("dap2.compression", alg))
	tr := metrics.StartTransfer(metrics.Encode, alg)

	stats, err := e.encode(ctx, ds, tr)
	stats.Bytes = tr.Bytes()
	stats.Duration = tr.Finish(err)
	span.SetAttribute("dap2.variables", stats.Variables)
	span.SetAttribute("dap2.bytes", stats.Bytes)
	span.End(err)

	log := logger.FromContext(ctx, e.s.log())
	if err != nil {
		log.Warn("failed to encode response",
			zap.Error(err),
			zap.Int("variables", stats.Variables),
			zap.Int64("bytes", stats.Bytes))
		return stats, err
	}
	log.Debug("response encoded",
		zap.Int("variables", stats.Variables),
		zap.Int64("bytes", stats.Bytes),
		zap.String("compression", alg),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

func (e *Encoder) encode(ctx context.Context, ds *dap.Dataset, tr *metrics.Transfer) (Stats, error) {
	var stats Stats
	if err := dap.CheckSemantics(ds, true); err != nil {
		return stats, err
	}

	var dds strings.Builder
	if err := ds.Print(&dds, true); err != nil {
		return stats, err
	}
	stats.DDS = dds.String()
	if _, err := io.WriteString(e.w, stats.DDS+Separator); err != nil {
		return stats, daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to write DDS")
	}

	body, err := compression.NewWriter(e.w, e.s.compression)
	if err != nil {
		return stats, err
	}
	w := dap.NewWriter(body, e.codecOptions(ctx, tr)...)
	for _, v := range ds.Members() {
		if !v.Selected() {
			continue
		}
		if err := ctx.Err(); err != nil {
			_ = body.Close()
			return stats, cancelled(err, v)
		}
		if err := dap.Serialize(w, v); err != nil {
			_ = body.Close()
			return stats, err
		}
		tr.Variable(v.Kind().String())
		stats.Variables++
	}
	if err := body.Close(); err != nil {
		return stats, daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to flush compressed body")
	}
	return stats, nil
}

func (e *Encoder) codecOptions(ctx context.Context, tr *metrics.Transfer) []dap.Option {
	return append(slices.Clone(e.s.codec), dap.WithProgress(NewProgress(ctx, tr)))
}

func (s settings) log() *zap.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

func cancelled(err error, next dap.Variable) error {
	return daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "transfer cancelled").
		WithDetail("variable", next.Name())
}
