package dods

import (
	"bufio"
	"context"
	"errors"
	"io"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"github.com/ajitpratap0/dap2/pkg/logger"
	"github.com/ajitpratap0/dap2/pkg/metrics"
	"github.com/ajitpratap0/dap2/pkg/observability"
)

// Decoder reads DODS responses from a stream.
type Decoder struct {
	r io.Reader
	s settings
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, s: buildSettings(opts)}
}

// Decode skips the DDS text up to the separator and reads the value of
// every selected top-level variable of ds. The selection must match the
// constraint the response was built with. On error ds holds partial values
// and should be discarded.
func (d *Decoder) Decode(ctx context.Context, ds *dap.Dataset) (Stats, error) {
	alg := d.s.algorithm()
	ctx = logger.WithDataset(ctx, ds.Name())
	ctx, span := observability.StartSpan(ctx, "dods.decode",
		attribute.String("dap2.dataset", ds.Name()),
		attribute.String("dap2.compression", alg))
	tr := metrics.StartTransfer(metrics.Decode, alg)

	stats, err := d.decode(ctx, ds, tr)
	stats.Bytes = tr.Bytes()
	stats.Duration = tr.Finish(err)
	span.SetAttribute("dap2.variables", stats.Variables)
	span.SetAttribute("dap2.bytes", stats.Bytes)
	span.End(err)

	log := logger.FromContext(ctx, d.s.log())
	if err != nil {
		log.Warn("failed to decode response",
			zap.Error(err),
			zap.Int("variables", stats.Variables),
			zap.Int64("bytes", stats.Bytes))
		return stats, err
	}
	log.Debug("response decoded",
		zap.Int("variables", stats.Variables),
		zap.Int64("bytes", stats.Bytes),
		zap.String("compression", alg),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

func (d *Decoder) decode(ctx context.Context, ds *dap.Dataset, tr *metrics.Transfer) (Stats, error) {
	var stats Stats
	br := bufio.NewReader(d.r)
	dds, err := ReadHeader(br)
	if err != nil {
		return stats, err
	}
	stats.DDS = dds

	body, err := compression.NewReader(br, d.s.compression.Algorithm)
	if err != nil {
		return stats, err
	}
	defer body.Close()

	opts := append(slices.Clone(d.s.codec), dap.WithProgress(NewProgress(ctx, tr)))
	r := dap.NewReader(body, opts...)
	for _, v := range ds.Members() {
		if !v.Selected() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, cancelled(err, v)
		}
		if err := dap.Deserialize(r, v); err != nil {
			return stats, err
		}
		tr.Variable(v.Kind().String())
		stats.Variables++
	}
	return stats, nil
}

// ReadHeader consumes the DDS text and the separator line from br and
// returns the text. The separator may end in CRLF.
func ReadHeader(br *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		line, err := br.ReadString('\n')
		if line == Separator || line == "Data:\r\n" {
			return b.String(), nil
		}
		b.WriteString(line)
		if b.Len() > maxHeader {
			return "", daperrors.Newf(daperrors.ErrorTypeDataRead,
				"no data separator in the first %d bytes", maxHeader)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", daperrors.Wrap(err, daperrors.ErrorTypeUnexpectedEOF,
					"stream ended before the data separator").
					WithDetail("offset", b.Len())
			}
			return "", daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to read DDS")
		}
	}
}
