// Package compression provides stream compression for DODS response
// bodies. Servers may compress the binary body that follows the "Data:"
// separator; this package wraps a body stream in the matching encoder or
// decoder.
//
// # Algorithm Selection
//
//   - Gzip/Deflate: the encodings DAP2 peers negotiate over HTTP
//   - Zstd: best compression ratio, good speed
//   - Snappy/S2: best for speed, moderate compression
//   - LZ4: extremely fast, decent compression
//
// # Usage
//
//	w, err := compression.NewWriter(dst, &compression.Config{
//	    Algorithm: compression.Gzip,
//	    Level:     compression.Default,
//	})
//	// write the body, then
//	err = w.Close()
//
//	r, err := compression.NewReader(src, compression.Gzip)
//	defer r.Close()
package compression

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents deflate compression
	Deflate Algorithm = "deflate"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Deflate, Zstd, Snappy, S2, LZ4}

// ParseAlgorithm maps a name, or an HTTP Content-Encoding token, to an
// algorithm. The empty string and "identity" mean no compression.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch s := strings.ToLower(strings.TrimSpace(name)); s {
	case "", "identity":
		return None, nil
	case "x-gzip":
		return Gzip, nil
	default:
		for _, a := range Algorithms {
			if string(a) == s {
				return a, nil
			}
		}
	}
	return None, daperrors.Newf(daperrors.ErrorTypeConfig, "unsupported compression algorithm %q", name)
}

// Level controls the trade-off between compression speed and ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// ParseLevel accepts fastest, default, better or best, or the matching
// number.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default, nil
	case "fastest":
		return Fastest, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	}
	n, err := strconv.Atoi(name)
	if err == nil && n >= int(Fastest) && n <= int(Best) {
		return Level(n), nil
	}
	return Default, daperrors.Newf(daperrors.ErrorTypeConfig, "invalid compression level %q", name)
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns an uncompressed configuration, which every DAP2
// client accepts.
func DefaultConfig() *Config {
	return &Config{Algorithm: None, Level: Default}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps dst so that everything written is compressed. Close
// flushes the trailer but does not close dst.
func NewWriter(dst io.Writer, cfg *Config) (io.WriteCloser, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Algorithm {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		w, err := gzip.NewWriterLevel(dst, mapGzipLevel(cfg.Level))
		if err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to create gzip writer")
		}
		return w, nil
	case Deflate:
		w, err := flate.NewWriter(dst, mapDeflateLevel(cfg.Level))
		if err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to create deflate writer")
		}
		return w, nil
	case Zstd:
		w, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(cfg.Level)))
		if err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to create zstd writer")
		}
		return w, nil
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case S2:
		return s2.NewWriter(dst, mapS2Options(cfg.Level)...), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(cfg.Level))); err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to configure lz4 writer")
		}
		return w, nil
	default:
		return nil, daperrors.Newf(daperrors.ErrorTypeConfig, "unsupported compression algorithm: %s", cfg.Algorithm)
	}
}

// NewReader wraps src so that reads return decompressed bytes. Close
// releases decoder state but does not close src.
func NewReader(src io.Reader, algorithm Algorithm) (io.ReadCloser, error) {
	switch algorithm {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		r, err := gzip.NewReader(src)
		if err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to read gzip header")
		}
		return r, nil
	case Deflate:
		return flate.NewReader(src), nil
	case Zstd:
		r, err := zstd.NewReader(src)
		if err != nil {
			return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to create zstd reader")
		}
		return r.IOReadCloser(), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	default:
		return nil, daperrors.Newf(daperrors.ErrorTypeConfig, "unsupported compression algorithm: %s", algorithm)
	}
}

var bufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// Compress compresses data in memory.
func Compress(data []byte, cfg *Config) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w, err := NewWriter(buf, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to compress")
	}
	if err := w.Close(); err != nil {
		return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to compress")
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// Decompress reverses Compress.
func Decompress(data []byte, algorithm Algorithm) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), algorithm)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, r); err != nil {
		return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to decompress")
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

func mapS2Options(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
