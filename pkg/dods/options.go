package dods

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/dap"
)

// Separator ends the DDS text and starts the XDR body.
const Separator = "Data:\n"

// maxHeader bounds the DDS text a decoder scans for the separator.
const maxHeader = 16 << 20

type settings struct {
	compression *compression.Config
	codec       []dap.Option
	logger      *zap.Logger
}

// Option configures an Encoder or Decoder.
type Option func(*settings)

// WithCompression sets the body compression. A decoder only uses the
// algorithm.
func WithCompression(cfg *compression.Config) Option {
	return func(s *settings) { s.compression = cfg }
}

// WithCodecOptions passes options to the wire reader or writer, such as
// the negotiated server version or the string length limit.
func WithCodecOptions(opts ...dap.Option) Option {
	return func(s *settings) { s.codec = append(s.codec, opts...) }
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func buildSettings(opts []Option) settings {
	s := settings{compression: compression.DefaultConfig()}
	for _, o := range opts {
		o(&s)
	}
	if s.compression == nil {
		s.compression = compression.DefaultConfig()
	}
	return s
}

func (s settings) algorithm() string {
	if s.compression.Algorithm == "" {
		return string(compression.None)
	}
	return string(s.compression.Algorithm)
}
