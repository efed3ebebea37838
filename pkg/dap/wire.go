package dap

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxStringLength bounds the length prefix accepted for a single
// string value. Larger prefixes are rejected before any payload is read.
const DefaultMaxStringLength = 1 << 26

// vectorChunk is the number of vector elements transferred between two
// polls of the cancellation flag.
const vectorChunk = 4096

// Progress receives byte counts as data is produced or consumed and is
// polled for cancellation between container members and vector chunks.
type Progress interface {
	Transferred(n int)
	Cancelled() bool
}

// ServerVersion is the protocol version negotiated with the peer. The zero
// value means unknown and selects the current framing.
type ServerVersion struct {
	Major int
	Minor int
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// ParseServerVersion extracts a major.minor pair from a version token such
// as "dods/3.2", "DAP/2.0" or "2.15".
func ParseServerVersion(token string) (ServerVersion, error) {
	m := versionPattern.FindStringSubmatch(token)
	if m == nil {
		return ServerVersion{}, daperrors.Newf(daperrors.ErrorTypeMalformedExpression,
			"cannot parse server version %q", token)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return ServerVersion{}, daperrors.Wrap(err, daperrors.ErrorTypeMalformedExpression, "bad major version")
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return ServerVersion{}, daperrors.Wrap(err, daperrors.ErrorTypeMalformedExpression, "bad minor version")
	}
	return ServerVersion{Major: major, Minor: minor}, nil
}

// IsZero reports whether the version is unknown.
func (v ServerVersion) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// SequenceMarkers reports whether sequences are framed with per-row start
// markers and an end marker. Servers before 2.15 terminate a sequence at
// end of stream instead.
func (v ServerVersion) SequenceMarkers() bool {
	if v.IsZero() {
		return true
	}
	return v.Major > 2 || (v.Major == 2 && v.Minor >= 15)
}

// String renders the version as major.minor.
func (v ServerVersion) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

type options struct {
	version           ServerVersion
	maxString         int
	progress          Progress
	singleStringCount bool
}

// Option configures a Reader or Writer.
type Option func(*options)

// WithServerVersion sets the negotiated protocol version used for sequence framing.
func WithServerVersion(v ServerVersion) Option {
	return func(o *options) { o.version = v }
}

// WithMaxStringLength sets the largest accepted string length prefix.
func WithMaxStringLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxString = n
		}
	}
}

// WithProgress attaches a progress and cancellation sink.
func WithProgress(p Progress) Option {
	return func(o *options) { o.progress = p }
}

// WithSingleStringCount makes string vectors carry one element count
// instead of two, matching peers that only emit the count once for
// vectors of strings.
func WithSingleStringCount() Option {
	return func(o *options) { o.singleStringCount = true }
}

func buildOptions(opts []Option) options {
	o := options{maxString: DefaultMaxStringLength}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader decodes the XDR primitives of the DAP2 data stream.
type Reader struct {
	src  io.Reader
	opts options
	buf  [8]byte
	n    int64
}

// NewReader returns a Reader consuming src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	return &Reader{src: src, opts: buildOptions(opts)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.n }

// ServerVersion returns the negotiated protocol version.
func (r *Reader) ServerVersion() ServerVersion { return r.opts.version }

// fill reads exactly len(p) bytes. A stream that ends before the first byte
// of a value is an unexpected end; one that ends partway through is a data
// read error. When inValue is set the caller has already consumed part of
// the value and any end of stream is a data read error.
func (r *Reader) fill(p []byte, inValue bool) error {
	n, err := io.ReadFull(r.src, p)
	r.n += int64(n)
	if n > 0 && r.opts.progress != nil {
		r.opts.progress.Transferred(n)
	}
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, io.EOF) && !inValue:
		return daperrors.Wrap(err, daperrors.ErrorTypeUnexpectedEOF, "end of stream before value").
			WithDetail("offset", r.n)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "stream truncated inside value").
			WithDetail("offset", r.n).
			WithDetail("wanted", len(p)).
			WithDetail("got", n)
	default:
		return daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "stream read failed").
			WithDetail("offset", r.n)
	}
}

func (r *Reader) cancelled() error {
	if r.opts.progress != nil && r.opts.progress.Cancelled() {
		return daperrors.New(daperrors.ErrorTypeDataRead, "transfer cancelled").
			WithDetail("offset", r.n)
	}
	return nil
}

// ReadUint32 reads a 4-byte big-endian unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.buf[:4], false); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}

// ReadInt32 reads a 4-byte big-endian signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads a 4-byte IEEE-754 value.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an 8-byte IEEE-754 value.
func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.fill(r.buf[:8], false); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(r.buf[:8])), nil
}

// ReadString reads a length-prefixed Latin-1 string and its alignment padding.
func (r *Reader) ReadString() (string, error) {
	length, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", daperrors.New(daperrors.ErrorTypeDataRead, "negative string length").
			WithDetail("length", length)
	}
	if int64(length) > int64(r.opts.maxString) {
		return "", daperrors.New(daperrors.ErrorTypeDataRead, "string length exceeds maximum").
			WithDetail("length", length).
			WithDetail("max", r.opts.maxString)
	}
	raw, err := r.readPadded(int(length))
	if err != nil {
		return "", err
	}
	return decodeLatin1(raw)
}

// readPadded reads n payload bytes followed by the zero padding that brings
// the total to a multiple of four.
func (r *Reader) readPadded(n int) ([]byte, error) {
	p := make([]byte, n+pad(n))
	if len(p) == 0 {
		return p, nil
	}
	if err := r.fill(p, true); err != nil {
		return nil, err
	}
	return p[:n], nil
}

// Writer encodes the XDR primitives of the DAP2 data stream.
type Writer struct {
	dst  io.Writer
	opts options
	buf  [8]byte
	n    int64
}

// NewWriter returns a Writer producing into dst.
func NewWriter(dst io.Writer, opts ...Option) *Writer {
	return &Writer{dst: dst, opts: buildOptions(opts)}
}

// Offset returns the number of bytes produced so far.
func (w *Writer) Offset() int64 { return w.n }

// ServerVersion returns the negotiated protocol version.
func (w *Writer) ServerVersion() ServerVersion { return w.opts.version }

func (w *Writer) write(p []byte) error {
	n, err := w.dst.Write(p)
	w.n += int64(n)
	if n > 0 && w.opts.progress != nil {
		w.opts.progress.Transferred(n)
	}
	if err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "stream write failed").
			WithDetail("offset", w.n)
	}
	if n < len(p) {
		return daperrors.Wrap(io.ErrShortWrite, daperrors.ErrorTypeDataWrite, "stream write failed").
			WithDetail("offset", w.n)
	}
	return nil
}

func (w *Writer) cancelled() error {
	if w.opts.progress != nil && w.opts.progress.Cancelled() {
		return daperrors.New(daperrors.ErrorTypeDataRead, "transfer cancelled").
			WithDetail("offset", w.n)
	}
	return nil
}

// WriteUint32 writes a 4-byte big-endian unsigned integer.
func (w *Writer) WriteUint32(v uint32) error {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

// WriteInt32 writes a 4-byte big-endian signed integer.
func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

// WriteFloat32 writes a 4-byte IEEE-754 value.
func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an 8-byte IEEE-754 value.
func (w *Writer) WriteFloat64(v float64) error {
	binary.BigEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	return w.write(w.buf[:8])
}

// WriteString writes s as a length-prefixed Latin-1 string padded to four bytes.
func (w *Writer) WriteString(s string) error {
	raw, err := encodeLatin1(s)
	if err != nil {
		return err
	}
	if len(raw) > math.MaxInt32 {
		return daperrors.New(daperrors.ErrorTypeDataRead, "string too long to encode").
			WithDetail("length", len(raw))
	}
	if err := w.WriteInt32(int32(len(raw))); err != nil {
		return err
	}
	return w.writePadded(raw)
}

func (w *Writer) writePadded(p []byte) error {
	if len(p) > 0 {
		if err := w.write(p); err != nil {
			return err
		}
	}
	if n := pad(len(p)); n > 0 {
		var zero [4]byte
		return w.write(zero[:n])
	}
	return nil
}

// pad returns the number of zero bytes that align n to four.
func pad(n int) int {
	return (4 - n%4) % 4
}

func decodeLatin1(raw []byte) (string, error) {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "string is not valid Latin-1")
	}
	return string(s), nil
}

func encodeLatin1(s string) ([]byte, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "string is not representable in Latin-1")
	}
	return raw, nil
}
