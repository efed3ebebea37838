package dap

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// PrimitiveVector is a dense run of scalar values of one kind. The backing
// slice has the natural Go element type of the kind ([]uint8 for Byte,
// []uint16 for UInt16, []string for String and Url, ...).
type PrimitiveVector struct {
	kind   Kind
	data   any
	sealed bool
}

// NewPrimitiveVector returns an empty vector of the given scalar kind.
func NewPrimitiveVector(kind Kind) (*PrimitiveVector, error) {
	if !kind.IsScalar() {
		return nil, daperrors.Newf(daperrors.ErrorTypeInternal, "%s is not a scalar kind", kind)
	}
	return &PrimitiveVector{kind: kind, data: makeSlice(kind, 0)}, nil
}

// Kind returns the element kind.
func (v *PrimitiveVector) Kind() Kind { return v.kind }

// Len returns the number of elements.
func (v *PrimitiveVector) Len() int {
	switch d := v.data.(type) {
	case []uint8:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []string:
		return len(d)
	default:
		return 0
	}
}

// Values returns the backing slice.
func (v *PrimitiveVector) Values() any { return v.data }

// SetValues replaces the contents. data must be a slice of the natural Go
// element type of the vector kind.
func (v *PrimitiveVector) SetValues(data any) error {
	if v.sealed {
		return daperrors.New(daperrors.ErrorTypeBadSemantics, "vector was populated by a read and cannot be replaced")
	}
	if !sliceMatches(v.kind, data) {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%T cannot back a %s vector", data, v.kind)
	}
	v.data = data
	return nil
}

// SetLength allocates n zero elements.
func (v *PrimitiveVector) SetLength(n int) error {
	if v.sealed {
		return daperrors.New(daperrors.ErrorTypeBadSemantics, "vector was populated by a read and cannot be resized")
	}
	if n < 0 {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "negative vector length %d", n)
	}
	v.data = makeSlice(v.kind, n)
	return nil
}

// Value returns element i.
func (v *PrimitiveVector) Value(i int) (any, error) {
	if i < 0 || i >= v.Len() {
		return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "index %d out of range [0,%d)", i, v.Len())
	}
	switch d := v.data.(type) {
	case []uint8:
		return d[i], nil
	case []int16:
		return d[i], nil
	case []uint16:
		return d[i], nil
	case []int32:
		return d[i], nil
	case []uint32:
		return d[i], nil
	case []float32:
		return d[i], nil
	case []float64:
		return d[i], nil
	case []string:
		return d[i], nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeInternal, "vector holds %T", v.data)
}

// SetValue stores x at index i after converting it to the element type.
func (v *PrimitiveVector) SetValue(i int, x any) error {
	if i < 0 || i >= v.Len() {
		return daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "index %d out of range [0,%d)", i, v.Len())
	}
	cv, err := Coerce(v.kind, x)
	if err != nil {
		return err
	}
	switch d := v.data.(type) {
	case []uint8:
		d[i] = cv.(uint8)
	case []int16:
		d[i] = cv.(int16)
	case []uint16:
		d[i] = cv.(uint16)
	case []int32:
		d[i] = cv.(int32)
	case []uint32:
		d[i] = cv.(uint32)
	case []float32:
		d[i] = cv.(float32)
	case []float64:
		d[i] = cv.(float64)
	case []string:
		d[i] = cv.(string)
	}
	return nil
}

// VectorValues returns the backing slice of v typed as []T, or false if
// T is not the element type of the vector.
func VectorValues[T uint8 | int16 | uint16 | int32 | uint32 | float32 | float64 | string](v *PrimitiveVector) ([]T, bool) {
	d, ok := v.data.([]T)
	return d, ok
}

func (v *PrimitiveVector) clone() *PrimitiveVector {
	c := &PrimitiveVector{kind: v.kind}
	switch d := v.data.(type) {
	case []uint8:
		c.data = append([]uint8(nil), d...)
	case []int16:
		c.data = append([]int16(nil), d...)
	case []uint16:
		c.data = append([]uint16(nil), d...)
	case []int32:
		c.data = append([]int32(nil), d...)
	case []uint32:
		c.data = append([]uint32(nil), d...)
	case []float32:
		c.data = append([]float32(nil), d...)
	case []float64:
		c.data = append([]float64(nil), d...)
	case []string:
		c.data = append([]string(nil), d...)
	default:
		c.data = makeSlice(v.kind, 0)
	}
	return c
}

func makeSlice(kind Kind, n int) any {
	switch kind {
	case KindByte:
		return make([]uint8, n)
	case KindInt16:
		return make([]int16, n)
	case KindUInt16:
		return make([]uint16, n)
	case KindInt32:
		return make([]int32, n)
	case KindUInt32:
		return make([]uint32, n)
	case KindFloat32:
		return make([]float32, n)
	case KindFloat64:
		return make([]float64, n)
	case KindString, KindURL:
		return make([]string, n)
	default:
		return nil
	}
}

func sliceMatches(kind Kind, data any) bool {
	switch data.(type) {
	case []uint8:
		return kind == KindByte
	case []int16:
		return kind == KindInt16
	case []uint16:
		return kind == KindUInt16
	case []int32:
		return kind == KindInt32
	case []uint32:
		return kind == KindUInt32
	case []float32:
		return kind == KindFloat32
	case []float64:
		return kind == KindFloat64
	case []string:
		return kind == KindString || kind == KindURL
	default:
		return false
	}
}

// wireWidth is the number of bytes one element occupies on the wire.
// Byte elements are packed; 16-bit elements travel in 32-bit slots.
func wireWidth(kind Kind) int {
	switch kind {
	case KindByte:
		return 1
	case KindFloat64:
		return 8
	default:
		return 4
	}
}

func (v *PrimitiveVector) countsOnWire(o options) int {
	if (v.kind == KindString || v.kind == KindURL) && o.singleStringCount {
		return 1
	}
	return 2
}

// encode writes the element counts followed by the packed elements. n is
// the effective length the enclosing variable declares.
func (v *PrimitiveVector) encode(w *Writer, n int) error {
	if v.Len() != n {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"vector holds %d elements but the declared size is %d", v.Len(), n)
	}
	for i := 0; i < v.countsOnWire(w.opts); i++ {
		if err := w.WriteInt32(int32(n)); err != nil {
			return err
		}
	}

	if d, ok := v.data.([]string); ok {
		for i, s := range d {
			if i%vectorChunk == 0 {
				if err := w.cancelled(); err != nil {
					return err
				}
			}
			if err := w.WriteString(s); err != nil {
				return err
			}
		}
		return nil
	}

	width := wireWidth(v.kind)
	buf := make([]byte, 0, min(n, vectorChunk)*width)
	for start := 0; start < n; start += vectorChunk {
		if err := w.cancelled(); err != nil {
			return err
		}
		end := min(start+vectorChunk, n)
		buf = v.appendWire(buf[:0], start, end)
		if err := w.write(buf); err != nil {
			return err
		}
	}
	if p := pad(n); v.kind == KindByte && p > 0 {
		var zero [4]byte
		return w.write(zero[:p])
	}
	return nil
}

func (v *PrimitiveVector) appendWire(buf []byte, start, end int) []byte {
	switch d := v.data.(type) {
	case []uint8:
		buf = append(buf, d[start:end]...)
	case []int16:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint32(buf, uint32(int32(x)))
		}
	case []uint16:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint32(buf, uint32(x))
		}
	case []int32:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint32(buf, uint32(x))
		}
	case []uint32:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint32(buf, x)
		}
	case []float32:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(x))
		}
	case []float64:
		for _, x := range d[start:end] {
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(x))
		}
	}
	return buf
}

// decode reads the element counts, verifies both against n and fills the
// vector. A negative n accepts the first count from the stream, which is how
// lists are read. Storage grows as data arrives, so a corrupt count cannot
// force a large allocation up front. The vector is sealed afterwards.
func (v *PrimitiveVector) decode(r *Reader, n int) error {
	for i := 0; i < v.countsOnWire(r.opts); i++ {
		count, err := r.ReadInt32()
		if err != nil {
			return err
		}
		if n < 0 && i == 0 {
			if count < 0 {
				return daperrors.Newf(daperrors.ErrorTypeDataRead, "negative vector count %d", count)
			}
			n = int(count)
			continue
		}
		if int(count) != n {
			return daperrors.Newf(daperrors.ErrorTypeDataRead,
				"vector count %d does not match the declared size %d", count, n).
				WithDetail("count_index", i)
		}
	}

	data := makeSlice(v.kind, 0)
	if v.kind == KindString || v.kind == KindURL {
		d := data.([]string)
		for i := 0; i < n; i++ {
			if i%vectorChunk == 0 {
				if err := r.cancelled(); err != nil {
					return err
				}
			}
			s, err := r.ReadString()
			if err != nil {
				return err
			}
			d = append(d, s)
		}
		v.data, v.sealed = d, true
		return nil
	}

	width := wireWidth(v.kind)
	buf := make([]byte, min(n, vectorChunk)*width)
	for start := 0; start < n; start += vectorChunk {
		if err := r.cancelled(); err != nil {
			return err
		}
		end := min(start+vectorChunk, n)
		chunk := buf[:(end-start)*width]
		if err := r.fill(chunk, true); err != nil {
			return err
		}
		data = extend(data, end-start)
		fromWire(data, chunk, start, end)
	}
	if p := pad(n); v.kind == KindByte && p > 0 {
		var skip [4]byte
		if err := r.fill(skip[:p], true); err != nil {
			return err
		}
	}
	v.data, v.sealed = data, true
	return nil
}

// extend appends k zero elements to a numeric slice.
func extend(data any, k int) any {
	switch d := data.(type) {
	case []uint8:
		return append(d, make([]uint8, k)...)
	case []int16:
		return append(d, make([]int16, k)...)
	case []uint16:
		return append(d, make([]uint16, k)...)
	case []int32:
		return append(d, make([]int32, k)...)
	case []uint32:
		return append(d, make([]uint32, k)...)
	case []float32:
		return append(d, make([]float32, k)...)
	case []float64:
		return append(d, make([]float64, k)...)
	default:
		return data
	}
}

func fromWire(data any, chunk []byte, start, end int) {
	switch d := data.(type) {
	case []uint8:
		copy(d[start:end], chunk)
	case []int16:
		for i := start; i < end; i++ {
			d[i] = int16(int32(binary.BigEndian.Uint32(chunk[(i-start)*4:])))
		}
	case []uint16:
		for i := start; i < end; i++ {
			d[i] = uint16(binary.BigEndian.Uint32(chunk[(i-start)*4:]) & 0xFFFF)
		}
	case []int32:
		for i := start; i < end; i++ {
			d[i] = int32(binary.BigEndian.Uint32(chunk[(i-start)*4:]))
		}
	case []uint32:
		for i := start; i < end; i++ {
			d[i] = binary.BigEndian.Uint32(chunk[(i-start)*4:])
		}
	case []float32:
		for i := start; i < end; i++ {
			d[i] = math.Float32frombits(binary.BigEndian.Uint32(chunk[(i-start)*4:]))
		}
	case []float64:
		for i := start; i < end; i++ {
			d[i] = math.Float64frombits(binary.BigEndian.Uint64(chunk[(i-start)*8:]))
		}
	}
}
