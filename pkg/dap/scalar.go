package dap

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Scalar is a leaf variable of one of the eight scalar kinds. Values are
// held in their natural Go type:
//
//	Byte    uint8
//	Int16   int16
//	UInt16  uint16
//	Int32   int32
//	UInt32  uint32
//	Float32 float32
//	Float64 float64
//	String  string
//	Url     string
type Scalar struct {
	node
	kind  Kind
	value any
}

// NewScalar returns a scalar of the given kind holding the zero value.
func NewScalar(kind Kind, name string) (*Scalar, error) {
	if !kind.IsScalar() {
		return nil, daperrors.Newf(daperrors.ErrorTypeInternal, "%s is not a scalar kind", kind)
	}
	return &Scalar{node: node{name: name, selected: true}, kind: kind, value: zeroValue(kind)}, nil
}

func mustScalar(kind Kind, name string) *Scalar {
	s, err := NewScalar(kind, name)
	if err != nil {
		panic(err)
	}
	return s
}

// NewByte returns a Byte scalar.
func NewByte(name string) *Scalar { return mustScalar(KindByte, name) }

// NewInt16 returns an Int16 scalar.
func NewInt16(name string) *Scalar { return mustScalar(KindInt16, name) }

// NewUInt16 returns a UInt16 scalar.
func NewUInt16(name string) *Scalar { return mustScalar(KindUInt16, name) }

// NewInt32 returns an Int32 scalar.
func NewInt32(name string) *Scalar { return mustScalar(KindInt32, name) }

// NewUInt32 returns a UInt32 scalar.
func NewUInt32(name string) *Scalar { return mustScalar(KindUInt32, name) }

// NewFloat32 returns a Float32 scalar.
func NewFloat32(name string) *Scalar { return mustScalar(KindFloat32, name) }

// NewFloat64 returns a Float64 scalar.
func NewFloat64(name string) *Scalar { return mustScalar(KindFloat64, name) }

// NewString returns a String scalar.
func NewString(name string) *Scalar { return mustScalar(KindString, name) }

// NewURL returns a Url scalar.
func NewURL(name string) *Scalar { return mustScalar(KindURL, name) }

// Kind returns the scalar kind.
func (s *Scalar) Kind() Kind { return s.kind }

// Value returns the current value in its natural Go type.
func (s *Scalar) Value() any { return s.value }

// SetValue stores v after converting it to the natural Go type of the
// kind. Any Go integer, float or string is accepted as long as the value
// is representable; out of range values are rejected.
func (s *Scalar) SetValue(v any) error {
	cv, err := Coerce(s.kind, v)
	if err != nil {
		return err
	}
	s.value = cv
	return nil
}

// String renders the value the way a DAP2 ASCII response prints it.
// Unsigned kinds never show a sign.
func (s *Scalar) String() string {
	return FormatValue(s.value)
}

func zeroValue(kind Kind) any {
	switch kind {
	case KindByte:
		return uint8(0)
	case KindInt16:
		return int16(0)
	case KindUInt16:
		return uint16(0)
	case KindInt32:
		return int32(0)
	case KindUInt32:
		return uint32(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindString, KindURL:
		return ""
	default:
		return nil
	}
}

// FormatValue renders a scalar value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

// Coerce converts v to the natural Go type of a scalar kind.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindString, KindURL:
		s, ok := v.(string)
		if !ok {
			return nil, badValue(kind, v)
		}
		return s, nil
	case KindFloat32:
		f, ok := toFloat(v)
		if !ok {
			return nil, badValue(kind, v)
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, badValue(kind, v)
		}
		return float32(f), nil
	case KindFloat64:
		f, ok := toFloat(v)
		if !ok {
			return nil, badValue(kind, v)
		}
		return f, nil
	}

	i, ok := toInt(v)
	if !ok {
		return nil, badValue(kind, v)
	}
	switch kind {
	case KindByte:
		if i < 0 || i > math.MaxUint8 {
			return nil, badValue(kind, v)
		}
		return uint8(i), nil
	case KindInt16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, badValue(kind, v)
		}
		return int16(i), nil
	case KindUInt16:
		if i < 0 || i > math.MaxUint16 {
			return nil, badValue(kind, v)
		}
		return uint16(i), nil
	case KindInt32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, badValue(kind, v)
		}
		return int32(i), nil
	case KindUInt32:
		if i < 0 || i > math.MaxUint32 {
			return nil, badValue(kind, v)
		}
		return uint32(i), nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeInternal, "%s is not a scalar kind", kind)
}

func badValue(kind Kind, v any) error {
	return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "value %v (%T) does not fit %s", v, v, kind).
		WithDetail("kind", kind.String())
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return 0, false
		}
		return int64(x), true
	case float32:
		f := float64(x)
		if f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func (s *Scalar) encode(w *Writer) error {
	switch v := s.value.(type) {
	case uint8:
		return w.WriteUint32(uint32(v))
	case int16:
		return w.WriteInt32(int32(v))
	case uint16:
		return w.WriteInt32(int32(v))
	case int32:
		return w.WriteInt32(v)
	case uint32:
		return w.WriteUint32(v)
	case float32:
		return w.WriteFloat32(v)
	case float64:
		return w.WriteFloat64(v)
	case string:
		return w.WriteString(v)
	default:
		return daperrors.Newf(daperrors.ErrorTypeInternal, "scalar %q holds %T", s.name, s.value)
	}
}

func (s *Scalar) decode(r *Reader) error {
	switch s.kind {
	case KindByte:
		v, err := r.ReadUint32()
		if err != nil {
			return err
		}
		s.value = uint8(v)
	case KindInt16:
		v, err := r.ReadInt32()
		if err != nil {
			return err
		}
		s.value = int16(v)
	case KindUInt16:
		v, err := r.ReadInt32()
		if err != nil {
			return err
		}
		s.value = uint16(uint32(v) & 0xFFFF)
	case KindInt32:
		v, err := r.ReadInt32()
		if err != nil {
			return err
		}
		s.value = v
	case KindUInt32:
		v, err := r.ReadUint32()
		if err != nil {
			return err
		}
		s.value = v
	case KindFloat32:
		v, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		s.value = v
	case KindFloat64:
		v, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		s.value = v
	case KindString, KindURL:
		v, err := r.ReadString()
		if err != nil {
			return err
		}
		s.value = v
	default:
		return daperrors.Newf(daperrors.ErrorTypeInternal, "scalar %q has kind %s", s.name, s.kind)
	}
	return nil
}
