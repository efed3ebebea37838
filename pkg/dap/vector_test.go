package dap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func newArray(t *testing.T, name string, kind Kind, sizes ...int) *Array {
	t.Helper()
	tmpl, err := NewScalar(kind, name)
	require.NoError(t, err)
	a, err := NewArray(name, tmpl)
	require.NoError(t, err)
	for _, n := range sizes {
		_, err := a.AppendDim(n, "")
		require.NoError(t, err)
	}
	return a
}

func TestNumericVectorLayout(t *testing.T) {
	a := newArray(t, "i16", KindInt16, 2)
	require.NoError(t, a.Vector().SetValues([]int16{1, -1}))

	assert.Equal(t, []byte{
		0, 0, 0, 2,
		0, 0, 0, 2,
		0, 0, 0, 1,
		0xFF, 0xFF, 0xFF, 0xFF,
	}, encode(t, a))
}

func TestByteVectorPacking(t *testing.T) {
	a := newArray(t, "b", KindByte, 5)
	require.NoError(t, a.Vector().SetValues([]uint8{1, 2, 3, 4, 5}))

	wire := encode(t, a)
	assert.Equal(t, []byte{
		0, 0, 0, 5,
		0, 0, 0, 5,
		1, 2, 3, 4, 5, 0, 0, 0,
	}, wire)

	dst := newArray(t, "b", KindByte, 5)
	r := NewReader(bytes.NewReader(wire))
	require.NoError(t, Deserialize(r, dst))
	got, ok := VectorValues[uint8](dst.Vector())
	require.True(t, ok)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5}, got)
	assert.Equal(t, int64(len(wire)), r.Offset())
}

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		kind Kind
		data any
	}{
		{KindByte, []uint8{0, 255, 7}},
		{KindInt16, []int16{-32768, 0, 32767}},
		{KindUInt16, []uint16{0, 1, 65535}},
		{KindInt32, []int32{-1, 0, 1 << 30}},
		{KindUInt32, []uint32{0, 4294967295, 12}},
		{KindFloat32, []float32{1.25, -0, 3e9}},
		{KindFloat64, []float64{1e-300, -2.5, 0}},
		{KindString, []string{"", "abc", "abcd"}},
		{KindURL, []string{"http://a", "http://b", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			src := newArray(t, "v", tt.kind, 3)
			require.NoError(t, src.Vector().SetValues(tt.data))
			wire := encode(t, src)

			dst := newArray(t, "v", tt.kind, 3)
			require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
			assert.Equal(t, tt.data, dst.Vector().Values())
		})
	}
}

func TestStringVectorCounts(t *testing.T) {
	src := newArray(t, "s", KindString, 1)
	require.NoError(t, src.Vector().SetValues([]string{"hi"}))

	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 2, 'h', 'i', 0, 0}, encode(t, src))

	single := encode(t, src, WithSingleStringCount())
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 2, 'h', 'i', 0, 0}, single)

	dst := newArray(t, "s", KindString, 1)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(single), WithSingleStringCount()), dst))
	assert.Equal(t, []string{"hi"}, dst.Vector().Values())
}

func TestVectorCountMismatch(t *testing.T) {
	for name, wire := range map[string][]byte{
		"first count":  {0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2},
		"second count": {0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 1, 0, 0, 0, 2},
	} {
		t.Run(name, func(t *testing.T) {
			dst := newArray(t, "v", KindInt32, 2)
			err := Deserialize(NewReader(bytes.NewReader(wire)), dst)
			require.Error(t, err)
			assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeDataRead))
		})
	}
}

func TestVectorLengthMustMatchDeclaration(t *testing.T) {
	a := newArray(t, "v", KindInt32, 3)
	require.NoError(t, a.Vector().SetValues([]int32{1, 2}))
	err := Serialize(NewWriter(&bytes.Buffer{}), a)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeBadSemantics))
}

func TestVectorSealedAfterRead(t *testing.T) {
	src := newArray(t, "v", KindInt32, 1)
	require.NoError(t, src.Vector().SetValues([]int32{9}))
	dst := newArray(t, "v", KindInt32, 1)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(encode(t, src))), dst))

	assert.Error(t, dst.Vector().SetLength(4))
	assert.Error(t, dst.Vector().SetValues([]int32{1}))
	v, err := dst.Vector().Value(0)
	require.NoError(t, err)
	assert.Equal(t, int32(9), v)
}

func TestVectorSetValue(t *testing.T) {
	vec, err := NewPrimitiveVector(KindUInt16)
	require.NoError(t, err)
	require.NoError(t, vec.SetLength(2))
	require.NoError(t, vec.SetValue(1, 65535))
	assert.Error(t, vec.SetValue(0, 65536))
	assert.Error(t, vec.SetValue(2, 1))
	assert.Error(t, vec.SetValues([]int32{1}))

	got, ok := VectorValues[uint16](vec)
	require.True(t, ok)
	assert.Equal(t, []uint16{0, 65535}, got)
	_, ok = VectorValues[int16](vec)
	assert.False(t, ok)
}

func TestLargeVectorChunks(t *testing.T) {
	n := vectorChunk*2 + 3
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i) / 2
	}
	src := newArray(t, "big", KindFloat64, n)
	require.NoError(t, src.Vector().SetValues(data))
	wire := encode(t, src)
	assert.Len(t, wire, 8+8*n)

	dst := newArray(t, "big", KindFloat64, n)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	assert.Equal(t, data, dst.Vector().Values())
}

type cancelAfter struct {
	bytes int
	limit int
}

func (c *cancelAfter) Transferred(n int) { c.bytes += n }
func (c *cancelAfter) Cancelled() bool   { return c.bytes >= c.limit }

func TestCancellationBetweenChunks(t *testing.T) {
	n := vectorChunk * 3
	src := newArray(t, "big", KindInt32, n)
	require.NoError(t, src.Vector().SetLength(n))
	wire := encode(t, src)

	progress := &cancelAfter{limit: 8 + 4*vectorChunk}
	dst := newArray(t, "big", KindInt32, n)
	err := Deserialize(NewReader(bytes.NewReader(wire), WithProgress(progress)), dst)
	require.Error(t, err)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeDataRead))
	assert.Equal(t, 8+4*vectorChunk, progress.bytes)
}

func TestProgressCountsBytes(t *testing.T) {
	progress := &cancelAfter{limit: 1 << 30}
	src := newArray(t, "v", KindFloat32, 4)
	require.NoError(t, src.Vector().SetLength(4))
	var buf bytes.Buffer
	require.NoError(t, Serialize(NewWriter(&buf, WithProgress(progress)), src))
	assert.Equal(t, buf.Len(), progress.bytes)
}
