package dap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func TestProjectionSize(t *testing.T) {
	for size := 1; size <= 7; size++ {
		for start := 0; start < size; start++ {
			for stop := start; stop < size; stop++ {
				for stride := 1; stride <= size; stride++ {
					d, err := NewDimension("x", size)
					require.NoError(t, err)
					require.NoError(t, d.SetProjection(start, stride, stop))
					assert.Equal(t, 1+(stop-start)/stride, d.Size())
					assert.Equal(t, start, d.Start())
					assert.Equal(t, stride, d.Stride())
					assert.Equal(t, stop, d.Stop())
					assert.Equal(t, size, d.DeclaredSize())

					// Identical bounds are accepted again.
					require.NoError(t, d.SetProjection(start, stride, stop))
				}
			}
		}
	}
}

func TestProjectionConflict(t *testing.T) {
	a := newArray(t, "sst", KindFloat32, 10)
	d := a.Dimensions()[0]
	require.NoError(t, d.SetProjection(0, 2, 8))

	err := d.SetProjection(0, 1, 8)
	require.Error(t, err)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeConflict))

	var e *daperrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "sst", e.Details["variable"])

	slice, ok := d.Projection()
	require.True(t, ok)
	assert.Equal(t, Slice{Start: 0, Stride: 2, Stop: 8}, slice)

	d.ClearProjection()
	assert.False(t, d.HasProjection())
	assert.Equal(t, 10, d.Size())
	require.NoError(t, d.SetProjection(0, 1, 8))
}

func TestProjectionValidation(t *testing.T) {
	tests := []struct {
		name                string
		start, stride, stop int
		msg                 string
	}{
		{"negative start", -1, 1, 3, "start must be non-negative"},
		{"zero stride", 0, 0, 3, "stride must be at least one"},
		{"negative stop", 0, 1, -1, "stop must be non-negative"},
		{"stop at size", 0, 1, 10, "stop must be less than the dimension size"},
		{"start after stop", 5, 1, 4, "start must not exceed stop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDimension("x", 10)
			require.NoError(t, err)
			err = d.SetProjection(tt.start, tt.stride, tt.stop)
			require.Error(t, err)
			assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeInvalidDimension))
			assert.Contains(t, err.Error(), tt.msg)
			assert.False(t, d.HasProjection())
		})
	}

	_, err := NewDimension("x", -1)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeInvalidDimension))
}

func TestSliceRendering(t *testing.T) {
	assert.Equal(t, "[3]", Slice{Start: 3, Stride: 1, Stop: 3}.String())
	assert.Equal(t, "[3]", Slice{Start: 3, Stride: 4, Stop: 3}.String())
	assert.Equal(t, "[0:9]", Slice{Start: 0, Stride: 1, Stop: 9}.String())
	assert.Equal(t, "[0:2:8]", Slice{Start: 0, Stride: 2, Stop: 8}.String())
}

func TestArrayProjectionDrivesTransfer(t *testing.T) {
	a := newArray(t, "grid", KindInt32, 10, 4)
	assert.Equal(t, 40, a.Length())

	require.NoError(t, a.Dimensions()[0].SetProjection(0, 3, 9))
	require.NoError(t, a.Dimensions()[1].SetProjection(1, 1, 1))
	assert.Equal(t, 4, a.Length())
	assert.Equal(t, "grid[0:3:9][1]", a.Constraint())

	require.NoError(t, a.Vector().SetLength(4))
	wire := encode(t, a)
	assert.Len(t, wire, 8+4*4)
}

func TestSharedDimensionProjection(t *testing.T) {
	lat := newArray(t, "lat", KindFloat32, 180)
	d := lat.Dimensions()[0]

	sst := newArray(t, "sst", KindFloat32)
	sst.AddDimension(d)
	assert.Same(t, lat, d.Container())

	require.NoError(t, d.SetProjection(10, 1, 19))
	assert.Equal(t, 10, sst.Length())
	assert.Equal(t, 10, lat.Length())

	// A second reference to the same dimension must agree.
	assert.NoError(t, sst.Dimensions()[0].SetProjection(10, 1, 19))
	assert.Error(t, sst.Dimensions()[0].SetProjection(0, 1, 19))
}
