// Package testutil provides testing utilities for dap2
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/dap2/pkg/dap"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Survey builds a dataset exercising every variable kind, filled with
// values:
//
//	Dataset {
//	    Int32 count;                  42
//	    Structure {
//	        Float32 temp;             12.5
//	        String site;              "pier"
//	    } station;
//	    Float64 temps[time = 4];      1.5 2.5 3.5 4.5
//	    Grid {
//	      ARRAY:
//	        Int16 sst[lat = 3][lon = 2];  0..5
//	      MAPS:
//	        Float32 lat[lat = 3];     -10 0 10
//	        Float32 lon[lon = 2];     100 110
//	    } sst;
//	    Sequence {
//	        Int32 depth;              0 10 20
//	        String name;              "a" "b" "c"
//	    } casts;
//	} survey;
//
// The dataset carries a global attribute table and units on temps.
func Survey(t *testing.T) *dap.Dataset {
	t.Helper()
	ds := dap.NewDataset("survey")

	count := dap.NewInt32("count")
	require.NoError(t, count.SetValue(42))
	require.NoError(t, ds.AddVariable(count, dap.PartArray))

	station := dap.NewStructure("station")
	temp := dap.NewFloat32("temp")
	require.NoError(t, temp.SetValue(float32(12.5)))
	site := dap.NewString("site")
	require.NoError(t, site.SetValue("pier"))
	require.NoError(t, station.AddVariable(temp, dap.PartArray))
	require.NoError(t, station.AddVariable(site, dap.PartArray))
	require.NoError(t, ds.AddVariable(station, dap.PartArray))

	temps := Array(t, "temps", dap.KindFloat64, 4)
	temps.Dimensions()[0].SetName("time")
	require.NoError(t, temps.Vector().SetValues([]float64{1.5, 2.5, 3.5, 4.5}))
	require.NoError(t, temps.Attributes().AppendAttribute("units", dap.AttrString, "degC"))
	require.NoError(t, ds.AddVariable(temps, dap.PartArray))

	grid := dap.NewGrid("sst")
	lat := Array(t, "lat", dap.KindFloat32, 3)
	lat.Dimensions()[0].SetName("lat")
	lon := Array(t, "lon", dap.KindFloat32, 2)
	lon.Dimensions()[0].SetName("lon")
	data := Array(t, "sst", dap.KindInt16)
	data.AddDimension(lat.Dimensions()[0])
	data.AddDimension(lon.Dimensions()[0])
	require.NoError(t, data.Vector().SetValues([]int16{0, 1, 2, 3, 4, 5}))
	require.NoError(t, lat.Vector().SetValues([]float32{-10, 0, 10}))
	require.NoError(t, lon.Vector().SetValues([]float32{100, 110}))
	require.NoError(t, grid.AddVariable(data, dap.PartArray))
	require.NoError(t, grid.AddVariable(lat, dap.PartMaps))
	require.NoError(t, grid.AddVariable(lon, dap.PartMaps))
	require.NoError(t, ds.AddVariable(grid, dap.PartArray))

	casts := dap.NewSequence("casts")
	require.NoError(t, casts.AddVariable(dap.NewInt32("depth"), dap.PartArray))
	require.NoError(t, casts.AddVariable(dap.NewString("name"), dap.PartArray))
	for i, name := range []string{"a", "b", "c"} {
		row := casts.NewRow()
		require.NoError(t, row[0].(*dap.Scalar).SetValue(i*10))
		require.NoError(t, row[1].(*dap.Scalar).SetValue(name))
		require.NoError(t, casts.AddRow(row))
	}
	require.NoError(t, ds.AddVariable(casts, dap.PartArray))

	global, err := ds.Attributes().AppendContainer("NC_GLOBAL")
	require.NoError(t, err)
	require.NoError(t, global.AppendAttribute("title", dap.AttrString, "harbour survey"))

	require.NoError(t, dap.CheckSemantics(ds, true))
	return ds
}

// Array returns an array of kind with one anonymous dimension per size.
func Array(t *testing.T, name string, kind dap.Kind, sizes ...int) *dap.Array {
	t.Helper()
	tmpl, err := dap.NewScalar(kind, name)
	require.NoError(t, err)
	a, err := dap.NewArray(name, tmpl)
	require.NoError(t, err)
	for _, n := range sizes {
		_, err := a.AppendDim(n, "")
		require.NoError(t, err)
	}
	return a
}
