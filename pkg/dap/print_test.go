package dap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSurvey(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset("survey")
	require.NoError(t, ds.AddVariable(NewInt32("count"), PartArray))

	station := NewStructure("station")
	require.NoError(t, station.AddVariable(NewFloat32("temp"), PartArray))
	require.NoError(t, station.AddVariable(NewString("site"), PartArray))
	require.NoError(t, ds.AddVariable(station, PartArray))

	temps := newArray(t, "temps", KindFloat64)
	_, err := temps.AppendDim(4, "time")
	require.NoError(t, err)
	require.NoError(t, ds.AddVariable(temps, PartArray))

	xs, err := NewList("sea temp", NewInt32("sea temp"))
	require.NoError(t, err)
	require.NoError(t, ds.AddVariable(xs, PartArray))
	return ds
}

func TestDatasetPrint(t *testing.T) {
	ds := newSurvey(t)
	var b strings.Builder
	require.NoError(t, ds.Print(&b, false))
	assert.Equal(t, `Dataset {
    Int32 count;
    Structure {
        Float32 temp;
        String site;
    } station;
    Float64 temps[time = 4];
    List Int32 sea%20temp;
} survey;
`, b.String())
}

func TestDatasetPrintConstrained(t *testing.T) {
	ds := newSurvey(t)
	station, err := ds.Var("station")
	require.NoError(t, err)
	site, err := station.(*Structure).Var("site")
	require.NoError(t, err)
	site.SetSelected(false)
	count, err := ds.Var("count")
	require.NoError(t, err)
	count.SetSelected(false)
	temps, err := ds.Var("temps")
	require.NoError(t, err)
	require.NoError(t, temps.(*Array).Dimensions()[0].SetProjection(1, 2, 3))

	var b strings.Builder
	require.NoError(t, ds.Print(&b, true))
	assert.Equal(t, `Dataset {
    Structure {
        Float32 temp;
    } station;
    Float64 temps[time = 2];
    List Int32 sea%20temp;
} survey;
`, b.String())
	assert.Equal(t, "station.temp,temps[1:2:3],sea temp", ds.Constraint())

	// Unconstrained printing keeps the declared shape.
	b.Reset()
	require.NoError(t, ds.Print(&b, false))
	assert.Contains(t, b.String(), "Float64 temps[time = 4];")
	assert.Contains(t, b.String(), "Int32 count;")
}

func TestGridPrint(t *testing.T) {
	g, data, _, lon := newGrid(t)
	var b strings.Builder
	require.NoError(t, PrintDecl(&b, g, "", false))
	assert.Equal(t, `Grid {
  ARRAY:
    Float32 sst[lat = 3][lon = 2];
  MAPS:
    Float64 lat[lat = 3];
    Float64 lon[lon = 2];
} sst;
`, b.String())

	require.NoError(t, data.Dimensions()[0].SetProjection(0, 2, 2))
	b.Reset()
	require.NoError(t, PrintDecl(&b, g, "", true))
	assert.Equal(t, `Grid {
  ARRAY:
    Float32 sst[lat = 2][lon = 2];
  MAPS:
    Float64 lat[lat = 2];
    Float64 lon[lon = 2];
} sst;
`, b.String())

	// One map per array dimension, or the projection is a structure.
	lon.SetSelected(false)
	b.Reset()
	require.NoError(t, PrintDecl(&b, g, "", true))
	assert.Equal(t, `Structure {
    Float32 sst[lat = 2][lon = 2];
    Float64 lat[lat = 2];
} sst;
`, b.String())

	// Without its array the projection is no longer a grid.
	data.SetSelected(false)
	b.Reset()
	require.NoError(t, PrintDecl(&b, g, "", true))
	assert.Equal(t, `Structure {
    Float64 lat[lat = 2];
} sst;
`, b.String())
}

func TestGridConstraint(t *testing.T) {
	ds := NewDataset("ds")
	g, data, _, lon := newGrid(t)
	require.NoError(t, ds.AddVariable(g, PartArray))
	require.NoError(t, data.Dimensions()[1].SetProjection(1, 1, 1))
	assert.Equal(t, "sst[0:2][1]", ds.Constraint())

	lon.SetSelected(false)
	assert.Equal(t, "sst.sst[0:2][1],sst.lat[0:2]", ds.Constraint())
}

func TestPrintDAS(t *testing.T) {
	ds := newSurvey(t)
	require.NoError(t, ds.Attributes().AppendAttribute("title", AttrString, "Survey"))
	count, err := ds.Var("count")
	require.NoError(t, err)
	require.NoError(t, count.Attributes().AppendAttribute("units", AttrString, "1"))
	temp, err := ds.Find("station.temp")
	require.NoError(t, err)
	require.NoError(t, temp.Attributes().AppendAttribute("missing_value", AttrFloat32, "-999"))

	var b strings.Builder
	require.NoError(t, ds.PrintDAS(&b))
	assert.Equal(t, `Attributes {
    String title "Survey";
    count {
        String units "1";
    }
    station {
        temp {
            Float32 missing_value -999;
        }
    }
}
`, b.String())
}

func TestNameEncoding(t *testing.T) {
	assert.Equal(t, "sea%20temp", EncodeName("sea temp"))
	assert.Equal(t, "a_b!~*-\"", EncodeName("a_b!~*-\""))
	assert.Equal(t, "x%2Ey", EncodeName("x.y"))
	assert.Equal(t, "sea temp", DecodeName("sea%20temp"))
	assert.Equal(t, "100%", DecodeName("100%"))
	assert.Equal(t, "%zz", DecodeName("%zz"))

	v := NewInt32("sea temp")
	assert.Equal(t, "sea%20temp", v.EncodedName())
}
