package dap

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func TestStructureWireBytes(t *testing.T) {
	s := NewStructure("rec")
	b := NewByte("b")
	require.NoError(t, b.SetValue(200))
	str := NewString("s")
	require.NoError(t, str.SetValue("hi"))
	require.NoError(t, s.AddVariable(b, PartArray))
	require.NoError(t, s.AddVariable(str, PartArray))

	wire := encode(t, s)
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0xC8,
		0x00, 0x00, 0x00, 0x02, 0x68, 0x69, 0x00, 0x00,
	}, wire)

	dst := NewStructure("rec")
	require.NoError(t, dst.AddVariable(NewByte("b"), PartArray))
	require.NoError(t, dst.AddVariable(NewString("s"), PartArray))
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))

	gotB, err := dst.Var("b")
	require.NoError(t, err)
	assert.Equal(t, uint8(200), gotB.(*Scalar).Value())
	gotS, err := dst.VarAt(1)
	require.NoError(t, err)
	assert.Equal(t, "hi", gotS.(*Scalar).Value())
	assert.Same(t, dst, gotS.Parent())
}

func TestMemberLookupMisses(t *testing.T) {
	s := NewStructure("rec")
	require.NoError(t, s.AddVariable(NewInt32("a"), PartArray))

	_, err := s.Var("missing")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchVariable))
	_, err = s.VarAt(1)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchVariable))
	_, err = s.VarAt(-1)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchVariable))
	assert.Error(t, s.AddVariable(nil, PartArray))
}

func TestUniqueNames(t *testing.T) {
	err := UniqueNames([]string{"a", "b", "a"}, "rec")
	require.Error(t, err)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeBadSemantics))
	var e *daperrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "a", e.Details["name"])
	assert.Equal(t, "rec", e.Details["container"])

	assert.NoError(t, UniqueNames([]string{"a", "b", "c"}, "rec"))
	assert.NoError(t, UniqueNames([]string{"A", "a"}, "rec"))
	assert.True(t, daperrors.IsType(UniqueNames([]string{"a", ""}, "rec"), daperrors.ErrorTypeBadSemantics))
}

func TestDuplicateMembersAcceptedUntilChecked(t *testing.T) {
	s := NewStructure("rec")
	require.NoError(t, s.AddVariable(NewInt32("a"), PartArray))
	require.NoError(t, s.AddVariable(NewInt32("b"), PartArray))
	require.NoError(t, s.AddVariable(NewInt32("a"), PartArray))
	assert.Len(t, s.Members(), 3)

	err := CheckSemantics(s, false)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeBadSemantics))
}

func TestCheckSemanticsRecursive(t *testing.T) {
	ds := NewDataset("ds")
	inner := NewStructure("inner")
	require.NoError(t, inner.AddVariable(NewInt32("x"), PartArray))
	require.NoError(t, inner.AddVariable(NewInt32("x"), PartArray))
	require.NoError(t, ds.AddVariable(inner, PartArray))

	assert.NoError(t, CheckSemantics(ds, false))
	assert.Error(t, CheckSemantics(ds, true))

	unnamed := NewDataset("")
	err := CheckSemantics(unnamed, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a dataset must have a name")

	arr, err := NewArray("a", nil)
	require.NoError(t, err)
	assert.Error(t, CheckSemantics(arr, false))
}

func newGrid(t *testing.T) (*Grid, *Array, *Array, *Array) {
	t.Helper()
	g := NewGrid("sst")
	data := newArray(t, "sst", KindFloat32)
	lat := newArray(t, "lat", KindFloat64)
	lon := newArray(t, "lon", KindFloat64)
	dLat, err := lat.AppendDim(3, "lat")
	require.NoError(t, err)
	dLon, err := lon.AppendDim(2, "lon")
	require.NoError(t, err)
	data.AddDimension(dLat)
	data.AddDimension(dLon)
	require.NoError(t, g.AddVariable(data, PartArray))
	require.NoError(t, g.AddVariable(lat, PartMaps))
	require.NoError(t, g.AddVariable(lon, PartMaps))
	return g, data, lat, lon
}

func TestGridSemantics(t *testing.T) {
	g, data, lat, lon := newGrid(t)
	require.NoError(t, CheckSemantics(g, true))
	assert.Equal(t, []Variable{data, lat, lon}, g.Members())
	assert.True(t, g.ProjectionYieldsGrid())

	assert.Error(t, g.AddVariable(NewInt32("x"), PartMaps))

	bad := NewGrid("bad")
	assert.True(t, daperrors.IsType(CheckSemantics(bad, false), daperrors.ErrorTypeBadSemantics))

	short := NewGrid("short")
	require.NoError(t, short.AddVariable(newArray(t, "a", KindInt32, 2, 2), PartArray))
	require.NoError(t, short.AddVariable(newArray(t, "m", KindInt32, 2), PartMaps))
	assert.Error(t, CheckSemantics(short, false))

	mismatch := NewGrid("mismatch")
	require.NoError(t, mismatch.AddVariable(newArray(t, "a", KindInt32, 2), PartArray))
	require.NoError(t, mismatch.AddVariable(newArray(t, "m", KindInt32, 3), PartMaps))
	assert.Error(t, CheckSemantics(mismatch, false))
}

func TestGridProjection(t *testing.T) {
	g, data, lat, lon := newGrid(t)
	require.NoError(t, data.Dimensions()[0].SetProjection(0, 2, 2))
	// lat shares the dimension, so it agrees automatically.
	assert.True(t, g.ProjectionYieldsGrid())
	assert.Equal(t, 2, lat.Length())

	// A map with its own projection that differs breaks the grid.
	own := newArray(t, "lon2", KindFloat64, 2)
	require.NoError(t, own.Dimensions()[0].SetProjection(1, 1, 1))
	g.maps[1] = own
	assert.False(t, g.ProjectionYieldsGrid())
	g.maps[1] = lon

	lat.SetSelected(false)
	assert.False(t, g.ProjectionYieldsGrid())
	lat.SetSelected(true)

	g.maps = g.maps[:1]
	assert.False(t, g.ProjectionYieldsGrid())
	g.maps = append(g.maps, lon)
	assert.True(t, g.ProjectionYieldsGrid())

	data.SetSelected(false)
	assert.False(t, g.ProjectionYieldsGrid())
}

func TestGridWireOrder(t *testing.T) {
	g, data, lat, lon := newGrid(t)
	require.NoError(t, data.Vector().SetValues([]float32{1, 2, 3, 4, 5, 6}))
	require.NoError(t, lat.Vector().SetValues([]float64{10, 20, 30}))
	require.NoError(t, lon.Vector().SetValues([]float64{-1, 1}))

	wire := encode(t, g)
	assert.Len(t, wire, (8+6*4)+(8+3*8)+(8+2*8))

	dst, dData, dLat, dLon := newGrid(t)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, dData.Vector().Values())
	assert.Equal(t, []float64{10, 20, 30}, dLat.Vector().Values())
	assert.Equal(t, []float64{-1, 1}, dLon.Vector().Values())

	// Unselected maps are not transferred.
	lon.SetSelected(false)
	dLon.SetSelected(false)
	wire = encode(t, g)
	assert.Len(t, wire, (8+6*4)+(8+3*8))
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
}

func newSequence(t *testing.T) *Sequence {
	t.Helper()
	seq := NewSequence("obs")
	require.NoError(t, seq.AddVariable(NewInt32("depth"), PartArray))
	require.NoError(t, seq.AddVariable(NewString("site"), PartArray))
	return seq
}

func fillSequence(t *testing.T, seq *Sequence, rows int) {
	t.Helper()
	for i := 0; i < rows; i++ {
		row := seq.NewRow()
		require.NoError(t, row[0].(*Scalar).SetValue(i*10))
		require.NoError(t, row[1].(*Scalar).SetValue("s"))
		require.NoError(t, seq.AddRow(row))
	}
}

func TestSequenceMarkers(t *testing.T) {
	seq := newSequence(t)
	fillSequence(t, seq, 2)

	wire := encode(t, seq)
	row := func(depth byte) []byte {
		return []byte{0x5A, 0, 0, 0, 0, 0, 0, depth, 0, 0, 0, 1, 's', 0, 0, 0}
	}
	want := append(append(row(0), row(10)...), 0xA5, 0, 0, 0)
	assert.Equal(t, want, wire)

	dst := newSequence(t)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	require.Equal(t, 2, dst.RowCount())
	v, err := dst.RowVar(1, "depth")
	require.NoError(t, err)
	assert.Equal(t, int32(10), v.(*Scalar).Value())
	assert.Same(t, dst, v.Parent())

	_, err = dst.Row(2)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchVariable))
}

func TestSequenceBadMarker(t *testing.T) {
	dst := newSequence(t)
	err := Deserialize(NewReader(bytes.NewReader([]byte{0x11, 0, 0, 0})), dst)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeDataRead))
}

func TestSequenceBeforeMarkers(t *testing.T) {
	old := WithServerVersion(ServerVersion{Major: 2, Minor: 14})
	seq := newSequence(t)
	fillSequence(t, seq, 3)

	wire := encode(t, seq, old)
	assert.Len(t, wire, 3*12)

	dst := newSequence(t)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire), old), dst))
	assert.Equal(t, 3, dst.RowCount())

	// A stream that ends inside a row is still an error.
	dst = newSequence(t)
	err := Deserialize(NewReader(bytes.NewReader(wire[:len(wire)-6]), old), dst)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeDataRead))
}

func TestSequenceRowValidation(t *testing.T) {
	seq := newSequence(t)
	assert.Error(t, seq.AddRow([]Variable{NewInt32("depth")}))
	assert.Error(t, seq.AddRow([]Variable{NewString("depth"), NewString("site")}))
	seq.ClearRows()
	assert.Zero(t, seq.RowCount())
}

func TestSequenceRowSharesDimensions(t *testing.T) {
	seq := NewSequence("profile")
	a := newArray(t, "a", KindInt32, 2)
	b := newArray(t, "b", KindInt32)
	b.AddDimension(a.Dimensions()[0])
	require.NoError(t, seq.AddVariable(a, PartArray))
	require.NoError(t, seq.AddVariable(b, PartArray))

	row := seq.NewRow()
	ra, rb := row[0].(*Array), row[1].(*Array)
	assert.Same(t, ra.Dimensions()[0], rb.Dimensions()[0])
	assert.NotSame(t, a.Dimensions()[0], ra.Dimensions()[0])
	assert.Same(t, ra, ra.Dimensions()[0].Container())

	// Rows built while decoding keep the sharing too.
	require.NoError(t, ra.Vector().SetValues([]int32{1, 2}))
	require.NoError(t, rb.Vector().SetValues([]int32{3, 4}))
	require.NoError(t, seq.AddRow(row))
	wire := encode(t, seq)

	dst := NewSequence("profile")
	da := newArray(t, "a", KindInt32, 2)
	db := newArray(t, "b", KindInt32)
	db.AddDimension(da.Dimensions()[0])
	require.NoError(t, dst.AddVariable(da, PartArray))
	require.NoError(t, dst.AddVariable(db, PartArray))
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	require.Equal(t, 1, dst.RowCount())
	got := dst.Rows()[0]
	assert.Same(t, got[0].(*Array).Dimensions()[0], got[1].(*Array).Dimensions()[0])
	assert.Equal(t, []int32{3, 4}, got[1].(*Array).Vector().Values())
}

func TestStructureArray(t *testing.T) {
	tmpl := NewStructure("stations")
	require.NoError(t, tmpl.AddVariable(NewInt16("id"), PartArray))
	arr, err := NewArray("stations", tmpl)
	require.NoError(t, err)
	_, err = arr.AppendDim(2, "n")
	require.NoError(t, err)
	assert.Nil(t, arr.Vector())

	var items []Variable
	for i := 0; i < 2; i++ {
		it, err := arr.NewItem()
		require.NoError(t, err)
		id, err := it.(*Structure).Var("id")
		require.NoError(t, err)
		require.NoError(t, id.(*Scalar).SetValue(i+1))
		items = append(items, it)
	}
	require.NoError(t, arr.SetItems(items))

	wire := encode(t, arr)
	assert.Equal(t, []byte{0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2}, wire)

	tmpl2 := NewStructure("stations")
	require.NoError(t, tmpl2.AddVariable(NewInt16("id"), PartArray))
	dst, err := NewArray("stations", tmpl2)
	require.NoError(t, err)
	_, err = dst.AppendDim(2, "n")
	require.NoError(t, err)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	require.Len(t, dst.Items(), 2)
	id, err := dst.Items()[1].(*Structure).Var("id")
	require.NoError(t, err)
	assert.Equal(t, int16(2), id.(*Scalar).Value())
}

func TestList(t *testing.T) {
	l, err := NewList("values", NewFloat64("values"))
	require.NoError(t, err)
	require.NoError(t, l.Vector().SetValues([]float64{1, 2}))
	assert.Equal(t, 2, l.Len())

	wire := encode(t, l)
	assert.Len(t, wire, 8+16)

	dst, err := NewList("values", NewFloat64("values"))
	require.NoError(t, err)
	require.NoError(t, Deserialize(NewReader(bytes.NewReader(wire)), dst))
	assert.Equal(t, []float64{1, 2}, dst.Vector().Values())

	tmpl, err := dst.VarAt(0)
	require.NoError(t, err)
	assert.Same(t, dst, tmpl.Parent())
}

func TestDatasetSearch(t *testing.T) {
	ds := NewDataset("ds")
	station := NewStructure("station")
	temp := NewFloat32("temp")
	require.NoError(t, station.AddVariable(temp, PartArray))
	require.NoError(t, ds.AddVariable(station, PartArray))
	require.NoError(t, ds.AddVariable(NewInt32("count"), PartArray))

	v, err := ds.Find("station.temp")
	require.NoError(t, err)
	assert.Same(t, temp, v)

	path, err := ds.Search("temp")
	require.NoError(t, err)
	assert.Equal(t, []Variable{station, temp}, path)
	assert.Equal(t, "station.temp", LongName(temp))

	_, err = ds.Find("nope")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchVariable))

	require.NoError(t, ds.DelVariable("count"))
	assert.Error(t, ds.DelVariable("count"))
	assert.Len(t, ds.Members(), 1)
}

func TestConstraintSelection(t *testing.T) {
	ds := NewDataset("ds")
	station := NewStructure("station")
	temp := NewFloat32("temp")
	salt := NewFloat32("salt")
	require.NoError(t, station.AddVariable(temp, PartArray))
	require.NoError(t, station.AddVariable(salt, PartArray))
	require.NoError(t, ds.AddVariable(station, PartArray))
	arr := newArray(t, "sst", KindInt32, 10)
	require.NoError(t, ds.AddVariable(arr, PartArray))

	assert.Equal(t, "station,sst[0:9]", ds.Constraint())

	SelectAll(ds, false)
	Select(temp)
	assert.True(t, station.Selected())
	assert.False(t, salt.Selected())
	assert.Equal(t, "station.temp", ds.Constraint())

	require.NoError(t, temp.SetValue(1.5))
	wire := encode(t, ds)
	assert.Len(t, wire, 4)

	Select(arr)
	require.NoError(t, arr.Dimensions()[0].SetProjection(2, 1, 3))
	assert.Equal(t, "station.temp,sst[2:3]", ds.Constraint())

	ClearConstraints(ds)
	assert.True(t, salt.Selected())
	assert.False(t, arr.Dimensions()[0].HasProjection())
}

func TestSerializeIsExclusivePerVariable(t *testing.T) {
	a := newArray(t, "v", KindInt32, 1000)
	require.NoError(t, a.Vector().SetLength(1000))
	want := encode(t, a)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			if err := Serialize(NewWriter(&buf), a); err == nil {
				results[i] = buf.Bytes()
			}
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestHasAttributes(t *testing.T) {
	s := NewStructure("outer")
	inner := NewStructure("inner")
	leaf := NewInt32("leaf")
	require.NoError(t, inner.AddVariable(leaf, PartArray))
	require.NoError(t, s.AddVariable(inner, PartArray))
	assert.False(t, HasAttributes(s))

	require.NoError(t, leaf.Attributes().AppendAttribute("units", AttrString, "m"))
	assert.True(t, HasAttributes(s))
	assert.True(t, HasAttributes(inner))
}

func TestCheckAttributeNames(t *testing.T) {
	s := NewStructure("station")
	require.NoError(t, s.AddVariable(NewInt32("depth"), PartArray))
	require.NoError(t, s.Attributes().AppendAttribute("units", AttrString, "m"))
	assert.NoError(t, CheckAttributeNames(s))

	require.NoError(t, s.Attributes().AppendAttribute("depth", AttrString, "x"))
	err := CheckAttributeNames(s)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeBadSemantics))
}
