package dap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func TestAliasResolvesToCanonical(t *testing.T) {
	tbl := NewAttributeTable("sst")
	require.NoError(t, tbl.AppendAttribute("latitude", AttrFloat64, "10.5"))
	require.NoError(t, tbl.AddAlias("lat", "latitude"))

	canonical, err := tbl.Attribute("latitude")
	require.NoError(t, err)
	viaAlias, err := tbl.Attribute("lat")
	require.NoError(t, err)
	assert.Same(t, canonical, viaAlias)

	// Values added after the alias are visible through it.
	require.NoError(t, canonical.AppendValue("11"))
	viaAlias, err = tbl.Attribute("lat")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.5", "11"}, viaAlias.Values())

	entry, err := tbl.Entry("lat")
	require.NoError(t, err)
	assert.True(t, entry.IsAlias())
	assert.Equal(t, "latitude", entry.Target())
	assert.Equal(t, []string{"latitude", "lat"}, tbl.Names())
}

func TestAliasErrors(t *testing.T) {
	tbl := NewAttributeTable("sst")
	err := tbl.AddAlias("lat", "latitude")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeUnresolvedAlias))
	assert.Zero(t, tbl.Len())

	require.NoError(t, tbl.AppendAttribute("latitude", AttrFloat64, "1"))
	require.NoError(t, tbl.AddAlias("lat", "latitude"))
	err = tbl.AddAlias("lat", "latitude")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeMalformedExpression))

	require.NoError(t, tbl.Del("latitude"))
	_, err = tbl.Attribute("lat")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchAttribute))
}

func TestDottedAlias(t *testing.T) {
	tbl := NewAttributeTable("ds")
	global, err := tbl.AppendContainer("NC_GLOBAL")
	require.NoError(t, err)
	assert.Same(t, tbl, global.Parent())
	require.NoError(t, global.AppendAttribute("title", AttrString, "Sea surface temperature"))
	require.NoError(t, tbl.AddAlias("title", "NC_GLOBAL.title"))

	a, err := tbl.Attribute("title")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sea surface temperature"}, a.Values())

	c, err := tbl.Container("NC_GLOBAL")
	require.NoError(t, err)
	assert.Same(t, global, c)
	_, err = tbl.Container("title")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeNoSuchAttribute))

	require.NoError(t, global.AppendAttribute("sea level", AttrString, "msl"))
	require.NoError(t, tbl.AddAlias("datum", "NC_GLOBAL.sea level"))
	var b strings.Builder
	require.NoError(t, tbl.Print(&b, ""))
	assert.Contains(t, b.String(), "Alias title NC_GLOBAL.title;\n")
	assert.Contains(t, b.String(), "Alias datum NC_GLOBAL.sea%20level;\n")
}

func TestDuplicateAttribute(t *testing.T) {
	tbl := NewAttributeTable("v")
	require.NoError(t, tbl.AppendAttribute("units", AttrString, "m"))
	err := tbl.AppendAttribute("units", AttrString, "km")
	require.Error(t, err)
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeMalformedExpression))

	a, err := tbl.Attribute("units")
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, a.Values())

	_, err = tbl.AppendContainer("units")
	assert.Error(t, err)
}

func TestAttributeValueChecks(t *testing.T) {
	tests := []struct {
		typ   AttrType
		value string
		want  string
		ok    bool
	}{
		{AttrByte, "200", "200", true},
		{AttrByte, "-1", "255", true},
		{AttrByte, "-128", "128", true},
		{AttrByte, "256", "", false},
		{AttrByte, "-129", "", false},
		{AttrInt16, "-32768", "-32768", true},
		{AttrInt16, "40000", "", false},
		{AttrUInt16, "65535", "65535", true},
		{AttrUInt16, "-1", "", false},
		{AttrInt32, " 7 ", "7", true},
		{AttrUInt32, "4294967296", "", false},
		{AttrFloat32, "1.5", "1.5", true},
		{AttrFloat32, "1e39", "", false},
		{AttrFloat64, "NaN", "NaN", true},
		{AttrFloat64, "abc", "", false},
		{AttrString, " spaced ", " spaced ", true},
		{AttrURL, "http://x", "http://x", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.value, func(t *testing.T) {
			got, err := CheckAttributeValue(tt.typ, tt.value)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeAttributeBadValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	tbl := NewAttributeTable("v")
	err := tbl.AppendAttribute("flags", AttrByte, "1", "300")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeAttributeBadValue))
	_, err = tbl.Attribute("flags")
	assert.Error(t, err)

	assert.Error(t, tbl.AppendAttribute("c", AttrContainer))
	assert.Error(t, tbl.AppendAttribute("a", AttrAlias))
}

func TestParseAttrType(t *testing.T) {
	typ, err := ParseAttrType("float32")
	require.NoError(t, err)
	assert.Equal(t, AttrFloat32, typ)
	typ, err = ParseAttrType("URL")
	require.NoError(t, err)
	assert.Equal(t, AttrURL, typ)

	_, err = ParseAttrType("Int64")
	assert.True(t, daperrors.IsType(err, daperrors.ErrorTypeMalformedExpression))
}

func TestAttributeTablePrint(t *testing.T) {
	tbl := NewAttributeTable("sst")
	require.NoError(t, tbl.AppendAttribute("long name", AttrString, `say "hi"`))
	require.NoError(t, tbl.AppendAttribute("valid_range", AttrInt16, "-5", "40"))
	require.NoError(t, tbl.AddAlias("range", "valid_range"))
	nested, err := tbl.AppendContainer("history")
	require.NoError(t, err)
	require.NoError(t, nested.AppendAttribute("step", AttrByte, "-2"))

	var b strings.Builder
	require.NoError(t, tbl.Print(&b, "  "))
	assert.Equal(t, `  String long%20name "say \"hi\"";
  Int16 valid_range -5, 40;
  Alias range valid_range;
  history {
      Byte step 254;
  }
`, b.String())
}
