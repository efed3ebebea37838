package dap

import (
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Grid is an array paired with one coordinate map per dimension.
type Grid struct {
	node
	array *Array
	maps  []*Array
}

// NewGrid returns an empty grid.
func NewGrid(name string) *Grid {
	return &Grid{node: node{name: name, selected: true}}
}

// Kind returns KindGrid.
func (g *Grid) Kind() Kind { return KindGrid }

// AddVariable sets the data array (PartArray) or appends a map (PartMaps).
// Both must be arrays.
func (g *Grid) AddVariable(v Variable, part Part) error {
	a, ok := v.(*Array)
	if !ok {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"grid %q members must be arrays, got %T", g.name, v).
			WithDetail("container", g.name)
	}
	switch part {
	case PartArray:
		g.array = a
	case PartMaps:
		g.maps = append(g.maps, a)
	default:
		return daperrors.Newf(daperrors.ErrorTypeInternal, "unknown grid part %d", part)
	}
	SetParent(a, g)
	return nil
}

// Array returns the data array, nil until set.
func (g *Grid) Array() *Array { return g.array }

// Maps returns the coordinate maps in declaration order.
func (g *Grid) Maps() []*Array { return g.maps }

// Members returns the array followed by the maps.
func (g *Grid) Members() []Variable {
	out := make([]Variable, 0, len(g.maps)+1)
	if g.array != nil {
		out = append(out, g.array)
	}
	for _, m := range g.maps {
		out = append(out, m)
	}
	return out
}

// Var returns the array or map with the exact name.
func (g *Grid) Var(name string) (Variable, error) {
	for _, v := range g.Members() {
		if v.Name() == name {
			return v, nil
		}
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member %q", g.name, name).
		WithDetail("container", g.name)
}

// VarAt returns the array for index 0 and map i-1 otherwise.
func (g *Grid) VarAt(i int) (Variable, error) {
	members := g.Members()
	if i < 0 || i >= len(members) {
		return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member at index %d", g.name, i).
			WithDetail("container", g.name)
	}
	return members[i], nil
}

// ProjectionYieldsGrid reports whether the current constraint still forms
// a grid: the array is selected, there is one map per array dimension, and
// every non-empty array dimension has its map selected with the same
// start, stride and stop.
func (g *Grid) ProjectionYieldsGrid() bool {
	if g.array == nil || !g.array.Selected() {
		return false
	}
	if len(g.maps) != len(g.array.dims) {
		return false
	}
	for i, d := range g.array.dims {
		if d.Size() == 0 {
			continue
		}
		m := g.maps[i]
		if !m.Selected() || len(m.dims) == 0 {
			return false
		}
		if d.Slice() != m.dims[0].Slice() {
			return false
		}
	}
	return true
}

// checkSemantics verifies the grid structure: an array, uniquely named
// members, one single-dimension scalar map per array dimension with the
// same effective size.
func (g *Grid) checkSemantics(all bool) error {
	if g.array == nil {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "grid %q has no array", g.name).
			WithDetail("container", g.name)
	}
	if err := CheckUniqueNames(g); err != nil {
		return err
	}
	if len(g.maps) != g.array.Rank() {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"grid %q has %d maps for an array of rank %d", g.name, len(g.maps), g.array.Rank()).
			WithDetail("container", g.name)
	}
	for i, m := range g.maps {
		if m.Rank() != 1 {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"grid %q map %q must have exactly one dimension", g.name, m.Name()).
				WithDetail("container", g.name)
		}
		if m.Vector() == nil {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"grid %q map %q must hold a scalar type", g.name, m.Name()).
				WithDetail("container", g.name)
		}
		if m.dims[0].Size() != g.array.dims[i].Size() {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"grid %q map %q has size %d but array dimension %d has size %d",
				g.name, m.Name(), m.dims[0].Size(), i, g.array.dims[i].Size()).
				WithDetail("container", g.name)
		}
	}
	if all {
		for _, v := range g.Members() {
			if err := CheckSemantics(v, true); err != nil {
				return err
			}
		}
	}
	return nil
}
