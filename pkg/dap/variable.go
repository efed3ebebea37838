package dap

import (
	"strings"
	"sync"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Kind is the type tag of a variable, used for wire dispatch and for the
// textual declaration.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindByte
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindFloat32
	KindFloat64
	KindString
	KindURL
	KindArray
	KindStructure
	KindSequence
	KindGrid
	KindList
	KindDataset
)

var kindNames = map[Kind]string{
	KindByte:      "Byte",
	KindInt16:     "Int16",
	KindUInt16:    "UInt16",
	KindInt32:     "Int32",
	KindUInt32:    "UInt32",
	KindFloat32:   "Float32",
	KindFloat64:   "Float64",
	KindString:    "String",
	KindURL:       "Url",
	KindArray:     "Array",
	KindStructure: "Structure",
	KindSequence:  "Sequence",
	KindGrid:      "Grid",
	KindList:      "List",
	KindDataset:   "Dataset",
}

// String returns the declaration keyword of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsScalar reports whether k is one of the leaf kinds.
func (k Kind) IsScalar() bool {
	return k >= KindByte && k <= KindURL
}

// IsContainer reports whether k holds named members.
func (k Kind) IsContainer() bool {
	return k == KindStructure || k == KindSequence || k == KindGrid || k == KindList || k == KindDataset
}

// ParseKind maps a declaration keyword to its kind. Matching ignores case,
// so "uint16" and "UInt16" are equivalent.
func ParseKind(name string) (Kind, error) {
	for k, s := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return KindUnknown, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "unknown type name %q", name)
}

// Variable is a named, typed node of the declared-data graph. The concrete
// variants are *Scalar, *Array, *Structure, *Sequence, *Grid, *List and
// *Dataset; the set is closed.
type Variable interface {
	// Name returns the clear (unescaped) name.
	Name() string
	// SetName replaces the clear name.
	SetName(name string)
	// EncodedName returns the name with characters outside the DAP2
	// identifier set escaped as %XX.
	EncodedName() string
	// Kind returns the type tag.
	Kind() Kind
	// Parent returns the owning container, or nil for a root or detached node.
	Parent() Container
	// Attributes returns the attribute table, creating it on first use.
	Attributes() *AttributeTable
	// Selected reports whether the current constraint projects this variable.
	Selected() bool
	// SetSelected marks the variable as projected or not.
	SetSelected(selected bool)

	base() *node
}

// Container is a variable holding an ordered list of named members.
type Container interface {
	Variable
	// AddVariable appends v. For a Grid, part distinguishes the array
	// member from the map members; other containers ignore it.
	AddVariable(v Variable, part Part) error
	// Var returns the member with the exact name.
	Var(name string) (Variable, error)
	// VarAt returns the member at index i.
	VarAt(i int) (Variable, error)
	// Members returns the members in declaration order.
	Members() []Variable
}

// Part selects the role of a member added to a Grid.
type Part int

const (
	// PartArray is the data array of a grid.
	PartArray Part = iota
	// PartMaps is a coordinate map of a grid.
	PartMaps
)

// node holds the state shared by every variant.
type node struct {
	mu       sync.Mutex
	name     string
	parent   Container
	attrs    *AttributeTable
	selected bool
}

func (n *node) base() *node { return n }

// Name returns the clear name.
func (n *node) Name() string { return n.name }

// SetName replaces the clear name.
func (n *node) SetName(name string) { n.name = name }

// EncodedName returns the escaped name.
func (n *node) EncodedName() string { return EncodeName(n.name) }

// Parent returns the owning container.
func (n *node) Parent() Container { return n.parent }

// Attributes returns the attribute table, creating it on first use.
func (n *node) Attributes() *AttributeTable {
	if n.attrs == nil {
		n.attrs = NewAttributeTable(n.name)
	}
	return n.attrs
}

// Selected reports whether the variable is projected.
func (n *node) Selected() bool { return n.selected }

// SetSelected marks the variable as projected or not.
func (n *node) SetSelected(selected bool) { n.selected = selected }

// hasOwnAttributes reports whether the node carries at least one attribute
// without allocating a table.
func (n *node) hasOwnAttributes() bool {
	return n.attrs != nil && n.attrs.Len() > 0
}

// copyFrom copies the scalar fields of src. Attributes and parent links are
// handled by the clone traversal.
func (n *node) copyFrom(src *node) {
	n.name = src.name
	n.selected = src.selected
}

// LongName returns the dotted path from the outermost container below the
// dataset to v. Array templates share the name of their array, so arrays
// do not contribute a path component of their own.
func LongName(v Variable) string {
	parts := []string{v.Name()}
	for p := v.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == KindDataset {
			break
		}
		if p.Kind() == KindArray {
			continue
		}
		parts = append(parts, p.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// SetParent links v to its owning container. Containers call it from
// AddVariable; it is exported for factories that assemble graphs directly.
func SetParent(v Variable, parent Container) {
	v.base().parent = parent
}

// Walk visits v and every variable below it depth-first in declaration
// order. Array and list templates are visited; decoded elements and
// sequence rows are not. Returning false from fn stops the descent below
// that variable.
func Walk(v Variable, fn func(Variable) bool) {
	if !fn(v) {
		return
	}
	if c, ok := v.(Container); ok {
		for _, m := range c.Members() {
			Walk(m, fn)
		}
	}
}

// SelectAll marks v and every variable below it as projected or not.
func SelectAll(v Variable, selected bool) {
	Walk(v, func(x Variable) bool {
		x.SetSelected(selected)
		return true
	})
}

// ClearConstraints resets v's graph to the unconstrained state: every
// variable selected and every dimension projection removed.
func ClearConstraints(v Variable) {
	Walk(v, func(x Variable) bool {
		x.SetSelected(true)
		if a, ok := x.(*Array); ok {
			for _, d := range a.dims {
				d.ClearProjection()
			}
		}
		return true
	})
}

// Select marks v and every container above it as projected, the way a
// constraint evaluator marks a field reference such as "station.temp".
func Select(v Variable) {
	v.SetSelected(true)
	for p := v.Parent(); p != nil; p = p.Parent() {
		p.SetSelected(true)
	}
}
