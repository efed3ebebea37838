package dap

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// AttrType is the declared type of an attribute.
type AttrType uint8

const (
	AttrUnknown AttrType = iota
	AttrContainer
	AttrAlias
	AttrByte
	AttrInt16
	AttrUInt16
	AttrInt32
	AttrUInt32
	AttrFloat32
	AttrFloat64
	AttrString
	AttrURL
)

var attrTypeNames = [...]string{
	AttrUnknown:   "Unknown",
	AttrContainer: "Container",
	AttrAlias:     "Alias",
	AttrByte:      "Byte",
	AttrInt16:     "Int16",
	AttrUInt16:    "UInt16",
	AttrInt32:     "Int32",
	AttrUInt32:    "UInt32",
	AttrFloat32:   "Float32",
	AttrFloat64:   "Float64",
	AttrString:    "String",
	AttrURL:       "Url",
}

// String returns the DAS keyword of the type.
func (t AttrType) String() string {
	if int(t) < len(attrTypeNames) {
		return attrTypeNames[t]
	}
	return "Unknown"
}

// ParseAttrType maps a DAS keyword to its type, ignoring case.
func ParseAttrType(name string) (AttrType, error) {
	for i, s := range attrTypeNames {
		if i != int(AttrUnknown) && strings.EqualFold(s, name) {
			return AttrType(i), nil
		}
	}
	return AttrUnknown, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "unknown attribute type %q", name)
}

// Attribute is one named entry of an attribute table: a list of typed
// values, a nested table, or an alias for another entry.
type Attribute struct {
	name   string
	typ    AttrType
	values []string
	table  *AttributeTable
	target string
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Type returns the declared type.
func (a *Attribute) Type() AttrType { return a.typ }

// Values returns the values in their normalized text form.
func (a *Attribute) Values() []string { return a.values }

// Value returns value i.
func (a *Attribute) Value(i int) (string, error) {
	if i < 0 || i >= len(a.values) {
		return "", daperrors.Newf(daperrors.ErrorTypeNoSuchAttribute,
			"attribute %q has no value %d", a.name, i)
	}
	return a.values[i], nil
}

// Table returns the nested table of a container attribute.
func (a *Attribute) Table() *AttributeTable { return a.table }

// IsContainer reports whether the attribute holds a nested table.
func (a *Attribute) IsContainer() bool { return a.typ == AttrContainer }

// IsAlias reports whether the attribute is an alias.
func (a *Attribute) IsAlias() bool { return a.typ == AttrAlias }

// Target returns the name an alias refers to.
func (a *Attribute) Target() string { return a.target }

// AppendValue validates v against the attribute type and appends it.
func (a *Attribute) AppendValue(v string) error {
	if a.typ == AttrContainer || a.typ == AttrAlias {
		return daperrors.Newf(daperrors.ErrorTypeAttributeBadValue,
			"%s attribute %q cannot hold values", a.typ, a.name)
	}
	nv, err := CheckAttributeValue(a.typ, v)
	if err != nil {
		return daperrors.Wrapf(err, daperrors.ErrorTypeAttributeBadValue, "attribute %q", a.name)
	}
	a.values = append(a.values, nv)
	return nil
}

// CheckAttributeValue validates v for type t and returns its normalized
// text. Byte values from -128 to -1 are stored as their unsigned
// equivalent.
func CheckAttributeValue(t AttrType, v string) (string, error) {
	s := strings.TrimSpace(v)
	var err error
	switch t {
	case AttrByte:
		var n int64
		n, err = strconv.ParseInt(s, 0, 16)
		if err == nil {
			if n < -128 || n > 255 {
				return "", daperrors.Newf(daperrors.ErrorTypeAttributeBadValue, "%q is not a Byte", v)
			}
			return strconv.FormatInt(n&0xFF, 10), nil
		}
	case AttrInt16:
		_, err = strconv.ParseInt(s, 0, 16)
	case AttrUInt16:
		_, err = strconv.ParseUint(s, 0, 16)
	case AttrInt32:
		_, err = strconv.ParseInt(s, 0, 32)
	case AttrUInt32:
		_, err = strconv.ParseUint(s, 0, 32)
	case AttrFloat32:
		_, err = strconv.ParseFloat(s, 32)
	case AttrFloat64:
		_, err = strconv.ParseFloat(s, 64)
	case AttrString, AttrURL:
		return v, nil
	default:
		return "", daperrors.Newf(daperrors.ErrorTypeAttributeBadValue, "%s attributes have no values", t)
	}
	if err != nil {
		return "", daperrors.Wrapf(err, daperrors.ErrorTypeAttributeBadValue, "%q is not a %s", v, t)
	}
	return s, nil
}

// AttributeTable maps attribute names to attributes in insertion order.
// Aliases are entries of their own that resolve to a canonical entry on
// lookup.
type AttributeTable struct {
	name   string
	order  []string
	attrs  map[string]*Attribute
	parent *AttributeTable
}

// NewAttributeTable returns an empty table.
func NewAttributeTable(name string) *AttributeTable {
	return &AttributeTable{name: name, attrs: make(map[string]*Attribute)}
}

// Name returns the table name.
func (t *AttributeTable) Name() string { return t.name }

// Parent returns the enclosing table of a nested table.
func (t *AttributeTable) Parent() *AttributeTable { return t.parent }

// Len returns the number of entries, aliases included.
func (t *AttributeTable) Len() int { return len(t.order) }

// Names returns the entry names in insertion order.
func (t *AttributeTable) Names() []string {
	return append([]string(nil), t.order...)
}

func (t *AttributeTable) insert(a *Attribute) error {
	if _, exists := t.attrs[a.name]; exists {
		return daperrors.Newf(daperrors.ErrorTypeMalformedExpression,
			"attribute %q already exists in %q", a.name, t.name).
			WithDetail("table", t.name).
			WithDetail("attribute", a.name)
	}
	t.attrs[a.name] = a
	t.order = append(t.order, a.name)
	return nil
}

// AppendAttribute adds a typed attribute with the given values. Every value
// is checked against the type.
func (t *AttributeTable) AppendAttribute(name string, typ AttrType, values ...string) error {
	if typ == AttrContainer || typ == AttrAlias || typ == AttrUnknown {
		return daperrors.Newf(daperrors.ErrorTypeAttributeBadValue,
			"use AppendContainer or AddAlias for %s attribute %q", typ, name)
	}
	a := &Attribute{name: name, typ: typ}
	for _, v := range values {
		if err := a.AppendValue(v); err != nil {
			return err
		}
	}
	return t.insert(a)
}

// AppendContainer adds and returns a new nested table.
func (t *AttributeTable) AppendContainer(name string) (*AttributeTable, error) {
	child := NewAttributeTable(name)
	if err := t.AddContainer(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddContainer adds an existing table as a nested table.
func (t *AttributeTable) AddContainer(name string, child *AttributeTable) error {
	if err := t.insert(&Attribute{name: name, typ: AttrContainer, table: child}); err != nil {
		return err
	}
	child.parent = t
	return nil
}

// AddAlias adds alias as another name for target. The target must already
// resolve, either as an entry of this table or as a dotted path through
// nested tables.
func (t *AttributeTable) AddAlias(alias, target string) error {
	if _, err := t.resolve(target); err != nil {
		return daperrors.Newf(daperrors.ErrorTypeUnresolvedAlias,
			"alias %q refers to missing attribute %q", alias, target).
			WithDetail("table", t.name).
			WithDetail("alias", alias).
			WithDetail("target", target)
	}
	return t.insert(&Attribute{name: alias, typ: AttrAlias, target: target})
}

// Attribute returns the entry with the given name. Aliases resolve to the
// canonical entry.
func (t *AttributeTable) Attribute(name string) (*Attribute, error) {
	return t.resolve(name)
}

// Entry returns the entry with the given name without resolving aliases.
func (t *AttributeTable) Entry(name string) (*Attribute, error) {
	a, ok := t.attrs[name]
	if !ok {
		return nil, t.missing(name)
	}
	return a, nil
}

// Container returns the nested table with the given name.
func (t *AttributeTable) Container(name string) (*AttributeTable, error) {
	a, err := t.resolve(name)
	if err != nil {
		return nil, err
	}
	if a.table == nil {
		return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchAttribute,
			"attribute %q in %q is not a container", name, t.name)
	}
	return a.table, nil
}

// Del removes the entry with the given name.
func (t *AttributeTable) Del(name string) error {
	if _, ok := t.attrs[name]; !ok {
		return t.missing(name)
	}
	delete(t.attrs, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

const maxAliasDepth = 32

func (t *AttributeTable) resolve(name string) (*Attribute, error) {
	cur, path := t, name
	for depth := 0; depth < maxAliasDepth; depth++ {
		a, err := cur.lookupPath(path)
		if err != nil {
			return nil, err
		}
		if a.typ != AttrAlias {
			return a, nil
		}
		path = a.target
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeUnresolvedAlias, "alias chain for %q is too deep", name)
}

// lookupPath finds name directly, then as a dotted path through nested
// tables.
func (t *AttributeTable) lookupPath(name string) (*Attribute, error) {
	if a, ok := t.attrs[name]; ok {
		return a, nil
	}
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return nil, t.missing(name)
	}
	cur := t
	for i, p := range parts {
		a, ok := cur.attrs[p]
		if !ok {
			return nil, t.missing(name)
		}
		if i == len(parts)-1 {
			return a, nil
		}
		if a.table == nil {
			return nil, t.missing(name)
		}
		cur = a.table
	}
	return nil, t.missing(name)
}

func (t *AttributeTable) missing(name string) error {
	return daperrors.Newf(daperrors.ErrorTypeNoSuchAttribute, "attribute %q does not exist in %q", name, t.name).
		WithDetail("table", t.name).
		WithDetail("attribute", name)
}

// Print writes the table entries in DAS syntax, each line prefixed by pad.
func (t *AttributeTable) Print(w io.Writer, pad string) error {
	for _, name := range t.order {
		a := t.attrs[name]
		var err error
		switch a.typ {
		case AttrContainer:
			if _, err = fmt.Fprintf(w, "%s%s {\n", pad, EncodeName(a.name)); err != nil {
				break
			}
			if err = a.table.Print(w, pad+"    "); err != nil {
				break
			}
			_, err = fmt.Fprintf(w, "%s}\n", pad)
		case AttrAlias:
			_, err = fmt.Fprintf(w, "%sAlias %s %s;\n", pad, EncodeName(a.name), EncodePath(a.target))
		default:
			vals := make([]string, len(a.values))
			for i, v := range a.values {
				if a.typ == AttrString || a.typ == AttrURL {
					v = QuoteString(v)
				}
				vals[i] = v
			}
			_, err = fmt.Fprintf(w, "%s%s %s %s;\n", pad, a.typ, EncodeName(a.name), strings.Join(vals, ", "))
		}
		if err != nil {
			return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to print attribute table")
		}
	}
	return nil
}
