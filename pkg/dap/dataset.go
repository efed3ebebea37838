package dap

import (
	"strings"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Dataset is the root of a declaration: a named, ordered set of top-level
// variables plus the global attribute table.
type Dataset struct {
	node
	memberList
}

// NewDataset returns an empty dataset.
func NewDataset(name string) *Dataset {
	return &Dataset{node: node{name: name, selected: true}}
}

// Kind returns KindDataset.
func (d *Dataset) Kind() Kind { return KindDataset }

// AddVariable appends a top-level variable. The part is ignored.
func (d *Dataset) AddVariable(v Variable, _ Part) error { return d.add(d, v) }

// Var returns the top-level variable with the exact name.
func (d *Dataset) Var(name string) (Variable, error) { return d.find(d, name) }

// VarAt returns the top-level variable at index i.
func (d *Dataset) VarAt(i int) (Variable, error) { return d.at(d, i) }

// Members returns the top-level variables in declaration order.
func (d *Dataset) Members() []Variable { return d.vars }

// DelVariable removes the top-level variable with the exact name.
func (d *Dataset) DelVariable(name string) error {
	for i, v := range d.vars {
		if v.Name() == name {
			SetParent(v, nil)
			d.vars = append(d.vars[:i], d.vars[i+1:]...)
			return nil
		}
	}
	return daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "dataset %q has no variable %q", d.name, name)
}

// Find resolves a fully qualified dotted name such as "station.temp", or
// failing that a leaf name anywhere in the dataset.
func (d *Dataset) Find(name string) (Variable, error) {
	path, err := d.Search(name)
	if err != nil {
		return nil, err
	}
	return path[len(path)-1], nil
}

// Search resolves name the way Find does and returns the path of
// variables from the top-level variable down to the match.
func (d *Dataset) Search(name string) ([]Variable, error) {
	if strings.Contains(name, ".") {
		if path, ok := searchQualified(d, strings.Split(name, ".")); ok {
			return path, nil
		}
	}
	for _, v := range d.vars {
		if path, ok := searchLeaf(v, name); ok {
			return path, nil
		}
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "no variable %q in dataset %q", name, d.name).
		WithDetail("name", name)
}

func searchQualified(c Container, parts []string) ([]Variable, bool) {
	var path []Variable
	for i, p := range parts {
		v, err := c.Var(p)
		if err != nil {
			return nil, false
		}
		path = append(path, v)
		if i == len(parts)-1 {
			return path, true
		}
		next, ok := v.(Container)
		if !ok {
			return nil, false
		}
		if a, isArray := next.(*Array); isArray {
			// Structure arrays expose the members of their template.
			if t, isContainer := a.template.(Container); isContainer {
				next = t
			}
		}
		c = next
	}
	return nil, false
}

func searchLeaf(v Variable, name string) ([]Variable, bool) {
	if v.Name() == name {
		return []Variable{v}, true
	}
	c, ok := v.(Container)
	if !ok {
		return nil, false
	}
	if _, isArray := v.(*Array); isArray {
		t := c.Members()
		if len(t) == 1 {
			if sub, ok := t[0].(Container); ok {
				c = sub
			} else {
				return nil, false
			}
		}
	}
	for _, m := range c.Members() {
		if p, ok := searchLeaf(m, name); ok {
			return append([]Variable{v}, p...), true
		}
	}
	return nil, false
}
