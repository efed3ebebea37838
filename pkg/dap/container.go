package dap

import (
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// memberList is the ordered member storage of Structure, Sequence and
// Dataset. Insertion order is declaration order and wire order.
type memberList struct {
	vars []Variable
}

func (l *memberList) add(owner Container, v Variable) error {
	if v == nil {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "cannot add a nil member to %q", owner.Name())
	}
	SetParent(v, owner)
	l.vars = append(l.vars, v)
	return nil
}

func (l *memberList) find(owner Container, name string) (Variable, error) {
	for _, v := range l.vars {
		if v.Name() == name {
			return v, nil
		}
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member %q", owner.Name(), name).
		WithDetail("container", owner.Name()).
		WithDetail("name", name)
}

func (l *memberList) at(owner Container, i int) (Variable, error) {
	if i < 0 || i >= len(l.vars) {
		return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable,
			"%q has no member at index %d", owner.Name(), i).
			WithDetail("container", owner.Name()).
			WithDetail("index", i)
	}
	return l.vars[i], nil
}

// Structure is a record of named members of any kind.
type Structure struct {
	node
	memberList
}

// NewStructure returns an empty structure.
func NewStructure(name string) *Structure {
	return &Structure{node: node{name: name, selected: true}}
}

// Kind returns KindStructure.
func (s *Structure) Kind() Kind { return KindStructure }

// AddVariable appends v. The part is ignored.
func (s *Structure) AddVariable(v Variable, _ Part) error { return s.add(s, v) }

// Var returns the member with the exact name.
func (s *Structure) Var(name string) (Variable, error) { return s.find(s, name) }

// VarAt returns the member at index i.
func (s *Structure) VarAt(i int) (Variable, error) { return s.at(s, i) }

// Members returns the members in declaration order.
func (s *Structure) Members() []Variable { return s.vars }

// List is a variable-length vector of elements following one template.
// Unlike an Array its length is not declared; it is carried on the wire.
type List struct {
	node
	elements
}

// NewList returns a list with the given element template. The template
// may be nil and set later with AddVariable.
func NewList(name string, template Variable) (*List, error) {
	l := &List{node: node{name: name, selected: true}}
	if template != nil {
		if err := l.setTemplate(l, template); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Kind returns KindList.
func (l *List) Kind() Kind { return KindList }

// AddVariable sets the element template. The part is ignored.
func (l *List) AddVariable(v Variable, _ Part) error { return l.setTemplate(l, v) }

// Var returns the template if it has the given name.
func (l *List) Var(name string) (Variable, error) { return l.templateVar(l.name, name) }

// VarAt returns the template for index 0.
func (l *List) VarAt(i int) (Variable, error) { return l.templateAt(l.name, i) }

// Members returns the template as the only member.
func (l *List) Members() []Variable { return l.templateMembers() }

// SetItems assigns the constructor elements of the list.
func (l *List) SetItems(items []Variable) error { return l.setItems(l, items) }

// Len returns the current number of elements.
func (l *List) Len() int {
	if l.vec != nil {
		return l.vec.Len()
	}
	return len(l.items)
}

// HasAttributes reports whether v or any variable below it carries at
// least one attribute. Declarations without attributes can be rendered in
// their compact form.
func HasAttributes(v Variable) bool {
	found := false
	Walk(v, func(x Variable) bool {
		if x.base().hasOwnAttributes() {
			found = true
		}
		return !found
	})
	return found
}
