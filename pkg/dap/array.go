package dap

import (
	"strings"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// elements is the value storage shared by Array and List. Scalar templates
// store values in a PrimitiveVector; constructor templates store one clone
// of the template per element.
type elements struct {
	template Variable
	vec      *PrimitiveVector
	items    []Variable
}

func (e *elements) setTemplate(owner Container, v Variable) error {
	if v == nil {
		return daperrors.New(daperrors.ErrorTypeBadSemantics, "element template must not be nil")
	}
	e.template = v
	e.items = nil
	e.vec = nil
	if s, ok := v.(*Scalar); ok {
		vec, err := NewPrimitiveVector(s.kind)
		if err != nil {
			return err
		}
		e.vec = vec
	}
	SetParent(v, owner)
	return nil
}

// Vector returns the primitive value vector, or nil for constructor elements.
func (e *elements) Vector() *PrimitiveVector { return e.vec }

// Template returns the element template.
func (e *elements) Template() Variable { return e.template }

// Items returns the decoded or assigned constructor elements.
func (e *elements) Items() []Variable { return e.items }

// NewItem returns a fresh clone of the template, detached from the owner's
// item list until passed to SetItems.
func (e *elements) NewItem() (Variable, error) {
	if e.template == nil {
		return nil, daperrors.New(daperrors.ErrorTypeBadSemantics, "element template is not set")
	}
	return Clone(e.template), nil
}

func (e *elements) templateVar(owner, name string) (Variable, error) {
	if e.template != nil && e.template.Name() == name {
		return e.template, nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member %q", owner, name).
		WithDetail("container", owner)
}

func (e *elements) templateAt(owner string, i int) (Variable, error) {
	if e.template != nil && i == 0 {
		return e.template, nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member at index %d", owner, i).
		WithDetail("container", owner)
}

func (e *elements) templateMembers() []Variable {
	if e.template == nil {
		return nil
	}
	return []Variable{e.template}
}

func (e *elements) setItems(owner Container, items []Variable) error {
	if e.template == nil || e.vec != nil {
		return daperrors.New(daperrors.ErrorTypeBadSemantics, "items are only held for constructor templates")
	}
	for _, it := range items {
		if it.Kind() != e.template.Kind() {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"item of kind %s does not match template kind %s", it.Kind(), e.template.Kind())
		}
		SetParent(it, owner)
	}
	e.items = items
	return nil
}

func (e *elements) encode(w *Writer, name string, n int) error {
	if e.template == nil {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%q has no element template", name)
	}
	if e.vec != nil {
		return e.vec.encode(w, n)
	}
	if len(e.items) != n {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"%q holds %d elements but the declared size is %d", name, len(e.items), n)
	}
	if err := w.WriteInt32(int32(n)); err != nil {
		return err
	}
	for _, it := range e.items {
		if err := w.cancelled(); err != nil {
			return err
		}
		if err := Serialize(w, it); err != nil {
			return err
		}
	}
	return nil
}

// decode reads n elements. A negative n accepts whatever count the stream
// carries, which is how lists are read.
func (e *elements) decode(r *Reader, owner Container, name string, n int) error {
	if e.template == nil {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%q has no element template", name)
	}
	if e.vec != nil {
		return e.vec.decode(r, n)
	}

	count, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if n >= 0 && int(count) != n {
		return daperrors.Newf(daperrors.ErrorTypeDataRead,
			"%q element count %d does not match the declared size %d", name, count, n)
	}
	if count < 0 {
		return daperrors.Newf(daperrors.ErrorTypeDataRead, "%q has negative element count %d", name, count)
	}
	items := make([]Variable, 0, min(int(count), vectorChunk))
	for i := 0; i < int(count); i++ {
		if err := r.cancelled(); err != nil {
			return err
		}
		it := Clone(e.template)
		SetParent(it, owner)
		if err := Deserialize(r, it); err != nil {
			return err
		}
		items = append(items, it)
	}
	e.items = items
	return nil
}

// Array is an n-dimensional array whose elements all follow one template
// variable.
type Array struct {
	node
	elements
	dims []*Dimension
}

// NewArray returns an array with the given element template. The template
// may be nil and set later with AddVariable.
func NewArray(name string, template Variable) (*Array, error) {
	a := &Array{node: node{name: name, selected: true}}
	if template != nil {
		if err := a.setTemplate(a, template); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Kind returns KindArray.
func (a *Array) Kind() Kind { return KindArray }

// AddVariable sets the element template. The part is ignored.
func (a *Array) AddVariable(v Variable, _ Part) error {
	return a.setTemplate(a, v)
}

// Var returns the template if it has the given name.
func (a *Array) Var(name string) (Variable, error) {
	return a.templateVar(a.name, name)
}

// VarAt returns the template for index 0.
func (a *Array) VarAt(i int) (Variable, error) {
	return a.templateAt(a.name, i)
}

// Members returns the template as the only member.
func (a *Array) Members() []Variable {
	return a.templateMembers()
}

// SetItems assigns the constructor elements of the array.
func (a *Array) SetItems(items []Variable) error {
	return a.setItems(a, items)
}

// AppendDim adds a new dimension owned by this array.
func (a *Array) AppendDim(size int, name string) (*Dimension, error) {
	d, err := NewDimension(name, size)
	if err != nil {
		return nil, err
	}
	d.container = a
	a.dims = append(a.dims, d)
	return d, nil
}

// AddDimension adds an existing dimension, shared with the array that owns
// it. A detached dimension becomes owned by this array.
func (a *Array) AddDimension(d *Dimension) {
	if d.container == nil {
		d.container = a
	}
	a.dims = append(a.dims, d)
}

// Dimensions returns the dimensions in declaration order.
func (a *Array) Dimensions() []*Dimension { return a.dims }

// Dimension returns dimension i.
func (a *Array) Dimension(i int) (*Dimension, error) {
	if i < 0 || i >= len(a.dims) {
		return nil, daperrors.Newf(daperrors.ErrorTypeInvalidDimension,
			"array %q has no dimension %d", a.name, i)
	}
	return a.dims[i], nil
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.dims) }

// Length returns the number of elements transferred: the product of the
// effective dimension sizes.
func (a *Array) Length() int {
	n := 1
	for _, d := range a.dims {
		n *= d.Size()
	}
	return n
}

// Constraint renders the array as a projection term, for example
// "sst[0:2:10][3]".
func (a *Array) Constraint() string {
	var b strings.Builder
	b.WriteString(LongName(a))
	for _, d := range a.dims {
		b.WriteString(d.Constraint())
	}
	return b.String()
}
