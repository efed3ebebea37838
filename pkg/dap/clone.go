package dap

// CloneMap records, for one deep copy, the clone already produced for each
// original node. Nodes reachable along several paths, such as a dimension
// shared by two arrays or an attribute table shared by two variables, are
// cloned once and the clone is shared the same way.
type CloneMap struct {
	vars  map[Variable]Variable
	dims  map[*Dimension]*Dimension
	attrs map[*AttributeTable]*AttributeTable
}

// NewCloneMap returns an empty map for one clone operation.
func NewCloneMap() *CloneMap {
	return &CloneMap{
		vars:  make(map[Variable]Variable),
		dims:  make(map[*Dimension]*Dimension),
		attrs: make(map[*AttributeTable]*AttributeTable),
	}
}

// Lookup returns the clone already produced for v.
func (m *CloneMap) Lookup(v Variable) (Variable, bool) {
	c, ok := m.vars[v]
	return c, ok
}

// Clone returns a deep copy of v. The copy is detached: its parent is nil.
func Clone(v Variable) Variable {
	return CloneDAG(NewCloneMap(), v)
}

// CloneDAG returns a deep copy of v using m to preserve sharing. A node
// already present in m yields its recorded clone. Each clone is registered
// before its children are copied, so back references from the children
// resolve to the clone.
func CloneDAG(m *CloneMap, v Variable) Variable {
	if v == nil {
		return nil
	}
	if c, ok := m.vars[v]; ok {
		return c
	}

	var c Variable
	switch x := v.(type) {
	case *Scalar:
		s := &Scalar{kind: x.kind, value: x.value}
		m.register(x, s)
		c = s
	case *Array:
		a := &Array{}
		m.register(x, a)
		m.cloneElements(&a.elements, &x.elements, a)
		for _, d := range x.dims {
			a.dims = append(a.dims, m.Dimension(d))
		}
		c = a
	case *List:
		l := &List{}
		m.register(x, l)
		m.cloneElements(&l.elements, &x.elements, l)
		c = l
	case *Structure:
		s := &Structure{}
		m.register(x, s)
		s.vars = m.cloneMembers(x.vars, s)
		c = s
	case *Dataset:
		d := &Dataset{}
		m.register(x, d)
		d.vars = m.cloneMembers(x.vars, d)
		c = d
	case *Sequence:
		s := &Sequence{}
		m.register(x, s)
		s.vars = m.cloneMembers(x.vars, s)
		for _, row := range x.rows {
			s.rows = append(s.rows, m.cloneMembers(row, s))
		}
		c = s
	case *Grid:
		g := &Grid{}
		m.register(x, g)
		if x.array != nil {
			g.array = CloneDAG(m, x.array).(*Array)
			SetParent(g.array, g)
		}
		for _, mp := range x.maps {
			cm := CloneDAG(m, mp).(*Array)
			SetParent(cm, g)
			g.maps = append(g.maps, cm)
		}
		c = g
	default:
		return nil
	}
	return c
}

// register records c as the clone of v and copies the state held in the
// shared node fields.
func (m *CloneMap) register(v, c Variable) {
	m.vars[v] = c
	src, dst := v.base(), c.base()
	dst.copyFrom(src)
	dst.attrs = m.Attributes(src.attrs)
	if src.parent != nil {
		if p, ok := m.vars[src.parent]; ok {
			dst.parent = p.(Container)
		}
	}
}

func (m *CloneMap) cloneMembers(vars []Variable, owner Container) []Variable {
	if vars == nil {
		return nil
	}
	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = CloneDAG(m, v)
		SetParent(out[i], owner)
	}
	return out
}

func (m *CloneMap) cloneElements(dst, src *elements, owner Container) {
	if src.template != nil {
		dst.template = CloneDAG(m, src.template)
		SetParent(dst.template, owner)
	}
	if src.vec != nil {
		dst.vec = src.vec.clone()
	}
	if src.items != nil {
		dst.items = m.cloneMembers(src.items, owner)
	}
}

// Dimension returns the clone of d, creating it on first use. The clone's
// back reference points at the clone of the owning array.
func (m *CloneMap) Dimension(d *Dimension) *Dimension {
	if d == nil {
		return nil
	}
	if c, ok := m.dims[d]; ok {
		return c
	}
	c := &Dimension{name: d.name, size: d.size}
	if d.projection != nil {
		p := *d.projection
		c.projection = &p
	}
	m.dims[d] = c
	if d.container != nil {
		c.container = CloneDAG(m, d.container).(*Array)
	}
	return c
}

// Attributes returns the clone of t, creating it on first use.
func (m *CloneMap) Attributes(t *AttributeTable) *AttributeTable {
	if t == nil {
		return nil
	}
	if c, ok := m.attrs[t]; ok {
		return c
	}
	c := NewAttributeTable(t.name)
	m.attrs[t] = c
	for _, name := range t.order {
		a := t.attrs[name]
		ca := &Attribute{name: a.name, typ: a.typ, target: a.target}
		if a.values != nil {
			ca.values = append([]string(nil), a.values...)
		}
		if a.table != nil {
			ca.table = m.Attributes(a.table)
			ca.table.parent = c
		}
		c.attrs[name] = ca
		c.order = append(c.order, name)
	}
	return c
}
