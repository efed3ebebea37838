package declare

import (
	"github.com/ajitpratap0/dap2/pkg/dap"
)

// Describe returns the document for ds, values and attributes included.
// Constraints are ignored: every variable is described with its declared
// dimensions.
func Describe(ds *dap.Dataset) *Document {
	doc := &Document{
		Name:       ds.Name(),
		Attributes: describeAttributes(ds.Attributes()),
	}
	for _, v := range ds.Members() {
		doc.Variables = append(doc.Variables, describe(v))
	}
	return doc
}

func describe(v dap.Variable) VariableSpec {
	spec := VariableSpec{
		Name: v.Name(),
		Type: v.Kind().String(),
	}
	if dap.HasAttributes(v) {
		spec.Attributes = describeAttributes(v.Attributes())
	}

	switch x := v.(type) {
	case *dap.Scalar:
		spec.Value = x.Value()
	case *dap.Array:
		describeElements(&spec, x.Template(), x.Vector())
		for _, d := range x.Dimensions() {
			spec.Dims = append(spec.Dims, DimensionSpec{Name: d.Name(), Size: d.DeclaredSize()})
		}
	case *dap.List:
		describeElements(&spec, x.Template(), x.Vector())
	case *dap.Structure:
		spec.Members = describeAll(x.Members())
	case *dap.Sequence:
		spec.Members = describeAll(x.Members())
		for _, row := range x.Rows() {
			vals := make([]any, 0, len(row))
			for _, m := range row {
				if s, ok := m.(*dap.Scalar); ok {
					vals = append(vals, s.Value())
				}
			}
			if len(vals) == len(row) {
				spec.Rows = append(spec.Rows, vals)
			}
		}
	case *dap.Grid:
		if a := x.Array(); a != nil {
			arr := describe(a)
			spec.Array = &arr
		}
		for _, m := range x.Maps() {
			spec.Maps = append(spec.Maps, describe(m))
		}
	}
	return spec
}

func describeAll(vars []dap.Variable) []VariableSpec {
	out := make([]VariableSpec, 0, len(vars))
	for _, v := range vars {
		out = append(out, describe(v))
	}
	return out
}

func describeElements(spec *VariableSpec, tmpl dap.Variable, vec *dap.PrimitiveVector) {
	if tmpl == nil {
		return
	}
	if vec == nil {
		t := describe(tmpl)
		if t.Name == spec.Name {
			t.Name = ""
		}
		spec.Template = &t
		return
	}
	spec.Element = tmpl.Kind().String()
	for i := 0; i < vec.Len(); i++ {
		x, err := vec.Value(i)
		if err != nil {
			break
		}
		spec.Values = append(spec.Values, x)
	}
}

func describeAttributes(t *dap.AttributeTable) []AttributeSpec {
	if t == nil || t.Len() == 0 {
		return nil
	}
	var out []AttributeSpec
	for _, name := range t.Names() {
		a, err := t.Entry(name)
		if err != nil {
			continue
		}
		spec := AttributeSpec{Name: name, Type: a.Type().String()}
		switch {
		case a.IsAlias():
			spec.Target = a.Target()
		case a.IsContainer():
			spec.Attributes = describeAttributes(a.Table())
		default:
			for _, v := range a.Values() {
				spec.Values = append(spec.Values, v)
			}
		}
		out = append(out, spec)
	}
	return out
}
