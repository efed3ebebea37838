package declare

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"github.com/ajitpratap0/dap2/pkg/logger"
)

// Builder assembles datasets from documents.
type Builder struct {
	factory Factory
	logger  *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithFactory replaces DefaultFactory.
func WithFactory(f Factory) Option {
	return func(b *Builder) { b.factory = f }
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{factory: DefaultFactory{}}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = logger.Get()
	}
	return b
}

// Build creates the dataset doc declares, assigns its values and
// attributes, and checks the result with dap.CheckSemantics and
// dap.CheckAttributeNames.
func (b *Builder) Build(doc *Document) (*dap.Dataset, error) {
	v, err := b.factory.NewVariable(dap.KindDataset.String(), doc.Name)
	if err != nil {
		return nil, err
	}
	ds, ok := v.(*dap.Dataset)
	if !ok {
		return nil, daperrors.Newf(daperrors.ErrorTypeInternal, "factory returned %T for a dataset", v)
	}
	if len(doc.Attributes) > 0 {
		if err := applyAttributes(ds.Attributes(), doc.Attributes); err != nil {
			return nil, err
		}
	}
	for i := range doc.Variables {
		if err := b.add(ds, &doc.Variables[i], dap.PartArray); err != nil {
			return nil, err
		}
	}
	if err := dap.CheckSemantics(ds, true); err != nil {
		return nil, err
	}
	if err := dap.CheckAttributeNames(ds); err != nil {
		return nil, err
	}

	b.logger.Debug("dataset declared",
		zap.String("dataset", ds.Name()),
		zap.Int("variables", len(ds.Members())))
	return ds, nil
}

// Build creates a dataset with DefaultFactory.
func Build(doc *Document) (*dap.Dataset, error) {
	return NewBuilder().Build(doc)
}

func (b *Builder) add(parent dap.Container, spec *VariableSpec, part dap.Part) error {
	v, err := b.variable(spec, nil)
	if err != nil {
		return err
	}
	return parent.AddVariable(v, part)
}

// variable builds spec. shared maps dimension names to dimensions the
// variable must reuse instead of declaring its own.
func (b *Builder) variable(spec *VariableSpec, shared map[string]*dap.Dimension) (dap.Variable, error) {
	if spec.Type == "" {
		return nil, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "variable %q has no type", spec.Name)
	}
	v, err := b.factory.NewVariable(spec.Type, spec.Name)
	if err != nil {
		return nil, annotate(err, spec)
	}

	switch x := v.(type) {
	case *dap.Scalar:
		if spec.Value != nil {
			err = x.SetValue(normalize(spec.Value))
		}
	case *dap.Array:
		err = b.array(x, spec, shared)
	case *dap.List:
		err = b.list(x, spec)
	case *dap.Structure:
		err = b.members(x, spec.Members)
	case *dap.Sequence:
		if err = b.members(x, spec.Members); err == nil {
			err = rows(x, spec.Rows)
		}
	case *dap.Grid:
		err = b.grid(x, spec)
	default:
		err = daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "type %q cannot be nested", spec.Type)
	}
	if err != nil {
		return nil, annotate(err, spec)
	}
	if len(spec.Attributes) > 0 {
		if err := applyAttributes(v.Attributes(), spec.Attributes); err != nil {
			return nil, annotate(err, spec)
		}
	}
	return v, nil
}

func (b *Builder) members(c dap.Container, specs []VariableSpec) error {
	for i := range specs {
		if err := b.add(c, &specs[i], dap.PartArray); err != nil {
			return err
		}
	}
	return nil
}

// template builds the element of an Array or List, named like its owner.
func (b *Builder) template(spec *VariableSpec) (dap.Variable, error) {
	switch {
	case spec.Template != nil:
		t := *spec.Template
		if t.Name == "" {
			t.Name = spec.Name
		}
		return b.variable(&t, nil)
	case spec.Element != "":
		return b.factory.NewVariable(spec.Element, spec.Name)
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeMalformedExpression,
		"%s %q needs an element type or template", spec.Type, spec.Name)
}

func (b *Builder) array(a *dap.Array, spec *VariableSpec, shared map[string]*dap.Dimension) error {
	tmpl, err := b.template(spec)
	if err != nil {
		return err
	}
	if err := a.AddVariable(tmpl, dap.PartArray); err != nil {
		return err
	}
	for _, d := range spec.Dims {
		if sd, ok := shared[d.Name]; ok && d.Name != "" {
			if d.Size != 0 && d.Size != sd.DeclaredSize() {
				return daperrors.Newf(daperrors.ErrorTypeInvalidDimension,
					"dimension %q has size %d but its map declares %d", d.Name, d.Size, sd.DeclaredSize())
			}
			a.AddDimension(sd)
			continue
		}
		if _, err := a.AppendDim(d.Size, d.Name); err != nil {
			return err
		}
	}
	vec := a.Vector()
	if vec == nil {
		if len(spec.Values) > 0 {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "values need a scalar element type")
		}
		return nil
	}
	if len(spec.Values) > 0 && len(spec.Values) != a.Length() {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"%d values do not fill the %d elements", len(spec.Values), a.Length())
	}
	return fill(vec, a.Length(), spec.Values)
}

func (b *Builder) list(l *dap.List, spec *VariableSpec) error {
	tmpl, err := b.template(spec)
	if err != nil {
		return err
	}
	if err := l.AddVariable(tmpl, dap.PartArray); err != nil {
		return err
	}
	vec := l.Vector()
	if vec == nil {
		if len(spec.Values) > 0 {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "values need a scalar element type")
		}
		return nil
	}
	return fill(vec, len(spec.Values), spec.Values)
}

func fill(vec *dap.PrimitiveVector, n int, values []any) error {
	if err := vec.SetLength(n); err != nil {
		return err
	}
	for i, x := range values {
		if err := vec.SetValue(i, normalize(x)); err != nil {
			return err
		}
	}
	return nil
}

// grid builds the maps first so the array can share their dimensions.
func (b *Builder) grid(g *dap.Grid, spec *VariableSpec) error {
	if spec.Array == nil {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "grid %q has no array", spec.Name)
	}
	maps := make([]*dap.Array, 0, len(spec.Maps))
	shared := make(map[string]*dap.Dimension, len(spec.Maps))
	for i := range spec.Maps {
		v, err := b.variable(&spec.Maps[i], nil)
		if err != nil {
			return err
		}
		m, ok := v.(*dap.Array)
		if !ok {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "map %q of grid %q is not an array",
				v.Name(), spec.Name)
		}
		if m.Rank() == 1 {
			d := m.Dimensions()[0]
			name := d.Name()
			if name == "" {
				name = m.Name()
			}
			shared[name] = d
		}
		maps = append(maps, m)
	}

	array := *spec.Array
	if array.Name == "" {
		array.Name = spec.Name
	}
	v, err := b.variable(&array, shared)
	if err != nil {
		return err
	}
	if err := g.AddVariable(v, dap.PartArray); err != nil {
		return err
	}
	for _, m := range maps {
		if err := g.AddVariable(m, dap.PartMaps); err != nil {
			return err
		}
	}
	return nil
}

func rows(s *dap.Sequence, values [][]any) error {
	for i, vals := range values {
		row := s.NewRow()
		if len(vals) != len(row) {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"row %d has %d values for %d members", i, len(vals), len(row))
		}
		for j, x := range vals {
			sc, ok := row[j].(*dap.Scalar)
			if !ok {
				return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
					"row values need scalar members, %q is a %s", row[j].Name(), row[j].Kind())
			}
			if err := sc.SetValue(normalize(x)); err != nil {
				return err
			}
		}
		if err := s.AddRow(row); err != nil {
			return err
		}
	}
	return nil
}

func applyAttributes(t *dap.AttributeTable, specs []AttributeSpec) error {
	for _, a := range specs {
		typ := strings.ToLower(a.Type)
		switch {
		case typ == "alias":
			if err := t.AddAlias(a.Name, a.Target); err != nil {
				return err
			}
		case typ == "container" || (typ == "" && len(a.Attributes) > 0):
			child, err := t.AppendContainer(a.Name)
			if err != nil {
				return err
			}
			if err := applyAttributes(child, a.Attributes); err != nil {
				return err
			}
		default:
			at := dap.AttrString
			if a.Type != "" {
				var err error
				if at, err = dap.ParseAttrType(a.Type); err != nil {
					return err
				}
			}
			vals := make([]string, len(a.Values))
			for i, x := range a.Values {
				vals[i] = attrValue(x)
			}
			if err := t.AppendAttribute(a.Name, at, vals...); err != nil {
				return err
			}
		}
	}
	return nil
}

// attrValue renders a document value as attribute text. Integral floats,
// which JSON produces for every number, print without an exponent.
func attrValue(x any) string {
	switch v := x.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return ""
	}
	return dap.FormatValue(x)
}

// normalize converts document numbers to values dap.Coerce accepts.
// YAML and TOML may produce unsigned or 64-bit types the scalar setter
// already handles; only non-finite spellings need care.
func normalize(x any) any {
	if s, ok := x.(string); ok {
		switch strings.ToLower(s) {
		case "nan":
			return math.NaN()
		case "inf", "+inf":
			return math.Inf(1)
		case "-inf":
			return math.Inf(-1)
		}
	}
	return x
}

func annotate(err error, spec *VariableSpec) error {
	var e *daperrors.Error
	if errors.As(err, &e) {
		if _, set := e.Details["declaration"]; !set {
			e.WithDetail("declaration", spec.Name)
		}
	}
	return err
}
