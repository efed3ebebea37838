package dap

import (
	"fmt"
	"io"
	"strings"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

const indent = "    "

// printer accumulates the first write error so declaration rendering can
// stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// PrintDecl writes the DDS declaration of v prefixed by pad. When
// constrained is set, unselected members are omitted, dimensions show
// their projected size and a grid whose projection no longer forms a grid
// is rendered as a structure.
func PrintDecl(w io.Writer, v Variable, pad string, constrained bool) error {
	p := &printer{w: w}
	p.decl(v, v.EncodedName(), pad, constrained, "")
	if p.err != nil {
		return daperrors.Wrap(p.err, daperrors.ErrorTypeDataWrite, "failed to print declaration")
	}
	return nil
}

// decl renders one declaration under name. Array and list templates are
// rendered under the name of their array, and dims carries the dimension
// suffix of that array.
func (p *printer) decl(v Variable, name, pad string, constrained bool, dims string) {
	switch x := v.(type) {
	case *Scalar:
		p.printf("%s%s %s%s;\n", pad, x.kind, name, dims)
	case *Array:
		var b strings.Builder
		for _, d := range x.dims {
			b.WriteString(d.declaration(constrained))
		}
		if x.template == nil {
			p.printf("%s%s %s%s;\n", pad, KindUnknown, name, b.String())
			return
		}
		p.decl(x.template, name, pad, constrained, b.String())
	case *List:
		if x.template == nil {
			p.printf("%sList %s %s%s;\n", pad, KindUnknown, name, dims)
			return
		}
		var b strings.Builder
		sub := &printer{w: &b}
		sub.decl(x.template, name, pad, constrained, dims)
		if sub.err != nil {
			p.err = sub.err
			return
		}
		p.printf("%sList %s", pad, strings.TrimPrefix(b.String(), pad))
	case *Structure:
		p.block("Structure", x.vars, name, pad, constrained, dims)
	case *Sequence:
		p.block("Sequence", x.vars, name, pad, constrained, dims)
	case *Dataset:
		p.block("Dataset", x.vars, name, pad, constrained, dims)
	case *Grid:
		if constrained && !x.ProjectionYieldsGrid() {
			p.block("Structure", x.Members(), name, pad, constrained, dims)
			return
		}
		p.printf("%sGrid {\n", pad)
		p.printf("%s  ARRAY:\n", pad)
		if x.array != nil {
			p.decl(x.array, x.array.EncodedName(), pad+indent, constrained, "")
		}
		p.printf("%s  MAPS:\n", pad)
		for _, m := range x.maps {
			if constrained && !m.Selected() {
				continue
			}
			p.decl(m, m.EncodedName(), pad+indent, constrained, "")
		}
		p.printf("%s} %s%s;\n", pad, name, dims)
	}
}

func (p *printer) block(keyword string, members []Variable, name, pad string, constrained bool, dims string) {
	p.printf("%s%s {\n", pad, keyword)
	for _, m := range members {
		if constrained && !m.Selected() {
			continue
		}
		p.decl(m, m.EncodedName(), pad+indent, constrained, "")
	}
	p.printf("%s} %s%s;\n", pad, name, dims)
}

// Print writes the dataset declaration (DDS).
func (d *Dataset) Print(w io.Writer, constrained bool) error {
	return PrintDecl(w, d, "", constrained)
}

// PrintDAS writes the attribute response (DAS): the global attributes and
// one table for every variable that carries attributes, nested the way the
// variables are nested.
func (d *Dataset) PrintDAS(w io.Writer) error {
	p := &printer{w: w}
	p.printf("Attributes {\n")
	if d.attrs != nil && d.attrs.Len() > 0 {
		if p.err == nil {
			p.err = d.attrs.Print(w, indent)
		}
	}
	for _, v := range d.vars {
		p.das(v, indent)
	}
	p.printf("}\n")
	if p.err != nil {
		return daperrors.Wrap(p.err, daperrors.ErrorTypeDataWrite, "failed to print attributes")
	}
	return nil
}

func (p *printer) das(v Variable, pad string) {
	if !HasAttributes(v) {
		return
	}
	p.printf("%s%s {\n", pad, v.EncodedName())
	if n := v.base(); n.hasOwnAttributes() && p.err == nil {
		p.err = n.attrs.Print(p.w, pad+indent)
	}
	if c, ok := v.(Container); ok {
		if _, isArray := v.(*Array); !isArray {
			for _, m := range c.Members() {
				p.das(m, pad+indent)
			}
		}
	}
	p.printf("%s}\n", pad)
}

// Constraint renders the projection expression selecting the currently
// selected variables of the dataset, for example "sst[0:2:10][3],station.temp".
func (d *Dataset) Constraint() string {
	var terms []string
	for _, v := range d.vars {
		terms = appendConstraint(terms, v)
	}
	return strings.Join(terms, ",")
}

func appendConstraint(terms []string, v Variable) []string {
	if !v.Selected() {
		return terms
	}
	switch x := v.(type) {
	case *Array:
		return append(terms, x.Constraint())
	case *Grid:
		if x.array == nil {
			return terms
		}
		all := true
		for _, m := range x.Members() {
			if !m.Selected() {
				all = false
			}
		}
		if all {
			// Constraining the array constrains the maps with it.
			var b strings.Builder
			b.WriteString(LongName(x))
			for _, d := range x.array.dims {
				b.WriteString(d.Constraint())
			}
			return append(terms, b.String())
		}
		for _, m := range x.Members() {
			terms = appendConstraint(terms, m)
		}
		return terms
	case *Structure, *Sequence:
		c := x.(Container)
		members := c.Members()
		selected := 0
		for _, m := range members {
			if m.Selected() {
				selected++
			}
		}
		if selected == len(members) && !hasProjectedDims(c) {
			return append(terms, LongName(v))
		}
		for _, m := range members {
			terms = appendConstraint(terms, m)
		}
		return terms
	default:
		return append(terms, LongName(v))
	}
}

func hasProjectedDims(v Variable) bool {
	found := false
	Walk(v, func(x Variable) bool {
		if a, ok := x.(*Array); ok {
			for _, d := range a.dims {
				if d.HasProjection() {
					found = true
				}
			}
		}
		return !found
	})
	return found
}
