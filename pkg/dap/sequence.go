package dap

import (
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Row framing markers. Each is sent as a 4-byte word with the marker in
// the most significant byte.
const (
	startOfInstance uint32 = 0x5A << 24
	endOfSequence   uint32 = 0xA5 << 24
)

// Sequence is an ordered run of rows, each row holding one value for every
// member. The members declared on the sequence act as the row template.
type Sequence struct {
	node
	memberList
	rows [][]Variable
}

// NewSequence returns an empty sequence.
func NewSequence(name string) *Sequence {
	return &Sequence{node: node{name: name, selected: true}}
}

// Kind returns KindSequence.
func (s *Sequence) Kind() Kind { return KindSequence }

// AddVariable appends v to the row template. The part is ignored.
func (s *Sequence) AddVariable(v Variable, _ Part) error { return s.add(s, v) }

// Var returns the template member with the exact name.
func (s *Sequence) Var(name string) (Variable, error) { return s.find(s, name) }

// VarAt returns the template member at index i.
func (s *Sequence) VarAt(i int) (Variable, error) { return s.at(s, i) }

// Members returns the row template in declaration order.
func (s *Sequence) Members() []Variable { return s.vars }

// NewRow returns a fresh row cloned from the template. The members of a
// row are cloned together, so dimensions shared across the template stay
// shared within the row. The row is not added to the sequence.
func (s *Sequence) NewRow() []Variable {
	m := NewCloneMap()
	row := make([]Variable, len(s.vars))
	for i, v := range s.vars {
		row[i] = CloneDAG(m, v)
		SetParent(row[i], s)
	}
	return row
}

// AddRow appends a row. It must match the template member for member.
func (s *Sequence) AddRow(row []Variable) error {
	if len(row) != len(s.vars) {
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"row of %d values does not match the %d members of %q", len(row), len(s.vars), s.name)
	}
	for i, v := range row {
		if v.Kind() != s.vars[i].Kind() || v.Name() != s.vars[i].Name() {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics,
				"row value %q (%s) does not match member %q (%s)",
				v.Name(), v.Kind(), s.vars[i].Name(), s.vars[i].Kind())
		}
		SetParent(v, s)
	}
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns every row.
func (s *Sequence) Rows() [][]Variable { return s.rows }

// RowCount returns the number of rows.
func (s *Sequence) RowCount() int { return len(s.rows) }

// Row returns row i.
func (s *Sequence) Row(i int) ([]Variable, error) {
	if i < 0 || i >= len(s.rows) {
		return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable,
			"%q has no row %d", s.name, i).WithDetail("rows", len(s.rows))
	}
	return s.rows[i], nil
}

// RowVar returns the value of the named member in row i.
func (s *Sequence) RowVar(i int, name string) (Variable, error) {
	row, err := s.Row(i)
	if err != nil {
		return nil, err
	}
	for _, v := range row {
		if v.Name() == name {
			return v, nil
		}
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeNoSuchVariable, "%q has no member %q", s.name, name)
}

// ClearRows drops every row.
func (s *Sequence) ClearRows() { s.rows = nil }

func (s *Sequence) encode(w *Writer) error {
	markers := w.opts.version.SequenceMarkers()
	for _, row := range s.rows {
		if err := w.cancelled(); err != nil {
			return err
		}
		if markers {
			if err := w.WriteUint32(startOfInstance); err != nil {
				return err
			}
		}
		if err := encodeMembers(w, row); err != nil {
			return err
		}
	}
	if markers {
		return w.WriteUint32(endOfSequence)
	}
	return nil
}

func (s *Sequence) decode(r *Reader) error {
	s.rows = nil
	if r.opts.version.SequenceMarkers() {
		return s.decodeMarked(r)
	}
	return s.decodeUntilEOF(r)
}

func (s *Sequence) decodeMarked(r *Reader) error {
	for {
		if err := r.cancelled(); err != nil {
			return err
		}
		marker, err := r.ReadUint32()
		if err != nil {
			return err
		}
		switch marker {
		case startOfInstance:
			row := s.NewRow()
			if err := decodeMembers(r, row); err != nil {
				return err
			}
			s.rows = append(s.rows, row)
		case endOfSequence:
			return nil
		default:
			return daperrors.Newf(daperrors.ErrorTypeDataRead,
				"unexpected sequence marker %#08x in %q", marker, s.name).
				WithDetail("offset", r.Offset())
		}
	}
}

// decodeUntilEOF reads rows from servers that predate row markers. The
// sequence ends when the stream ends cleanly at a row boundary.
func (s *Sequence) decodeUntilEOF(r *Reader) error {
	if !anySelected(s.vars) {
		return nil
	}
	for {
		if err := r.cancelled(); err != nil {
			return err
		}
		rowStart := r.Offset()
		row := s.NewRow()
		if err := decodeMembers(r, row); err != nil {
			if daperrors.IsType(err, daperrors.ErrorTypeUnexpectedEOF) && r.Offset() == rowStart {
				return nil
			}
			return err
		}
		s.rows = append(s.rows, row)
	}
}

func anySelected(vars []Variable) bool {
	for _, v := range vars {
		if v.Selected() {
			return true
		}
	}
	return false
}
