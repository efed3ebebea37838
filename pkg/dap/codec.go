package dap

import (
	"errors"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Serialize writes the value of v, and of every selected variable below it,
// to w in declaration order. The variable is locked for the duration of
// the call so one instance cannot take part in two transfers at once.
func Serialize(w *Writer, v Variable) error {
	n := v.base()
	n.mu.Lock()
	defer n.mu.Unlock()

	var err error
	switch x := v.(type) {
	case *Scalar:
		err = x.encode(w)
	case *Array:
		err = x.elements.encode(w, x.name, x.Length())
	case *List:
		err = x.elements.encode(w, x.name, x.Len())
	case *Structure:
		err = encodeMembers(w, x.vars)
	case *Dataset:
		err = encodeMembers(w, x.vars)
	case *Grid:
		err = encodeMembers(w, x.Members())
	case *Sequence:
		err = x.encode(w)
	default:
		err = daperrors.Newf(daperrors.ErrorTypeInternal, "cannot serialize %T", v)
	}
	return annotate(err, v)
}

// Deserialize reads the value of v, and of every selected variable below
// it, from r. On error the partially populated value must be discarded.
func Deserialize(r *Reader, v Variable) error {
	n := v.base()
	n.mu.Lock()
	defer n.mu.Unlock()

	var err error
	switch x := v.(type) {
	case *Scalar:
		err = x.decode(r)
	case *Array:
		err = x.elements.decode(r, x, x.name, x.Length())
	case *List:
		err = x.elements.decode(r, x, x.name, -1)
	case *Structure:
		err = decodeMembers(r, x.vars)
	case *Dataset:
		err = decodeMembers(r, x.vars)
	case *Grid:
		err = decodeMembers(r, x.Members())
	case *Sequence:
		err = x.decode(r)
	default:
		err = daperrors.Newf(daperrors.ErrorTypeInternal, "cannot deserialize %T", v)
	}
	return annotate(err, v)
}

// encodeMembers writes each selected member, polling for cancellation
// between members.
func encodeMembers(w *Writer, members []Variable) error {
	for _, m := range members {
		if !m.Selected() {
			continue
		}
		if err := w.cancelled(); err != nil {
			return err
		}
		if err := Serialize(w, m); err != nil {
			return err
		}
	}
	return nil
}

func decodeMembers(r *Reader, members []Variable) error {
	for _, m := range members {
		if !m.Selected() {
			continue
		}
		if err := r.cancelled(); err != nil {
			return err
		}
		if err := Deserialize(r, m); err != nil {
			return err
		}
	}
	return nil
}

// annotate records the innermost variable a codec error occurred in,
// without changing the error kind.
func annotate(err error, v Variable) error {
	if err == nil {
		return nil
	}
	var e *daperrors.Error
	if errors.As(err, &e) {
		if _, ok := e.Details["variable"]; !ok {
			e.WithDetail("variable", LongName(v))
		}
	}
	return err
}
