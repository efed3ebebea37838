package dap

import (
	"strconv"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Slice is a start/stride/stop index range. Stop is inclusive.
type Slice struct {
	Start  int
	Stride int
	Stop   int
}

// Size returns the number of indices the slice selects.
func (s Slice) Size() int {
	return 1 + (s.Stop-s.Start)/s.Stride
}

// String renders the slice as a constraint expression term: [n] for a
// single index, [start:stop] for unit stride, [start:stride:stop] otherwise.
func (s Slice) String() string {
	if s.Start == s.Stop {
		return "[" + strconv.Itoa(s.Start) + "]"
	}
	if s.Stride == 1 {
		return "[" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.Stop) + "]"
	}
	return "[" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.Stride) + ":" + strconv.Itoa(s.Stop) + "]"
}

// Dimension is one axis of an array: a declared extent fixed at
// construction and an optional projection set by a constraint. A dimension
// is owned by one array but may be referenced by others that alias it.
type Dimension struct {
	name       string
	size       int
	projection *Slice
	container  *Array
}

// NewDimension returns a detached dimension of the given declared size.
// Array.AppendDim is the usual constructor.
func NewDimension(name string, size int) (*Dimension, error) {
	if size < 0 {
		return nil, daperrors.Newf(daperrors.ErrorTypeInvalidDimension, "negative dimension size %d", size).
			WithDetail("dimension", name)
	}
	return &Dimension{name: name, size: size}, nil
}

// Name returns the dimension name, empty for anonymous dimensions.
func (d *Dimension) Name() string { return d.name }

// SetName replaces the dimension name.
func (d *Dimension) SetName(name string) { d.name = name }

// Container returns the owning array.
func (d *Dimension) Container() *Array { return d.container }

// Declared returns the unconstrained slice [0, size-1].
func (d *Dimension) Declared() Slice {
	return Slice{Start: 0, Stride: 1, Stop: d.size - 1}
}

// DeclaredSize returns the unconstrained extent.
func (d *Dimension) DeclaredSize() int { return d.size }

// Projection returns the constraint slice, if one is set.
func (d *Dimension) Projection() (Slice, bool) {
	if d.projection == nil {
		return Slice{}, false
	}
	return *d.projection, true
}

// HasProjection reports whether a constraint slice is set.
func (d *Dimension) HasProjection() bool { return d.projection != nil }

// Slice returns the effective slice: the projection when set, otherwise
// the declared slice.
func (d *Dimension) Slice() Slice {
	if d.projection != nil {
		return *d.projection
	}
	return d.Declared()
}

// Size returns the effective number of elements along this axis.
func (d *Dimension) Size() int {
	if d.projection != nil {
		return d.projection.Size()
	}
	return d.size
}

// Start returns the effective start index.
func (d *Dimension) Start() int { return d.Slice().Start }

// Stride returns the effective stride.
func (d *Dimension) Stride() int { return d.Slice().Stride }

// Stop returns the effective inclusive stop index.
func (d *Dimension) Stop() int { return d.Slice().Stop }

// SetProjection constrains the dimension to start:stride:stop. Setting the
// same bounds again is a no-op; setting different bounds on a dimension that
// is already projected is a conflict, since every reference to one physical
// dimension must agree.
func (d *Dimension) SetProjection(start, stride, stop int) error {
	next := Slice{Start: start, Stride: stride, Stop: stop}
	if d.projection != nil {
		if *d.projection == next {
			return nil
		}
		err := daperrors.Newf(daperrors.ErrorTypeConflict,
			"dimension %q is already projected as %s and cannot also be projected as %s",
			d.name, d.projection, next).
			WithDetail("dimension", d.name)
		if d.container != nil {
			err = err.WithDetail("variable", d.container.Name())
		}
		return err
	}

	declared := d.Declared()
	var msg string
	switch {
	case start < 0:
		msg = "start must be non-negative"
	case stride < 1:
		msg = "stride must be at least one"
	case stop < 0:
		msg = "stop must be non-negative"
	case start < declared.Start:
		msg = "start must not precede the declared start"
	case stop >= d.size:
		msg = "stop must be less than the dimension size"
	case start > stop:
		msg = "start must not exceed stop"
	}
	if msg != "" {
		err := daperrors.New(daperrors.ErrorTypeInvalidDimension, msg).
			WithDetail("dimension", d.name).
			WithDetail("start", start).
			WithDetail("stride", stride).
			WithDetail("stop", stop).
			WithDetail("size", d.size)
		if d.container != nil {
			err = err.WithDetail("variable", d.container.Name())
		}
		return err
	}

	d.projection = &next
	return nil
}

// ClearProjection removes the constraint slice.
func (d *Dimension) ClearProjection() { d.projection = nil }

// Constraint renders the effective slice as a constraint expression term.
func (d *Dimension) Constraint() string { return d.Slice().String() }

// declaration renders the dimension as it appears in a DDS: [name = size]
// or [size]. constrained selects the effective size.
func (d *Dimension) declaration(constrained bool) string {
	size := d.size
	if constrained {
		size = d.Size()
	}
	if d.name == "" {
		return "[" + strconv.Itoa(size) + "]"
	}
	return "[" + EncodeName(d.name) + " = " + strconv.Itoa(size) + "]"
}
