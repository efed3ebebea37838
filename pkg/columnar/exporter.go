package columnar

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
	"github.com/ajitpratap0/dap2/pkg/logger"
)

// Exporter converts variables to Arrow records.
type Exporter struct {
	mem    memory.Allocator
	logger *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithAllocator sets the Arrow allocator. The Go allocator is used
// otherwise.
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Exporter) { e.mem = mem }
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter returns an exporter.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{mem: memory.NewGoAllocator()}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	return e
}

// column is a field of the record being built and the function that fills
// its builder.
type column struct {
	field arrow.Field
	fill  func(b array.Builder) error
}

// Record converts v to a record. The caller must release it.
func (e *Exporter) Record(v dap.Variable) (arrow.Record, error) {
	cols, err := columns(v)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%q has no selected columns", dap.LongName(v))
	}

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = c.field
	}
	rb := array.NewRecordBuilder(e.mem, arrow.NewSchema(fields, nil))
	defer rb.Release()
	for i, c := range cols {
		if err := c.fill(rb.Field(i)); err != nil {
			return nil, err
		}
	}
	rec := rb.NewRecord()

	e.logger.Debug("variable exported",
		zap.String("variable", dap.LongName(v)),
		zap.Int64("rows", rec.NumRows()),
		zap.Int64("columns", rec.NumCols()))
	return rec, nil
}

// WriteFile writes v to w as an Arrow IPC file.
func (e *Exporter) WriteFile(w io.Writer, v dap.Variable) error {
	rec, err := e.Record(v)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(e.mem))
	if err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to create Arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to write record batch")
	}
	if err := fw.Close(); err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to close Arrow writer")
	}
	return nil
}

// WriteStream writes v to w in the Arrow IPC streaming format.
func (e *Exporter) WriteStream(w io.Writer, v dap.Variable) error {
	rec, err := e.Record(v)
	if err != nil {
		return err
	}
	defer rec.Release()

	sw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(e.mem))
	if err := sw.Write(rec); err != nil {
		_ = sw.Close()
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to write record batch")
	}
	if err := sw.Close(); err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeDataWrite, "failed to close Arrow stream")
	}
	return nil
}

func columns(v dap.Variable) ([]column, error) {
	switch x := v.(type) {
	case *dap.Sequence:
		return sequenceColumns(x)
	case *dap.Array:
		return arrayColumns(x, nil)
	case *dap.Grid:
		a := x.Array()
		if a == nil || !a.Selected() {
			return nil, daperrors.Newf(daperrors.ErrorTypeBadSemantics, "grid %q has no transferred array", x.Name())
		}
		return arrayColumns(a, x.Maps())
	case *dap.List:
		vec := x.Vector()
		if vec == nil {
			return nil, unsupported(x)
		}
		f, err := field(x.Name(), vec.Kind(), x)
		if err != nil {
			return nil, err
		}
		return []column{{field: f, fill: func(b array.Builder) error { return appendVector(b, vec) }}}, nil
	case *dap.Scalar, *dap.Structure, *dap.Dataset:
		return leafColumns(v, "")
	}
	return nil, unsupported(v)
}

func sequenceColumns(s *dap.Sequence) ([]column, error) {
	var cols []column
	for i, m := range s.Members() {
		if !m.Selected() {
			continue
		}
		if _, ok := m.(*dap.Scalar); !ok {
			return nil, unsupported(m)
		}
		f, err := field(m.Name(), m.Kind(), m)
		if err != nil {
			return nil, err
		}
		idx := i
		cols = append(cols, column{field: f, fill: func(b array.Builder) error {
			for _, row := range s.Rows() {
				if err := appendValue(b, row[idx].(*dap.Scalar).Value()); err != nil {
					return err
				}
			}
			return nil
		}})
	}
	return cols, nil
}

// arrayColumns lays a out as one row per element: a coordinate column per
// dimension, then the values. A map replaces the index column of its
// dimension when it was transferred with a matching length.
func arrayColumns(a *dap.Array, maps []*dap.Array) ([]column, error) {
	vec := a.Vector()
	if vec == nil {
		return nil, unsupported(a)
	}
	n := a.Length()
	if vec.Len() != n {
		return nil, daperrors.Newf(daperrors.ErrorTypeBadSemantics,
			"%q holds %d values but its shape has %d", a.Name(), vec.Len(), n)
	}

	dims := a.Dimensions()
	// inner[i] is the number of elements one step along dimension i spans.
	inner := make([]int, len(dims))
	span := 1
	for i := len(dims) - 1; i >= 0; i-- {
		inner[i] = span
		span *= dims[i].Size()
	}

	cols := make([]column, 0, len(dims)+1)
	for i, d := range dims {
		i, d := i, d
		position := func(k int) int { return (k / inner[i]) % d.Size() }

		if i < len(maps) {
			m := maps[i]
			if mv := m.Vector(); m.Selected() && mv != nil && mv.Len() == d.Size() {
				f, err := field(m.Name(), mv.Kind(), m)
				if err != nil {
					return nil, err
				}
				cols = append(cols, column{field: f, fill: func(b array.Builder) error {
					for k := 0; k < n; k++ {
						x, err := mv.Value(position(k))
						if err != nil {
							return err
						}
						if err := appendValue(b, x); err != nil {
							return err
						}
					}
					return nil
				}})
				continue
			}
		}

		name := d.Name()
		if name == "" {
			name = fmt.Sprintf("dim%d", i)
		}
		cols = append(cols, column{
			field: arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int32},
			fill: func(b array.Builder) error {
				ib := b.(*array.Int32Builder)
				ib.Reserve(n)
				for k := 0; k < n; k++ {
					ib.UnsafeAppend(int32(d.Start() + position(k)*d.Stride()))
				}
				return nil
			},
		})
	}

	f, err := field(a.Name(), vec.Kind(), a)
	if err != nil {
		return nil, err
	}
	cols = append(cols, column{field: f, fill: func(b array.Builder) error { return appendVector(b, vec) }})
	return cols, nil
}

// leafColumns flattens the selected scalars under v into a single row.
func leafColumns(v dap.Variable, prefix string) ([]column, error) {
	if !v.Selected() {
		return nil, nil
	}
	switch x := v.(type) {
	case *dap.Scalar:
		f, err := field(prefix+x.Name(), x.Kind(), x)
		if err != nil {
			return nil, err
		}
		return []column{{field: f, fill: func(b array.Builder) error { return appendValue(b, x.Value()) }}}, nil
	case *dap.Structure, *dap.Dataset:
		if _, ok := x.(*dap.Structure); ok {
			prefix += x.Name() + "."
		}
		var cols []column
		for _, m := range x.(dap.Container).Members() {
			c, err := leafColumns(m, prefix)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c...)
		}
		return cols, nil
	}
	return nil, unsupported(v)
}

func unsupported(v dap.Variable) error {
	return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%s %q cannot be exported as a column",
		v.Kind(), dap.LongName(v)).
		WithDetail("variable", dap.LongName(v))
}

func appendValue(b array.Builder, v any) error {
	ok := true
	switch x := v.(type) {
	case uint8:
		ok = appendTo(b, x, (*array.Uint8Builder).Append)
	case int16:
		ok = appendTo(b, x, (*array.Int16Builder).Append)
	case uint16:
		ok = appendTo(b, x, (*array.Uint16Builder).Append)
	case int32:
		ok = appendTo(b, x, (*array.Int32Builder).Append)
	case uint32:
		ok = appendTo(b, x, (*array.Uint32Builder).Append)
	case float32:
		ok = appendTo(b, x, (*array.Float32Builder).Append)
	case float64:
		ok = appendTo(b, x, (*array.Float64Builder).Append)
	case string:
		ok = appendTo(b, x, (*array.StringBuilder).Append)
	case nil:
		b.AppendNull()
	default:
		ok = false
	}
	if !ok {
		return daperrors.Newf(daperrors.ErrorTypeInternal, "cannot append %T to a %s column", v, b.Type())
	}
	return nil
}

func appendTo[B any, T any](b array.Builder, x T, fn func(*B, T)) bool {
	tb, ok := any(b).(*B)
	if !ok {
		return false
	}
	fn(tb, x)
	return true
}

func appendVector(b array.Builder, vec *dap.PrimitiveVector) error {
	ok := true
	switch d := vec.Values().(type) {
	case []uint8:
		ok = appendAll(b, d, (*array.Uint8Builder).AppendValues)
	case []int16:
		ok = appendAll(b, d, (*array.Int16Builder).AppendValues)
	case []uint16:
		ok = appendAll(b, d, (*array.Uint16Builder).AppendValues)
	case []int32:
		ok = appendAll(b, d, (*array.Int32Builder).AppendValues)
	case []uint32:
		ok = appendAll(b, d, (*array.Uint32Builder).AppendValues)
	case []float32:
		ok = appendAll(b, d, (*array.Float32Builder).AppendValues)
	case []float64:
		ok = appendAll(b, d, (*array.Float64Builder).AppendValues)
	case []string:
		ok = appendAll(b, d, (*array.StringBuilder).AppendValues)
	case nil:
	default:
		ok = false
	}
	if !ok {
		return daperrors.Newf(daperrors.ErrorTypeInternal, "cannot append %T to a %s column", vec.Values(), b.Type())
	}
	return nil
}

func appendAll[B any, T any](b array.Builder, xs []T, fn func(*B, []T, []bool)) bool {
	tb, ok := any(b).(*B)
	if !ok {
		return false
	}
	fn(tb, xs, nil)
	return true
}
