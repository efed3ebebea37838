package columnar

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// ArrowType returns the Arrow type for a scalar kind.
func ArrowType(kind dap.Kind) (arrow.DataType, error) {
	switch kind {
	case dap.KindByte:
		return arrow.PrimitiveTypes.Uint8, nil
	case dap.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case dap.KindUInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case dap.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case dap.KindUInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case dap.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case dap.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case dap.KindString, dap.KindURL:
		return arrow.BinaryTypes.String, nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeBadSemantics, "%s has no Arrow column type", kind)
}

func field(name string, kind dap.Kind, v dap.Variable) (arrow.Field, error) {
	typ, err := ArrowType(kind)
	if err != nil {
		return arrow.Field{}, err
	}
	f := arrow.Field{Name: name, Type: typ}
	if v != nil {
		f.Metadata = metadata(v)
	}
	return f, nil
}

// metadata copies the valued attributes of v. Multiple values are joined
// with ", " the way a DAS lists them.
func metadata(v dap.Variable) arrow.Metadata {
	if !dap.HasAttributes(v) {
		return arrow.Metadata{}
	}
	t := v.Attributes()
	var keys, vals []string
	for _, name := range t.Names() {
		a, err := t.Attribute(name)
		if err != nil || a.IsContainer() || len(a.Values()) == 0 {
			continue
		}
		keys = append(keys, name)
		vals = append(vals, strings.Join(a.Values(), ", "))
	}
	return arrow.NewMetadata(keys, vals)
}
