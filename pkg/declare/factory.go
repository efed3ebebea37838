package declare

import (
	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Factory creates an empty variable for a declaration type name. Members,
// templates and dimensions are attached by the caller.
type Factory interface {
	NewVariable(typeName, name string) (dap.Variable, error)
}

// DefaultFactory builds the standard variants of the dap package.
type DefaultFactory struct{}

// NewVariable maps typeName, ignoring case, to a new variable.
func (DefaultFactory) NewVariable(typeName, name string) (dap.Variable, error) {
	kind, err := dap.ParseKind(typeName)
	if err != nil {
		return nil, err
	}
	switch {
	case kind.IsScalar():
		return dap.NewScalar(kind, name)
	case kind == dap.KindArray:
		return dap.NewArray(name, nil)
	case kind == dap.KindList:
		return dap.NewList(name, nil)
	case kind == dap.KindStructure:
		return dap.NewStructure(name), nil
	case kind == dap.KindSequence:
		return dap.NewSequence(name), nil
	case kind == dap.KindGrid:
		return dap.NewGrid(name), nil
	case kind == dap.KindDataset:
		return dap.NewDataset(name), nil
	}
	return nil, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "cannot create a variable of type %q", typeName)
}
