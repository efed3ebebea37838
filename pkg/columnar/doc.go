// Package columnar exports decoded DAP2 variables as Apache Arrow records.
//
// # Table Shapes
//
// Each exportable variable becomes one record:
//
//   - Sequence: one row per sequence row, one column per scalar member
//   - Array: one row per element, one index column per dimension followed
//     by the value column
//   - Grid: like an array, but each index column is replaced by the values
//     of the map for that dimension when the map was transferred
//   - List: a single value column
//   - Scalar and Structure: a single row with one column per scalar leaf,
//     nested members named with dots
//
// Index columns hold declared indices, so a projected array keeps the
// positions its values came from. Variable attributes with plain values
// are copied into the field metadata.
//
// # Usage Example
//
//	exp := columnar.NewExporter()
//	rec, err := exp.Record(seq)
//	if err != nil {
//		return err
//	}
//	defer rec.Release()
//
//	// or straight to an Arrow IPC file
//	err = exp.WriteFile(w, grid)
package columnar
