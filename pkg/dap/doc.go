// Package dap implements the DAP2 data model and its binary transfer
// encoding.
//
// # Variables
//
// A declaration is a graph of Variable nodes. The variants form a closed
// set, dispatched by type switch:
//
//	*Scalar     Byte, Int16, UInt16, Int32, UInt32, Float32, Float64, String, Url
//	*Array      n-dimensional array of a template variable
//	*List       variable-length vector of a template variable
//	*Structure  record of named members
//	*Sequence   run of rows over a member template
//	*Grid       array plus one coordinate map per dimension
//	*Dataset    the root, with the global attributes
//
// Containers own their members; members keep a non-owning back reference
// to their container. Dimensions are owned by one array but may be shared
// by arrays that alias it, which makes the graph a DAG rather than a tree.
// CloneDAG copies such graphs while preserving the sharing.
//
// # Wire format
//
// Serialize and Deserialize walk the graph depth-first in declaration
// order, transferring only selected variables. Every value is aligned to
// four bytes:
//
//	Byte           00 00 00 vv
//	Int16, UInt16  carried as a 4-byte Int32
//	Int32, UInt32  4 bytes, big-endian
//	Float32        IEEE-754, 4 bytes
//	Float64        IEEE-754, 8 bytes
//	String, Url    4-byte length, Latin-1 bytes, zero pad to a multiple of 4
//
// Vectors of scalars carry their element count twice, then the elements.
// Byte vectors are packed one byte per element and padded once at the end.
// Sequence rows are framed with start and end markers unless the peer
// predates protocol version 2.15.
//
// # Constraints
//
// A constraint evaluator projects dimensions with Dimension.SetProjection
// and marks selected members with Select or SetSelected. Effective sizes
// always come from the projection when one is set.
//
// # Validation
//
// Structural checks (CheckSemantics, CheckUniqueNames, CheckAttributeNames)
// are explicit passes. Mutating operations never run them implicitly.
//
// # Concurrency
//
// Each Serialize and Deserialize call holds the lock of the variable it
// operates on, so one instance never takes part in two transfers at once.
// Other mutation of a graph is not synchronized.
package dap
