// Package declare turns declaration documents into DAP2 datasets.
//
// A declaration document describes a dataset the way its DDS does, plus
// optional values and attributes, in YAML, JSON or TOML:
//
//	name: survey
//	attributes:
//	  - name: NC_GLOBAL
//	    type: Container
//	    attributes:
//	      - {name: title, type: String, values: [harbour survey]}
//	variables:
//	  - {name: count, type: Int32, value: 42}
//	  - name: temps
//	    type: Array
//	    element: Float64
//	    dims: [{name: time, size: 4}]
//	    values: [1.5, 2.5, 3.5, 4.5]
//	  - name: casts
//	    type: Sequence
//	    members:
//	      - {name: depth, type: Int32}
//	      - {name: name, type: String}
//	    rows: [[0, a], [10, b]]
//
// Variables are created through a Factory, so a caller can substitute its
// own constructors for the type names a document uses. Grid arrays share
// a dimension with the map of the same name.
//
// Describe performs the reverse mapping, which lets a decoded dataset be
// written back out as a document.
package declare
