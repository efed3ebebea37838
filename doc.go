// Package dap2 is a Go implementation of the DAP2 (OPeNDAP) data model and
// its data response format.
//
// A DAP2 dataset is a tree of typed variables: scalars, arrays and lists of
// a single element type, structures, sequences of rows and grids whose
// array is indexed by map vectors. Every variable carries an attribute
// table, and a constraint marks which parts of the tree a response
// contains. The data response is the DDS text of the constrained dataset,
// a "Data:" separator and the XDR encoding of the selected values.
//
// # Quick Start
//
// Declare a dataset, write its data response and read it back:
//
//	import (
//	    "github.com/ajitpratap0/dap2/pkg/declare"
//	    "github.com/ajitpratap0/dap2/pkg/dods"
//	)
//
//	doc, _ := declare.Load("survey.yaml")
//	ds, _ := declare.Build(doc)
//
//	var buf bytes.Buffer
//	stats, err := dods.NewEncoder(&buf).Encode(ctx, ds)
//
//	dst, _ := declare.Build(doc)
//	_, err = dods.NewDecoder(&buf).Decode(ctx, dst)
//
// # Key Packages
//
//	pkg/dap           - Variable model, wire codec, attributes, DDS/DAS printing
//	pkg/dods          - Data responses: header, separator, compressed bodies
//	pkg/declare       - Dataset declarations in YAML, JSON and TOML
//	pkg/columnar      - Arrow export of arrays, grids and sequences
//	pkg/compression   - Body compression (gzip, zstd, snappy, s2, lz4)
//	pkg/config        - Unified configuration management
//	pkg/daperrors     - Structured errors carrying DAP2 error codes
//	pkg/logger        - Structured logging
//	pkg/metrics       - Transfer metrics
//	pkg/observability - Transfer tracing
//
// # Command Line
//
//	go install github.com/ajitpratap0/dap2/cmd/dapdump@latest
//	dapdump describe survey.yaml --das
//	dapdump encode survey.yaml -o survey.dods --compression gzip
//	dapdump decode survey.yaml survey.dods --compression gzip --format yaml
package dap2
