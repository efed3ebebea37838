// Package dods reads and writes complete DAP2 data responses.
//
// A DODS response is the constrained DDS text of a dataset, the separator
// line "Data:", then the XDR body holding the value of every selected
// top-level variable. The body may be compressed with any algorithm from
// the compression package; the DDS text never is.
//
// # Encoding
//
//	enc := dods.NewEncoder(w, dods.WithCompression(&compression.Config{
//		Algorithm: compression.Gzip,
//	}))
//	stats, err := enc.Encode(ctx, ds)
//
// # Decoding
//
// Parsing DDS text is outside this package. The caller supplies a dataset
// with the declarations the response was built from, and Decode fills in
// its values:
//
//	dec := dods.NewDecoder(r, dods.WithCodecOptions(dap.WithServerVersion(v)))
//	stats, err := dec.Decode(ctx, ds)
//
// Both directions poll ctx between variables, sequence rows and vector
// chunks. A cancelled context ends the transfer with a data read error.
// Every transfer is counted in the metrics package and traced with a span
// from the observability package.
package dods
