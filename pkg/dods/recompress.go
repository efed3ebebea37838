package dods

import (
	"bufio"
	"bytes"
	"io"

	"github.com/ajitpratap0/dap2/pkg/compression"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Recompress rewrites a complete in-memory response so its body uses the
// to compression instead of from. The DDS text is kept unchanged and the
// separator is written as "Data:\n".
func Recompress(resp []byte, from compression.Algorithm, to *compression.Config) ([]byte, error) {
	if to == nil {
		to = compression.DefaultConfig()
	}
	br := bufio.NewReader(bytes.NewReader(resp))
	dds, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	packed, err := io.ReadAll(br)
	if err != nil {
		return nil, daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to read response body")
	}

	body, err := compression.Decompress(packed, from)
	if err != nil {
		return nil, err
	}
	if packed, err = compression.Compress(body, to); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(dds)+len(Separator)+len(packed))
	out = append(out, dds...)
	out = append(out, Separator...)
	return append(out, packed...), nil
}
