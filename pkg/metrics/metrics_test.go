package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

func TestTransferPublishesOnFinish(t *testing.T) {
	bytes := BytesTransferred.WithLabelValues("decode", "zstd")
	errs := TransferErrors.WithLabelValues("decode", daperrors.CodeCannotReadFile.String())
	active := ActiveTransfers.WithLabelValues("decode")
	beforeBytes, beforeErrs := testutil.ToFloat64(bytes), testutil.ToFloat64(errs)
	beforeActive := testutil.ToFloat64(active)

	tr := StartTransfer(Decode, "zstd")
	assert.Equal(t, beforeActive+1, testutil.ToFloat64(active))
	tr.AddBytes(100)
	tr.AddBytes(28)
	assert.Equal(t, int64(128), tr.Bytes())
	assert.Equal(t, beforeBytes, testutil.ToFloat64(bytes))

	tr.Finish(daperrors.New(daperrors.ErrorTypeDataRead, "short read"))
	tr.Finish(nil)

	assert.Equal(t, beforeBytes+128, testutil.ToFloat64(bytes))
	assert.Equal(t, beforeErrs+1, testutil.ToFloat64(errs))
	assert.Equal(t, beforeActive, testutil.ToFloat64(active))
}

func TestVariableCounter(t *testing.T) {
	c := VariablesTransferred.WithLabelValues("encode", "Grid")
	before := testutil.ToFloat64(c)
	tr := StartTransfer(Encode, "")
	tr.Variable("Grid")
	tr.Finish(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(c))

	b := BytesTransferred.WithLabelValues("encode", "none")
	assert.GreaterOrEqual(t, testutil.ToFloat64(b), float64(0))
}

func TestDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	c := VariablesTransferred.WithLabelValues("encode", "Sequence")
	before := testutil.ToFloat64(c)
	tr := StartTransfer(Encode, "none")
	tr.Variable("Sequence")
	tr.AddBytes(4)
	tr.Finish(nil)
	assert.Equal(t, before, testutil.ToFloat64(c))
	assert.Equal(t, int64(4), tr.Bytes())
}

func TestTimer(t *testing.T) {
	timer := NewTimer("describe")
	assert.Equal(t, "describe", timer.Name())
	assert.GreaterOrEqual(t, int64(timer.Stop()), int64(0))
}
