package dods

import (
	"context"

	"github.com/ajitpratap0/dap2/pkg/dap"
	"github.com/ajitpratap0/dap2/pkg/metrics"
)

// Progress reports wire bytes to a metrics transfer and treats a done
// context as the cancellation flag.
type Progress struct {
	ctx      context.Context
	transfer *metrics.Transfer
}

var _ dap.Progress = (*Progress)(nil)

// NewProgress binds ctx and t. Either may be nil.
func NewProgress(ctx context.Context, t *metrics.Transfer) *Progress {
	return &Progress{ctx: ctx, transfer: t}
}

// Transferred records n bytes.
func (p *Progress) Transferred(n int) {
	if p.transfer != nil {
		p.transfer.AddBytes(n)
	}
}

// Cancelled reports whether the context is done.
func (p *Progress) Cancelled() bool {
	return p.ctx != nil && p.ctx.Err() != nil
}
