package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"txScope/internal/chain"
	"txScope/internal/model"
)

// run is the state of one analysis.
type run struct {
	a        *Analyzer
	ctx      context.Context
	conn     *chain.Conn
	tools    *networkTools
	artifact *model.Artifact
	tally    tally
}

func (r *run) network() model.NetworkDescriptor { return r.conn.Network }

// fetch retries a raw ledger read and maps a missing record to ErrRecordNotFound.
func (r *run) fetch(what string, fn func(context.Context) error) error {
	err := chain.WithRetry(r.ctx, r.a.retry, fn)
	if err == nil {
		return nil
	}
	if notFound(err) {
		return fmt.Errorf("%w: %s %s", ErrRecordNotFound, what, r.artifact.Input)
	}
	return fmt.Errorf("fetch %s: %w", what, err)
}

// stage runs fn inside the request budget. When the budget is gone before or
// during the stage its output is dropped and the artifact is marked partial.
func (r *run) stage(name string, fn func()) bool {
	if r.ctx.Err() == nil {
		fn()
		if r.ctx.Err() == nil {
			return true
		}
	}
	if !r.artifact.Partial {
		r.artifact.Partial = true
		r.a.logger.Warn("analysis budget exhausted",
			zap.String("input", r.artifact.Input),
			zap.String("stage", name),
		)
	}
	r.diagnose("budget exhausted, skipped %s", name)
	return false
}

func (r *run) diagnose(format string, args ...interface{}) {
	r.artifact.Diagnostics = append(r.artifact.Diagnostics, fmt.Sprintf(format, args...))
}
