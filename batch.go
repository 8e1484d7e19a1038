package metricdp

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// PrivatizeBatch privatizes independent sequences concurrently.
//
// Each sequence gets its own Privatize call, so the guarantee per sequence
// is unchanged. Fan-out is bounded by the resource controller's workers and
// sequence rate. The first error cancels the remaining work and no output is
// returned.
func (p *Privatizer) PrivatizeBatch(ctx context.Context, seqs [][]int, epsilon float64, special *SpecialTokens) ([][]int, error) {
	if p.current.Load() == nil {
		return nil, ErrIndexNotBuilt
	}

	start := time.Now()
	rc := p.opts.resources
	out := make([][]int, len(seqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.Workers(runtime.GOMAXPROCS(0)))

	var waitErr error
	for i, seq := range seqs {
		if waitErr = rc.WaitSequence(gctx); waitErr != nil {
			break
		}
		g.Go(func() error {
			res, err := p.Privatize(gctx, seq, epsilon, special)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = waitErr
	}
	p.opts.logger.LogBatch(ctx, len(seqs), time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return out, nil
}
