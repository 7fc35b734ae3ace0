package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent copies of a scene that differ only in their
// shuffle seed. Each copy gets its own world and metrics.
type Ensemble struct {
	opts      Options
	numRuns   int
	seedStart int64
	setup     func(*Simulator)
	workers   int
}

// NewEnsemble prepares numRuns simulators. setup seeds each one with the
// scene and its metrics before it runs.
func NewEnsemble(opts Options, numRuns int, seedStart int64, setup func(*Simulator)) *Ensemble {
	return &Ensemble{opts: opts, numRuns: numRuns, seedStart: seedStart, setup: setup, workers: runtime.NumCPU()}
}

// SetWorkers bounds how many copies run at once; n <= 0 means no bound.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

// Run stops at the first copy that fails and cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			opts := e.opts
			opts.Seed = e.seedStart + int64(i)
			s, err := New(opts)
			if err != nil {
				return err
			}
			if e.setup != nil {
				e.setup(s)
			}
			results[i], err = s.Run(ctx, cfg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
