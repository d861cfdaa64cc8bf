package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// RunFactory builds an independent simulator and initial state for a seed.
// Nothing may be shared between the simulators it returns.
type RunFactory func(seed int64) (*Simulator, *dynamo.System, error)

// Ensemble runs the same configuration for consecutive seeds concurrently.
type Ensemble struct {
	factory   RunFactory
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(factory RunFactory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart, workers: runtime.NumCPU()}
}

// Run returns results in seed order. The first failing run cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			sim, x0, err := e.factory(e.seedStart + int64(idx))
			if err != nil {
				return err
			}
			res, err := sim.Run(ctx, x0, cfg)
			results[idx] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
