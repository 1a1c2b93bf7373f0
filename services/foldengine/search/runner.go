// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// RunBest executes runs independent searches of the same algorithm
// concurrently and returns the best-scoring result.
//
// Description:
//
//	Stochastic searches benefit from independent restarts. Each run
//	gets its own RNG seeded from the caller's source, so a fixed seed
//	in opts still yields a reproducible set of runs. A run that fails
//	with ErrUnfoldable does not cancel its siblings; RunBest fails
//	only when every run does, returning the first error.
//
// Inputs:
//   - ctx: Cancels all outstanding runs.
//   - protein: Sequence to fold.
//   - dim: Lattice dimensionality.
//   - algorithm: Search to run, same for every restart.
//   - budget: Per-run effort knob, 0 for defaults.
//   - runs: Number of independent runs; values below 1 mean one run.
//   - opts: Shared tunables; nil selects all defaults.
//
// Outputs:
//   - *Result: Best result across runs, ties broken by run order.
//   - error: First per-run error when no run succeeds, or the context
//     error on cancellation.
//
// Thread Safety: Safe for concurrent calls with distinct Options.
func RunBest(ctx context.Context, protein fold.Protein, dim lattice.Dimension, algorithm Algorithm, budget, runs int, opts *Options) (*Result, error) {
	if runs < 1 {
		runs = 1
	}
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, newSearchError(algorithm, protein.String(), err)
	}
	if runs == 1 {
		return Run(ctx, protein, dim, algorithm, budget, opts)
	}

	// Seeds are drawn up front so the parent RNG is never touched
	// from more than one goroutine.
	rng := opts.rng()
	seeds := make([][2]uint64, runs)
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	results := make([]*Result, runs)
	errs := make([]error, runs)

	g, gctx := errgroup.WithContext(ctx)
	for i := range runs {
		g.Go(func() error {
			runOpts := *opts
			runOpts.RNG = rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			results[i], errs[i] = Run(gctx, protein, dim, algorithm, budget, &runOpts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var best *Result
	for _, res := range results {
		if res == nil {
			continue
		}
		if best == nil || res.Score < best.Score {
			best = res
		}
	}
	if best == nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return nil, newSearchError(algorithm, protein.String(), ErrUnfoldable)
	}
	return best, nil
}
