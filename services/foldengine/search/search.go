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
	"time"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// Run executes one folding search and returns its best result.
//
// Description:
//
//	The single driver entry point: validates inputs, resolves
//	per-algorithm tunables, dispatches, and wraps the outcome. A
//	positive budget overrides the algorithm's primary knob (backtracks
//	for the baseline, restarts for the windowed BFS, iterations for
//	the hillclimber and the annealer, rounds for FRESS); zero keeps the
//	documented defaults. The spiral ignores it.
//
//	Failures surface as a *SearchError wrapping the cause;
//	errors.Is(err, ErrUnfoldable) identifies the one failure a healthy
//	driver handles ("no solution found").
//
// Inputs:
//   - ctx: Cancellation, honored at algorithm loop boundaries.
//   - protein: Sequence to fold. Must be non-empty.
//   - dim: lattice.Dim2 or lattice.Dim3.
//   - algorithm: Which search to run.
//   - budget: Primary effort knob, 0 for defaults.
//   - opts: Tunables and random source; nil selects all defaults.
//
// Outputs:
//   - *Result: Fold, score, iteration count, and wall time.
//   - error: *SearchError wrapping ErrEmptySequence,
//     ErrInvalidDimension, ErrUnknownAlgorithm, ErrUnfoldable, or a
//     context error.
//
// Thread Safety: Safe for concurrent calls with distinct Options; a
// single Options value must not be shared because its RNG is not.
func Run(ctx context.Context, protein fold.Protein, dim lattice.Dimension, algorithm Algorithm, budget int, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := validateRun(protein, dim, algorithm); err != nil {
		return nil, newSearchError(algorithm, protein.String(), err)
	}
	if err := opts.Validate(); err != nil {
		return nil, newSearchError(algorithm, protein.String(), err)
	}
	applyBudget(algorithm, budget, opts)
	rng := opts.rng()

	ctx, span := StartRunSpan(ctx, algorithm, protein.String(), int(dim))
	defer span.End()

	start := time.Now()
	var (
		f          *fold.Fold
		iterations int
		err        error
	)
	switch algorithm {
	case AlgorithmBaseline:
		f, iterations, err = RandomFold(ctx, protein, dim, opts.Random, rng)
	case AlgorithmBFS:
		f, iterations, err = BFSFold(ctx, protein, dim, opts.BFS, rng)
	case AlgorithmHillclimber:
		f, iterations, err = HillclimberFold(ctx, protein, dim, opts.Hillclimber, opts.SeedFold, rng)
	case AlgorithmAnnealing:
		f, iterations, err = AnnealingFold(ctx, protein, dim, opts.Annealing, opts.SeedFold, rng)
	case AlgorithmFress:
		f, iterations, err = FressFold(ctx, protein, dim, opts.Fress, opts.Random, opts.SeedFold, rng)
	case AlgorithmSpiral:
		f, err = SpiralFold(protein, dim)
	}
	elapsed := time.Since(start)

	if err != nil {
		RecordRun(ctx, algorithm, 0, elapsed, false)
		SetRunSpanResult(span, false, 0, iterations)
		return nil, newSearchError(algorithm, protein.String(), err)
	}

	score, err := f.Score()
	if err != nil {
		// An algorithm handed back an incomplete or corrupt fold;
		// that is a defect, not a search failure.
		RecordRun(ctx, algorithm, 0, elapsed, false)
		SetRunSpanResult(span, false, 0, iterations)
		return nil, newSearchError(algorithm, protein.String(), err)
	}

	RecordRun(ctx, algorithm, score, elapsed, true)
	SetRunSpanResult(span, true, score, iterations)
	return &Result{
		Algorithm:  algorithm,
		Fold:       f,
		Score:      score,
		Iterations: iterations,
		Elapsed:    elapsed,
	}, nil
}

// validateRun rejects inputs no algorithm can work with.
func validateRun(protein fold.Protein, dim lattice.Dimension, algorithm Algorithm) error {
	if protein.Len() == 0 {
		return ErrEmptySequence
	}
	if !dim.Valid() {
		return ErrInvalidDimension
	}
	if !algorithm.Valid() {
		return ErrUnknownAlgorithm
	}
	return nil
}

// applyBudget maps the driver's single effort knob onto the chosen
// algorithm's primary tunable.
func applyBudget(algorithm Algorithm, budget int, opts *Options) {
	if budget <= 0 {
		return
	}
	switch algorithm {
	case AlgorithmBaseline:
		opts.Random.MaxBacktracks = budget
	case AlgorithmBFS:
		opts.BFS.Restarts = budget
	case AlgorithmHillclimber:
		opts.Hillclimber.Iterations = budget
	case AlgorithmAnnealing:
		opts.Annealing.Iterations = budget
	case AlgorithmFress:
		opts.Fress.MaxRounds = budget
	}
}
