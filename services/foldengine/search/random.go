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

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// RandomFold grows a complete self-avoiding fold by uniform random
// walk with backtracking.
//
// Description:
//
//	Each position keeps the set of steps not yet tried there. The walk
//	extends with a uniform pick from that set; a position with nothing
//	left to try is a dead end, so the walk truncates one monomer and
//	resumes at the previous position with its remaining untried steps.
//	Exhausting the untried set of the origin placement proves the
//	sequence cannot be completed from this search tree; exhausting the
//	backtrack budget gives up early. Both fail with ErrUnfoldable.
//
// Inputs:
//   - ctx: Checked at each extension; cancellation aborts with ctx.Err().
//   - protein: Sequence to place. Must be non-empty.
//   - dim: Lattice dimensionality.
//   - cfg: Backtrack budget (zero value selects defaults).
//   - rng: Random source. Must not be nil.
//
// Outputs:
//   - *fold.Fold: A complete valid fold.
//   - int: Extension attempts performed.
//   - error: ErrUnfoldable, ctx.Err(), or nil.
//
// Thread Safety: Safe for concurrent calls; all state is local.
func RandomFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg RandomConfig, rng *rand.Rand) (*fold.Fold, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	f := fold.New(protein, dim)
	iterations := 0
	backtracks := 0

	// untried[i] holds the steps not yet taken from position i.
	untried := make([][]lattice.Coord, 1, protein.Len())
	untried[0] = f.LegalSteps()

	for !f.IsComplete() {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}

		top := len(untried) - 1
		if len(untried[top]) == 0 {
			if top == 0 {
				// Every branch under the origin dead-ended.
				RecordBacktracks(ctx, backtracks)
				return nil, iterations, ErrUnfoldable
			}
			backtracks++
			if backtracks > cfg.MaxBacktracks {
				RecordBacktracks(ctx, backtracks)
				return nil, iterations, ErrUnfoldable
			}
			f.Truncate(f.Len() - 1)
			untried = untried[:top]
			continue
		}

		// Uniform pick among the remaining steps, removed as tried.
		i := rng.IntN(len(untried[top]))
		step := untried[top][i]
		untried[top][i] = untried[top][len(untried[top])-1]
		untried[top] = untried[top][:len(untried[top])-1]

		iterations++
		if err := f.Extend(step); err != nil {
			continue // invalid move absorbed, next candidate
		}
		untried = append(untried, f.LegalSteps())
	}

	RecordBacktracks(ctx, backtracks)
	return f, iterations, nil
}

// bestRandomFold samples up to attempts baseline folds and keeps the
// best-scoring one, stopping early at the first strictly negative
// score. Seeds the FRESS refinement.
func bestRandomFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg RandomConfig, attempts int, rng *rand.Rand) (*fold.Fold, int, error) {
	var best *fold.Fold
	bestScore := 0
	total := 0

	for range attempts {
		f, n, err := RandomFold(ctx, protein, dim, cfg, rng)
		total += n
		if err != nil {
			return nil, total, err
		}
		score, err := f.Score()
		if err != nil {
			return nil, total, err
		}
		if best == nil || score < bestScore {
			best, bestScore = f, score
		}
		if bestScore < 0 {
			break
		}
	}
	return best, total, nil
}
