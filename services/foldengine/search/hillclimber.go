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
	"fmt"
	"math/rand/v2"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// HillclimberFold improves a fold by greedy segment regrowth.
//
// Description:
//
//	Starts from the deterministic spiral (or the injected seed) and,
//	for each iteration, re-solves a random segment's interior
//	exhaustively between its anchored endpoints, accepting the best
//	replacement only when it strictly improves the whole-fold score.
//	The accepted-score sequence is therefore non-increasing. Strict
//	acceptance is also what traps it in local minima; the annealer
//	exists to escape those.
//
// Inputs:
//   - ctx: Checked at each proposal boundary.
//   - protein: Sequence to fold. Must be non-empty.
//   - dim: Lattice dimensionality.
//   - cfg: Iteration budget and segment bounds (zero value selects
//     defaults).
//   - seed: Optional complete starting fold; nil selects the spiral.
//   - rng: Random source for segment draws. Must not be nil.
//
// Outputs:
//   - *fold.Fold: Best fold reached.
//   - int: Proposals attempted.
//   - error: ctx.Err(), a seeding failure, or nil.
//
// Thread Safety: Safe for concurrent calls.
func HillclimberFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg HillclimberConfig, seed *fold.Fold, rng *rand.Rand) (*fold.Fold, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	current, err := seedFold(protein, dim, seed)
	if err != nil {
		return nil, 0, err
	}
	currentScore, err := current.Score()
	if err != nil {
		return nil, 0, err
	}

	iterations := 0
	for range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}
		iterations++

		candidate, candScore, ok := proposeBestSegment(current, cfg.MinSegment, cfg.MaxSegment, rng)
		if ok && candScore < currentScore {
			current, currentScore = candidate, candScore
			RecordProposal(ctx, AlgorithmHillclimber, true)
			continue
		}
		RecordProposal(ctx, AlgorithmHillclimber, false)
	}
	return current, iterations, nil
}

// seedFold resolves the starting fold for the local searches: the
// caller's seed when given (cloned, so the caller's copy stays
// untouched), otherwise the spiral.
func seedFold(protein fold.Protein, dim lattice.Dimension, seed *fold.Fold) (*fold.Fold, error) {
	if seed == nil {
		return SpiralFold(protein, dim)
	}
	if !seed.IsComplete() {
		return nil, fmt.Errorf("%w: seed fold has %d of %d monomers",
			fold.ErrIncompleteFold, seed.Len(), protein.Len())
	}
	return seed.Clone(), nil
}
