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
	"math"
	"math/rand/v2"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// AnnealingFold improves a fold by segment regrowth under a decaying
// temperature.
//
// Description:
//
//	Same segment machinery as the hillclimber, but the proposal is a
//	uniform draw from the segment's placements and acceptance follows
//	the annealing rule: a proposal at least as good as the working
//	fold is always accepted, a worse one with probability
//	2^((old-new)/T). T starts at cfg.StartTemperature and decays
//	multiplicatively each iteration, so the run degenerates into a
//	hillclimber as T approaches zero. The working fold may wander
//	worse; the returned fold is the best ever observed.
//
// Inputs:
//   - ctx: Checked at each proposal boundary.
//   - protein: Sequence to fold. Must be non-empty.
//   - dim: Lattice dimensionality.
//   - cfg: Budget, schedule, and segment bounds (zero value selects
//     defaults).
//   - seed: Optional complete starting fold; nil draws a random
//     baseline fold.
//   - rng: Random source. Must not be nil.
//
// Outputs:
//   - *fold.Fold: Best fold observed across the run.
//   - int: Proposals attempted.
//   - error: ctx.Err(), a seeding failure (ErrUnfoldable), or nil.
//
// Thread Safety: Safe for concurrent calls.
func AnnealingFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg AnnealingConfig, seed *fold.Fold, rng *rand.Rand) (*fold.Fold, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	working := seed
	if working == nil {
		var err error
		working, _, err = RandomFold(ctx, protein, dim, DefaultRandomConfig(), rng)
		if err != nil {
			return nil, 0, err
		}
	} else {
		var err error
		working, err = seedFold(protein, dim, seed)
		if err != nil {
			return nil, 0, err
		}
	}
	workingScore, err := working.Score()
	if err != nil {
		return nil, 0, err
	}

	best, bestScore := working, workingScore
	temperature := cfg.StartTemperature
	iterations := 0

	for range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}
		iterations++

		candidate, candScore, ok := proposeRandomSegment(working, cfg.MinSegment, cfg.MaxSegment, rng)
		if ok && acceptMove(workingScore, candScore, temperature, rng) {
			working, workingScore = candidate, candScore
			if workingScore < bestScore {
				best, bestScore = working, workingScore
			}
			RecordProposal(ctx, AlgorithmAnnealing, true)
		} else {
			RecordProposal(ctx, AlgorithmAnnealing, false)
		}

		temperature *= 1 - cfg.CoolingRate
	}
	return best, iterations, nil
}

// acceptMove applies the annealing acceptance rule.
//
//	new <= old:  always
//	new >  old:  with probability 2^((old-new)/T)
func acceptMove(oldScore, newScore int, temperature float64, rng *rand.Rand) bool {
	if newScore <= oldScore {
		return true
	}
	return rng.Float64() < acceptProbability(oldScore, newScore, temperature)
}

// acceptProbability computes 2^((old-new)/T) for a worsening move.
// It decreases strictly as T falls and vanishes as T approaches zero.
func acceptProbability(oldScore, newScore int, temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	return math.Exp2(float64(oldScore-newScore) / temperature)
}
