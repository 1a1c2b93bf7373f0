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

// fressSegment names one of the three refinement regions.
type fressSegment int

const (
	fressStart fressSegment = iota
	fressMiddle
	fressEnd
)

// FressFold refines a fold by regrowing its weakest region.
//
// Description:
//
//	Seeds with the best of a bounded batch of baseline folds, then
//	repeats: count each monomer's favorable contacts, partition the
//	chain into start/middle/end thirds, and pick the third with the
//	lowest mean contact count, provided its H+C density reaches the
//	per-segment average. That segment is regrown with
//	AttemptsPerResidue*n random anchored re-placements, keeping strict
//	improvements. The run stops when no segment qualifies, a full
//	regrowth round yields no improvement, or MaxRounds rounds have run.
//
// Inputs:
//   - ctx: Checked at each regrowth attempt.
//   - protein: Sequence to fold. Must be non-empty.
//   - dim: Lattice dimensionality.
//   - cfg: Refinement tunables (zero value selects defaults).
//   - walkCfg: Baseline tunables for seeding.
//   - seed: Optional complete starting fold; nil samples baselines.
//   - rng: Random source. Must not be nil.
//
// Outputs:
//   - *fold.Fold: Refined fold.
//   - int: Regrowth attempts performed.
//   - error: ctx.Err(), a seeding failure (ErrUnfoldable), or nil.
//
// Thread Safety: Safe for concurrent calls.
func FressFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg FressConfig, walkCfg RandomConfig, seed *fold.Fold, rng *rand.Rand) (*fold.Fold, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	iterations := 0
	current := seed
	if current == nil {
		var n int
		var err error
		current, n, err = bestRandomFold(ctx, protein, dim, walkCfg, cfg.SeedAttempts, rng)
		iterations += n
		if err != nil {
			return nil, iterations, err
		}
	} else {
		var err error
		current, err = seedFold(protein, dim, seed)
		if err != nil {
			return nil, iterations, err
		}
	}

	n := protein.Len()
	if n < 3 {
		return current, iterations, nil // nothing to regrow
	}
	currentScore, err := current.Score()
	if err != nil {
		return nil, iterations, err
	}

	for range cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}

		segment, ok := weakestSegment(current)
		if !ok {
			break // no region both weak and dense enough to bother
		}
		lo, hi := segmentRange(n, segment)

		improved := false
		for range cfg.AttemptsPerResidue * n {
			if err := ctx.Err(); err != nil {
				return nil, iterations, err
			}
			iterations++

			placement, err := randomSegment(current, lo, hi, rng)
			if err != nil {
				continue // prune signal absorbed
			}
			candidate, err := current.WithSegment(lo, placement)
			if err != nil {
				continue
			}
			score, err := candidate.Score()
			if err != nil {
				continue
			}
			if score < currentScore {
				current, currentScore = candidate, score
				improved = true
				RecordProposal(ctx, AlgorithmFress, true)
			} else {
				RecordProposal(ctx, AlgorithmFress, false)
			}
		}
		if !improved {
			break
		}
	}
	return current, iterations, nil
}

// weakestSegment ranks the three thirds by mean favorable-contact
// count and returns the weakest whose non-polar density is at least
// the per-segment average. Ties resolve in start/middle/end order.
// ok=false means no segment qualifies and refinement should stop.
func weakestSegment(f *fold.Fold) (fressSegment, bool) {
	protein := f.Protein()
	n := protein.Len()
	third := (n + 2) / 3 // ceil(n/3)

	profile := f.ContactProfile()
	means := [3]float64{
		meanOf(profile[0:min(third, n)]),
		meanOf(profile[min(third, n):min(2*third, n)]),
		meanOf(profile[n-third : n]),
	}

	// A segment only qualifies when it holds enough H and C monomers
	// to plausibly score at all; cysteine sequences get a stricter
	// margin because their contacts weigh more.
	margin := 0.1
	if protein.HasCysteine() {
		margin = 1.1
	}
	required := float64(protein.NonPolarCount(0, n))/3 - margin
	density := [3]float64{
		float64(protein.NonPolarCount(0, third)),
		float64(protein.NonPolarCount(third, 2*third)),
		float64(protein.NonPolarCount(n-third, n)),
	}

	weakest := min(means[0], means[1], means[2])
	for _, seg := range []fressSegment{fressStart, fressMiddle, fressEnd} {
		if means[seg] == weakest && density[seg] >= required {
			return seg, true
		}
	}
	return 0, false
}

// segmentRange maps a refinement region to the regrowable index range,
// inclusive on both ends. Index 0 stays pinned at the origin, and the
// end region keeps a free right end.
func segmentRange(n int, seg fressSegment) (lo, hi int) {
	switch seg {
	case fressStart:
		lo, hi = 1, (n+2)/3
	case fressMiddle:
		lo, hi = n/3, (2*n+2)/3
	default:
		lo, hi = 2*n/3, n-1
	}
	if lo < 1 {
		lo = 1
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

func meanOf(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0
	for _, x := range xs {
		total += x
	}
	return float64(total) / float64(len(xs))
}
