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

// BFSFold runs the windowed breadth-first search with symmetry pruning
// across concurrent restarts.
//
// Description:
//
//	Each restart grows a fold window by window: enumerate every valid
//	continuation of length min(depth, remaining), drop continuations
//	whose full-path canonical key duplicates one already kept (no two
//	retained branches are rotation or mirror images of each other),
//	commit the best-scoring survivor with uniform random tie-breaking,
//	and repeat until the protein is placed. A window with no
//	continuation dead-ends that restart without failing the run.
//
//	Restarts share nothing but their seeds and run one goroutine each;
//	the best complete fold across restarts wins. If every restart
//	dead-ends the run fails with ErrUnfoldable.
//
// Inputs:
//   - ctx: Checked at window boundaries; cancellation aborts the group.
//   - protein: Sequence to place. Must be non-empty.
//   - dim: Lattice dimensionality.
//   - cfg: Window depth and restart count (zero value selects defaults).
//   - rng: Seeds the per-restart sources. Must not be nil.
//
// Outputs:
//   - *fold.Fold: Best complete fold across restarts.
//   - int: Committed windows summed over restarts.
//   - error: ErrUnfoldable, ctx.Err(), or nil.
//
// Thread Safety: Safe for concurrent calls.
func BFSFold(ctx context.Context, protein fold.Protein, dim lattice.Dimension, cfg BFSConfig, rng *rand.Rand) (*fold.Fold, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	depth := cfg.DepthFor(dim)

	// Derive restart seeds up front; rand.Rand is not safe to share.
	seeds := make([][2]uint64, cfg.Restarts)
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	folds := make([]*fold.Fold, cfg.Restarts)
	windows := make([]int, cfg.Restarts)

	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Restarts {
		g.Go(func() error {
			restartRNG := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			f, n, err := bfsRestart(gctx, protein, dim, depth, restartRNG)
			folds[i], windows[i] = f, n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, sum(windows), err
	}

	// Keep the best completed restart; dead-ended restarts are partial
	// folds and drop out here.
	var best *fold.Fold
	bestScore := 0
	for _, f := range folds {
		if f == nil || !f.IsComplete() {
			continue
		}
		score, err := f.Score()
		if err != nil {
			continue
		}
		if best == nil || score < bestScore {
			best, bestScore = f, score
		}
	}
	if best == nil {
		return nil, sum(windows), ErrUnfoldable
	}
	return best, sum(windows), nil
}

// bfsRestart grows one fold window by window. On a dead end it returns
// the partial fold built so far with a nil error; only context
// cancellation is reported as an error.
func bfsRestart(ctx context.Context, protein fold.Protein, dim lattice.Dimension, depth int, rng *rand.Rand) (*fold.Fold, int, error) {
	f := fold.New(protein, dim)
	committed := 0

	for !f.IsComplete() {
		if err := ctx.Err(); err != nil {
			return nil, committed, err
		}

		window := depth
		if remaining := protein.Len() - f.Len(); remaining < window {
			window = remaining
		}

		branches, pruned := expandWindow(f, window)
		RecordWindow(ctx, len(branches), pruned)
		if len(branches) == 0 {
			return f, committed, nil // dead end, keep the partial fold
		}

		best := branches[0].score
		for _, b := range branches[1:] {
			if b.score < best {
				best = b.score
			}
		}
		ties := make([]branch, 0, len(branches))
		for _, b := range branches {
			if b.score == best {
				ties = append(ties, b)
			}
		}
		chosen := ties[rng.IntN(len(ties))]

		for _, step := range chosen.steps {
			if err := f.Extend(step); err != nil {
				// The branch was enumerated on this very fold.
				return nil, committed, err
			}
		}
		committed++
	}
	return f, committed, nil
}

// branch is one retained continuation of the current window.
type branch struct {
	steps []lattice.Coord
	score int
}

// expandWindow enumerates every valid continuation of the given length
// and deduplicates by full-path canonical key, so the retained set
// holds no two branches related by a rigid lattice transform. Returns
// the survivors and the number of symmetry-pruned duplicates.
func expandWindow(f *fold.Fold, window int) ([]branch, int) {
	var (
		out    []branch
		pruned int
		seen   = make(map[string]struct{})
		steps  = make([]lattice.Coord, 0, window)
	)
	dim := f.Dimension()

	var grow func(depth int)
	grow = func(depth int) {
		if depth == window {
			key := lattice.CanonicalKey(dim, lattice.PathSteps(f.Coords()))
			if _, dup := seen[key]; dup {
				pruned++
				return
			}
			seen[key] = struct{}{}
			branchSteps := make([]lattice.Coord, len(steps))
			copy(branchSteps, steps)
			out = append(out, branch{steps: branchSteps, score: f.PartialScore()})
			return
		}
		for _, s := range f.LegalSteps() {
			if err := f.Extend(s); err != nil {
				continue
			}
			steps = append(steps, s)
			grow(depth + 1)
			steps = steps[:len(steps)-1]
			f.Truncate(f.Len() - 1)
		}
	}
	grow(0)
	return out, pruned
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
