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
	"fmt"
	"math/rand/v2"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// =============================================================================
// BOUNDED SEGMENT RESOLVE
// =============================================================================
//
// The hillclimber, the annealer, and FRESS all regrow a contiguous
// range of monomers while everything outside the range stays put. The
// machinery here is that one shared primitive: enumerate (or sample)
// self-avoiding re-placements of monomers lo..hi anchored to their
// fixed neighbors, then splice a candidate back through
// fold.WithSegment, which re-validates the whole fold.
//
// Index 0 is always pinned, so lo must be at least 1. A range ending
// at the last monomer has a free right end.

// randomSegmentBacktracks bounds dead-end recoveries in one sampled
// regrowth before it gives up with ErrNoCandidates.
const randomSegmentBacktracks = 200

// segmentContext captures the fixed surroundings of a regrowable range.
type segmentContext struct {
	lo, hi      int
	leftAnchor  lattice.Coord
	rightAnchor *lattice.Coord // nil when hi is the last monomer
	blocked     map[lattice.Coord]int
	steps       []lattice.Coord
}

// newSegmentContext validates the range and indexes the fixed cells.
func newSegmentContext(f *fold.Fold, lo, hi int) (*segmentContext, error) {
	if lo < 1 || hi < lo || hi >= f.Len() {
		return nil, fmt.Errorf("%w: segment [%d,%d] of %d monomers", ErrNoCandidates, lo, hi, f.Len())
	}
	sc := &segmentContext{
		lo:         lo,
		hi:         hi,
		leftAnchor: f.At(lo - 1),
		blocked:    make(map[lattice.Coord]int, f.Len()-(hi-lo+1)),
		steps:      lattice.Steps(f.Dimension()),
	}
	if hi < f.Len()-1 {
		anchor := f.At(hi + 1)
		sc.rightAnchor = &anchor
	}
	for i := 0; i < f.Len(); i++ {
		if i < lo || i > hi {
			sc.blocked[f.At(i)] = i
		}
	}
	return sc, nil
}

// reachable prunes cells that provably cannot chain to the right
// anchor: after placing monomer i at c, hi-i more steps remain and the
// final cell must sit adjacent to the anchor. Manhattan distance and
// step parity decide both at once.
func (sc *segmentContext) reachable(c lattice.Coord, i int) bool {
	if sc.rightAnchor == nil {
		return true
	}
	d := c.Sub(*sc.rightAnchor).ManhattanLen()
	budget := sc.hi - i + 1
	return d <= budget && (d+budget)%2 == 0
}

// candidates collects the cells monomer i may occupy when the previous
// monomer sits at prev and used holds the cells taken so far inside
// the segment.
func (sc *segmentContext) candidates(i int, prev lattice.Coord, used map[lattice.Coord]struct{}) []lattice.Coord {
	out := make([]lattice.Coord, 0, len(sc.steps))
	for _, s := range sc.steps {
		c := prev.Add(s)
		if _, taken := sc.blocked[c]; taken {
			continue
		}
		if _, taken := used[c]; taken {
			continue
		}
		if !sc.reachable(c, i) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// enumerateSegments exhaustively lists every self-avoiding anchored
// re-placement of monomers lo..hi, each as a coordinate slice ready
// for fold.WithSegment(lo, ...).
//
// Description:
//
//	Depth-first walk from the left anchor. Pruning is exact: a branch
//	is cut as soon as the right anchor is out of Manhattan or parity
//	range, so every emitted placement splices back validly. Callers
//	keep ranges short; the candidate count grows exponentially with
//	range length.
//
// Outputs:
//   - [][]lattice.Coord: All placements, deterministic DFS order.
//   - error: ErrNoCandidates when the range admits none (or is
//     malformed); absorbed by callers as a prune signal.
func enumerateSegments(f *fold.Fold, lo, hi int) ([][]lattice.Coord, error) {
	sc, err := newSegmentContext(f, lo, hi)
	if err != nil {
		return nil, err
	}

	var out [][]lattice.Coord
	path := make([]lattice.Coord, 0, hi-lo+1)
	used := make(map[lattice.Coord]struct{}, hi-lo+1)

	var grow func(i int, prev lattice.Coord)
	grow = func(i int, prev lattice.Coord) {
		for _, c := range sc.candidates(i, prev, used) {
			path = append(path, c)
			if i == hi {
				placement := make([]lattice.Coord, len(path))
				copy(placement, path)
				out = append(out, placement)
			} else {
				used[c] = struct{}{}
				grow(i+1, c)
				delete(used, c)
			}
			path = path[:len(path)-1]
		}
	}
	grow(lo, sc.leftAnchor)

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: segment [%d,%d]", ErrNoCandidates, lo, hi)
	}
	return out, nil
}

// randomSegment samples one self-avoiding anchored re-placement of
// monomers lo..hi, backtracking on dead ends up to a fixed budget.
//
// Description:
//
//	The walk mirrors RandomFold: each position keeps its untried
//	candidate set, a dead end truncates one monomer, and exhausting
//	either the budget or the first position's candidates fails with
//	ErrNoCandidates. Used where the range is too long to enumerate.
//
// Outputs:
//   - []lattice.Coord: One placement for fold.WithSegment(lo, ...).
//   - error: ErrNoCandidates; absorbed by callers.
func randomSegment(f *fold.Fold, lo, hi int, rng *rand.Rand) ([]lattice.Coord, error) {
	sc, err := newSegmentContext(f, lo, hi)
	if err != nil {
		return nil, err
	}

	path := make([]lattice.Coord, 0, hi-lo+1)
	used := make(map[lattice.Coord]struct{}, hi-lo+1)
	untried := make([][]lattice.Coord, 1, hi-lo+1)
	untried[0] = sc.candidates(lo, sc.leftAnchor, used)
	backtracks := 0

	for len(path) < hi-lo+1 {
		top := len(untried) - 1
		if len(untried[top]) == 0 {
			if top == 0 {
				return nil, fmt.Errorf("%w: segment [%d,%d]", ErrNoCandidates, lo, hi)
			}
			backtracks++
			if backtracks > randomSegmentBacktracks {
				return nil, fmt.Errorf("%w: segment [%d,%d] after %d backtracks",
					ErrNoCandidates, lo, hi, backtracks)
			}
			delete(used, path[len(path)-1])
			path = path[:len(path)-1]
			untried = untried[:top]
			continue
		}

		i := rng.IntN(len(untried[top]))
		c := untried[top][i]
		untried[top][i] = untried[top][len(untried[top])-1]
		untried[top] = untried[top][:len(untried[top])-1]

		path = append(path, c)
		if len(path) == hi-lo+1 {
			break
		}
		used[c] = struct{}{}
		untried = append(untried, sc.candidates(lo+len(path), c, used))
	}
	return path, nil
}

// proposeBestSegment re-solves a random segment's interior and returns
// the best whole-fold replacement: the hillclimber's greedy proposal.
//
// Description:
//
//	Segment length is uniform in [minSeg, min(maxSeg, n)] and the
//	start uniform over valid positions. Both segment endpoints keep
//	their coordinates as anchors; every enumerated interior placement
//	is spliced and scored, and the lowest-scoring fold wins. Returns
//	ok=false when the segment admits no interior or no placement, and
//	the caller just draws again next iteration.
func proposeBestSegment(f *fold.Fold, minSeg, maxSeg int, rng *rand.Rand) (*fold.Fold, int, bool) {
	lo, hi, ok := drawSegmentInterior(f, minSeg, maxSeg, rng)
	if !ok {
		return nil, 0, false
	}
	placements, err := enumerateSegments(f, lo, hi)
	if err != nil {
		return nil, 0, false
	}

	var best *fold.Fold
	bestScore := 0
	for _, placement := range placements {
		nf, err := f.WithSegment(lo, placement)
		if err != nil {
			continue // invalid splice absorbed
		}
		score, err := nf.Score()
		if err != nil {
			continue
		}
		if best == nil || score < bestScore {
			best, bestScore = nf, score
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestScore, true
}

// proposeRandomSegment draws one uniform placement for a random
// segment's interior: the annealer's proposal. Unlike the greedy
// variant it can and does propose worse folds, which is what gives
// the temperature rule something to decide.
func proposeRandomSegment(f *fold.Fold, minSeg, maxSeg int, rng *rand.Rand) (*fold.Fold, int, bool) {
	lo, hi, ok := drawSegmentInterior(f, minSeg, maxSeg, rng)
	if !ok {
		return nil, 0, false
	}
	placements, err := enumerateSegments(f, lo, hi)
	if err != nil {
		return nil, 0, false
	}

	nf, err := f.WithSegment(lo, placements[rng.IntN(len(placements))])
	if err != nil {
		return nil, 0, false
	}
	score, err := nf.Score()
	if err != nil {
		return nil, 0, false
	}
	return nf, score, true
}

// drawSegmentInterior picks a random segment [start, start+length) and
// returns the index range of its interior, whose endpoints stay
// anchored. A non-empty interior needs at least three monomers, so
// shorter minimums clamp up; ok=false when the fold is too short for
// any segment.
func drawSegmentInterior(f *fold.Fold, minSeg, maxSeg int, rng *rand.Rand) (lo, hi int, ok bool) {
	n := f.Len()
	if minSeg < 3 {
		minSeg = 3
	}
	if maxSeg > n {
		maxSeg = n
	}
	if maxSeg < minSeg {
		return 0, 0, false
	}
	length := minSeg + rng.IntN(maxSeg-minSeg+1)
	start := rng.IntN(n - length + 1)
	return start + 1, start + length - 2, true
}
