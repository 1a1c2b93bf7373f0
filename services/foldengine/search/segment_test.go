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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

func TestNewSegmentContext_RejectsBadRanges(t *testing.T) {
	f := mustFold(t, "HHHH", lattice.Dim2,
		lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 1, Y: 0},
		lattice.Coord{X: 2, Y: 0}, lattice.Coord{X: 3, Y: 0})

	tests := []struct {
		name   string
		lo, hi int
	}{
		{"pinned origin", 0, 2},
		{"inverted", 2, 1},
		{"past the end", 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSegmentContext(f, tt.lo, tt.hi)
			assert.ErrorIs(t, err, ErrNoCandidates)
		})
	}
}

func TestEnumerateSegments_StraightLineIsForced(t *testing.T) {
	// Anchors at (0,0) and (3,0) leave exactly one way to place the
	// two interior monomers: where they already are.
	f := mustFold(t, "HHHH", lattice.Dim2,
		lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 1, Y: 0},
		lattice.Coord{X: 2, Y: 0}, lattice.Coord{X: 3, Y: 0})

	placements, err := enumerateSegments(f, 1, 2)
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.Equal(t, []lattice.Coord{{X: 1, Y: 0}, {X: 2, Y: 0}}, placements[0])
}

func TestEnumerateSegments_UShapeHasMirror(t *testing.T) {
	// Anchors at (0,0) and (1,0): the interior can bridge above (the
	// original) or below (its mirror), nothing else.
	f := mustFold(t, "HHHH", lattice.Dim2,
		lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 0, Y: 1},
		lattice.Coord{X: 1, Y: 1}, lattice.Coord{X: 1, Y: 0})

	placements, err := enumerateSegments(f, 1, 2)
	require.NoError(t, err)
	require.Len(t, placements, 2)
	assert.Contains(t, placements, []lattice.Coord{{X: 0, Y: 1}, {X: 1, Y: 1}})
	assert.Contains(t, placements, []lattice.Coord{{X: 0, Y: -1}, {X: 1, Y: -1}})
}

func TestEnumerateSegments_FreeRightEnd(t *testing.T) {
	// The last monomer has no right anchor, so it may occupy any free
	// neighbor of monomer 1.
	f := mustFold(t, "HHH", lattice.Dim2,
		lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 1, Y: 0},
		lattice.Coord{X: 2, Y: 0})

	placements, err := enumerateSegments(f, 2, 2)
	require.NoError(t, err)
	assert.Len(t, placements, 3)
	assert.Contains(t, placements, []lattice.Coord{{X: 2, Y: 0}})
	assert.Contains(t, placements, []lattice.Coord{{X: 1, Y: 1}})
	assert.Contains(t, placements, []lattice.Coord{{X: 1, Y: -1}})
}

func TestEnumerateSegments_EveryPlacementSplices(t *testing.T) {
	// Pruning is exact: each enumerated placement must survive the
	// full-fold revalidation in WithSegment.
	f, err := SpiralFold(fold.MustParseSequence("HHHHHHHHHH"), lattice.Dim2)
	require.NoError(t, err)

	placements, err := enumerateSegments(f, 4, 6)
	require.NoError(t, err)
	require.NotEmpty(t, placements)

	for _, placement := range placements {
		nf, err := f.WithSegment(4, placement)
		require.NoError(t, err)
		assert.True(t, nf.IsComplete())
		assert.NoError(t, nf.Validate())
	}
}

func TestRandomSegment_DrawsFromEnumeratedSet(t *testing.T) {
	f := mustFold(t, "HHHH", lattice.Dim2,
		lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 0, Y: 1},
		lattice.Coord{X: 1, Y: 1}, lattice.Coord{X: 1, Y: 0})

	all, err := enumerateSegments(f, 1, 2)
	require.NoError(t, err)

	rng := newTestRNG(5, 11)
	for i := 0; i < 20; i++ {
		placement, err := randomSegment(f, 1, 2, rng)
		require.NoError(t, err)
		assert.Contains(t, all, placement, "draw %d", i)

		nf, err := f.WithSegment(1, placement)
		require.NoError(t, err)
		assert.NoError(t, nf.Validate())
	}
}

func TestRandomSegment_FreeEndRegrowth(t *testing.T) {
	f, err := SpiralFold(fold.MustParseSequence("HHHHHHHHHHHH"), lattice.Dim2)
	require.NoError(t, err)

	// Regrow the tail with a free right end.
	rng := newTestRNG(3, 9)
	for i := 0; i < 10; i++ {
		placement, err := randomSegment(f, 8, 11, rng)
		require.NoError(t, err)

		nf, err := f.WithSegment(8, placement)
		require.NoError(t, err)
		assert.True(t, nf.IsComplete())
		assert.NoError(t, nf.Validate())
	}
}

func TestDrawSegmentInterior_Bounds(t *testing.T) {
	f, err := SpiralFold(fold.MustParseSequence("HHHHHHHHHH"), lattice.Dim2)
	require.NoError(t, err)

	rng := newTestRNG(2, 4)
	for i := 0; i < 100; i++ {
		lo, hi, ok := drawSegmentInterior(f, 3, 10, rng)
		require.True(t, ok)
		assert.GreaterOrEqual(t, lo, 1)
		assert.LessOrEqual(t, lo, hi)
		assert.LessOrEqual(t, hi, f.Len()-2)
	}
}

func TestDrawSegmentInterior_ShortFolds(t *testing.T) {
	t.Run("three monomers pin the middle", func(t *testing.T) {
		f := mustFold(t, "HHH", lattice.Dim2,
			lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 1, Y: 0},
			lattice.Coord{X: 2, Y: 0})
		lo, hi, ok := drawSegmentInterior(f, 3, 10, newTestRNG(1, 1))
		require.True(t, ok)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 1, hi)
	})

	t.Run("two monomers admit no segment", func(t *testing.T) {
		f := mustFold(t, "HH", lattice.Dim2,
			lattice.Coord{X: 0, Y: 0}, lattice.Coord{X: 1, Y: 0})
		_, _, ok := drawSegmentInterior(f, 3, 10, newTestRNG(1, 1))
		assert.False(t, ok)
	})
}

func TestProposeBestSegment_NeverWorsens(t *testing.T) {
	// The current placement is always among the enumerated candidates,
	// so the greedy proposal can never score worse than the input.
	f, err := SpiralFold(fold.MustParseSequence("HPHPPHHPHPPHPHH"), lattice.Dim2)
	require.NoError(t, err)
	current, err := f.Score()
	require.NoError(t, err)

	rng := newTestRNG(6, 13)
	for i := 0; i < 25; i++ {
		candidate, score, ok := proposeBestSegment(f, 3, 10, rng)
		require.True(t, ok, "proposal %d", i)
		assert.LessOrEqual(t, score, current, "proposal %d", i)
		assert.True(t, candidate.IsComplete())
		assert.NoError(t, candidate.Validate())
	}
}

func TestProposeRandomSegment_ValidFold(t *testing.T) {
	f, err := SpiralFold(fold.MustParseSequence("HPHPPHHPHP"), lattice.Dim2)
	require.NoError(t, err)

	rng := newTestRNG(8, 21)
	for i := 0; i < 25; i++ {
		candidate, score, ok := proposeRandomSegment(f, 3, 10, rng)
		if !ok {
			continue
		}
		assert.True(t, candidate.IsComplete())
		assert.NoError(t, candidate.Validate())

		got, err := candidate.Score()
		require.NoError(t, err)
		assert.Equal(t, got, score)
	}
}
