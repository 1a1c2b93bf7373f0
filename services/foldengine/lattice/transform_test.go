// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransforms_GroupSize(t *testing.T) {
	assert.Len(t, Transforms(Dim2), 8, "2D symmetry group: 4 rotations x mirror")
	assert.Len(t, Transforms(Dim3), 48, "3D symmetry group: 3! permutations x 2^3 signs")
}

func TestTransforms_AreDistinct(t *testing.T) {
	// Two transforms are equal iff they act identically on a basis probe.
	probe := Coord{X: 1, Y: 2, Z: 3}
	for _, dim := range []Dimension{Dim2, Dim3} {
		seen := make(map[Coord]bool)
		for _, tr := range Transforms(dim) {
			img := tr.Apply(probe)
			assert.False(t, seen[img], "duplicate transform in %s group", dim)
			seen[img] = true
		}
	}
}

func TestTransform_PreservesLattice(t *testing.T) {
	// Every transform must map unit steps to unit steps, and 2D
	// transforms must keep the path in the plane.
	for _, dim := range []Dimension{Dim2, Dim3} {
		for _, tr := range Transforms(dim) {
			for _, s := range Steps(dim) {
				img := tr.Apply(s)
				assert.Equal(t, 1, img.ManhattanLen())
				if dim == Dim2 {
					assert.Zero(t, img.Z)
				}
			}
		}
	}
}

func TestTransform_Identity(t *testing.T) {
	c := Coord{X: -4, Y: 7, Z: 2}
	assert.Equal(t, c, Identity.Apply(c))
}

func TestCanonicalKey(t *testing.T) {
	right := Coord{X: 1}
	left := Coord{X: -1}
	up := Coord{Y: 1}
	down := Coord{Y: -1}

	t.Run("empty path has empty key", func(t *testing.T) {
		assert.Equal(t, "", CanonicalKey(Dim2, nil))
	})

	t.Run("rotations collapse to one key", func(t *testing.T) {
		// The same L-shaped path traced in four rotations.
		paths := [][]Coord{
			{right, right, up},
			{up, up, left},
			{left, left, down},
			{down, down, right},
		}
		key := CanonicalKey(Dim2, paths[0])
		for _, p := range paths[1:] {
			assert.Equal(t, key, CanonicalKey(Dim2, p))
		}
	})

	t.Run("mirror images collapse to one key", func(t *testing.T) {
		a := []Coord{right, up, right}
		b := []Coord{right, down, right}
		assert.Equal(t, CanonicalKey(Dim2, a), CanonicalKey(Dim2, b))
	})

	t.Run("genuinely different paths keep different keys", func(t *testing.T) {
		straight := []Coord{right, right, right}
		bent := []Coord{right, right, up}
		assert.NotEqual(t, CanonicalKey(Dim2, straight), CanonicalKey(Dim2, bent))
	})

	t.Run("3D group covers axis swaps", func(t *testing.T) {
		a := []Coord{{X: 1}, {Y: 1}, {Z: 1}}
		b := []Coord{{Z: 1}, {X: 1}, {Y: 1}}
		assert.Equal(t, CanonicalKey(Dim3, a), CanonicalKey(Dim3, b))
	})
}

func TestEquivalent(t *testing.T) {
	a := []Coord{{X: 1}, {Y: 1}}
	b := []Coord{{Y: 1}, {X: -1}}
	c := []Coord{{X: 1}, {X: 1}}

	assert.True(t, Equivalent(Dim2, a, b))
	assert.False(t, Equivalent(Dim2, a, c))
	assert.False(t, Equivalent(Dim2, a, a[:1]), "length mismatch is never equivalent")
}

func TestPathSteps(t *testing.T) {
	path := []Coord{
		{},
		{X: 1},
		{X: 1, Y: 1},
		{X: 0, Y: 1},
	}
	steps := PathSteps(path)
	require.Len(t, steps, 3)
	assert.Equal(t, []Coord{{X: 1}, {Y: 1}, {X: -1}}, steps)

	assert.Nil(t, PathSteps(nil))
	assert.Nil(t, PathSteps(path[:1]))
}
