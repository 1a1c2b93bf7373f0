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

// =============================================================================
// RIGID TRANSFORMS
// =============================================================================

// Transform is a rigid symmetry of the lattice: a signed permutation of
// the coordinate axes. The full group has 8 elements in 2D (4 rotations,
// each optionally mirrored) and 48 in 3D. Both proper rotations and
// reflections are included because branch deduplication treats mirror
// images as equivalent.
type Transform struct {
	// perm[i] names the source axis feeding output axis i.
	perm [3]uint8

	// sign[i] is +1 or -1 for output axis i.
	sign [3]int8
}

// Apply returns the image of c under the transform.
func (t Transform) Apply(c Coord) Coord {
	v := [3]int{c.X, c.Y, c.Z}
	return Coord{
		X: int(t.sign[0]) * v[t.perm[0]],
		Y: int(t.sign[1]) * v[t.perm[1]],
		Z: int(t.sign[2]) * v[t.perm[2]],
	}
}

// Identity is the transform that maps every coordinate to itself.
var Identity = Transform{perm: [3]uint8{0, 1, 2}, sign: [3]int8{1, 1, 1}}

var (
	transforms2D = buildTransforms(Dim2)
	transforms3D = buildTransforms(Dim3)
)

// Transforms returns the full symmetry group for the dimension:
// 8 transforms for 2D, 48 for 3D. The slice is shared and must not
// be mutated.
func Transforms(d Dimension) []Transform {
	if d == Dim3 {
		return transforms3D
	}
	return transforms2D
}

// buildTransforms enumerates every signed axis permutation. In 2D the
// Z axis is pinned (identity, positive sign) so Z stays zero.
func buildTransforms(d Dimension) []Transform {
	var perms [][3]uint8
	if d == Dim2 {
		perms = [][3]uint8{{0, 1, 2}, {1, 0, 2}}
	} else {
		perms = [][3]uint8{
			{0, 1, 2}, {0, 2, 1},
			{1, 0, 2}, {1, 2, 0},
			{2, 0, 1}, {2, 1, 0},
		}
	}

	signs := []int8{1, -1}
	var out []Transform
	for _, p := range perms {
		for _, sx := range signs {
			for _, sy := range signs {
				if d == Dim2 {
					out = append(out, Transform{perm: p, sign: [3]int8{sx, sy, 1}})
					continue
				}
				for _, sz := range signs {
					out = append(out, Transform{perm: p, sign: [3]int8{sx, sy, sz}})
				}
			}
		}
	}
	return out
}

// =============================================================================
// CANONICAL PATH KEYS
// =============================================================================

// stepByte encodes a unit step as one byte using the same axis coding
// as the fold interchange format (dx + 2*dy + 3*dz, shifted to be
// non-negative). Only valid for unit steps.
func stepByte(s Coord) byte {
	code := s.X + 2*s.Y + 3*s.Z // in {-3..-1, 1..3}
	return byte('a' + code + 3)
}

// CanonicalKey maps a direction sequence to a key that is identical for
// all rotations and mirror reflections of the path.
//
// Description:
//
//	Applies every group transform to the step sequence, encodes each
//	image as a byte string, and returns the lexicographically smallest.
//	Two step sequences are rotation/mirror equivalent iff their keys
//	are equal, which is exactly the dedup rule the windowed search
//	needs: keep one representative per symmetry class.
//
// Inputs:
//
//	d - Lattice dimensionality (selects the 8- or 48-element group).
//	steps - Consecutive unit steps of a path. May be empty.
//
// Outputs:
//
//	string - Canonical key. Empty input yields the empty key.
//
// Thread Safety: Pure function, safe for concurrent use.
func CanonicalKey(d Dimension, steps []Coord) string {
	if len(steps) == 0 {
		return ""
	}

	var best []byte
	buf := make([]byte, len(steps))
	for _, t := range Transforms(d) {
		for i, s := range steps {
			buf[i] = stepByte(t.Apply(s))
		}
		if best == nil || string(buf) < string(best) {
			best = append(best[:0], buf...)
		}
	}
	return string(best)
}

// Equivalent reports whether two step sequences are related by a pure
// rotation or mirror reflection.
func Equivalent(d Dimension, a, b []Coord) bool {
	if len(a) != len(b) {
		return false
	}
	return CanonicalKey(d, a) == CanonicalKey(d, b)
}

// PathSteps converts a coordinate path into its consecutive step
// vectors. Panics are avoided: a path shorter than two coordinates
// yields an empty slice.
func PathSteps(path []Coord) []Coord {
	if len(path) < 2 {
		return nil
	}
	steps := make([]Coord, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		steps = append(steps, path[i].Sub(path[i-1]))
	}
	return steps
}
