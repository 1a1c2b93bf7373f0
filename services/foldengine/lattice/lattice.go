// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lattice defines the discrete coordinate space folds live on.
//
// A fold places one monomer per cell of a 2D (4-connected) or 3D
// (6-connected) integer lattice. Everything here is exact integer
// arithmetic: coordinates hash and compare exactly, and the symmetry
// group used for branch deduplication is the set of signed axis
// permutations, never floating-point rotation matrices.
package lattice

// Dimension selects the lattice connectivity: 4 unit steps in 2D,
// 6 in 3D.
type Dimension int

const (
	// Dim2 is the planar square lattice.
	Dim2 Dimension = 2

	// Dim3 is the cubic lattice.
	Dim3 Dimension = 3
)

// Valid reports whether d is a supported dimensionality.
func (d Dimension) Valid() bool {
	return d == Dim2 || d == Dim3
}

// String returns the human-readable form ("2D" or "3D").
func (d Dimension) String() string {
	switch d {
	case Dim2:
		return "2D"
	case Dim3:
		return "3D"
	default:
		return "invalid"
	}
}

// StepCount returns the number of unit steps (4 or 6).
func (d Dimension) StepCount() int {
	if d == Dim3 {
		return 6
	}
	return 4
}

// Coord is an exact integer lattice coordinate. Z is always zero on
// 2D lattices. Coord is a value type; it is also used for displacement
// vectors (unit steps and differences).
type Coord struct {
	X, Y, Z int
}

// Origin is where monomer 0 of every fold is placed.
var Origin = Coord{}

// Add returns c translated by the step d.
func (c Coord) Add(d Coord) Coord {
	return Coord{c.X + d.X, c.Y + d.Y, c.Z + d.Z}
}

// Sub returns the displacement from o to c.
func (c Coord) Sub(o Coord) Coord {
	return Coord{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

// Neg returns the opposite displacement.
func (c Coord) Neg() Coord {
	return Coord{-c.X, -c.Y, -c.Z}
}

// ManhattanLen returns |X| + |Y| + |Z|.
func (c Coord) ManhattanLen() int {
	return absInt(c.X) + absInt(c.Y) + absInt(c.Z)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Unit step tables. The 2D table is a prefix of the 3D table so a 2D
// step index is also a valid 3D step index.
var (
	steps2D = [...]Coord{
		{X: 1}, {X: -1},
		{Y: 1}, {Y: -1},
	}
	steps3D = [...]Coord{
		{X: 1}, {X: -1},
		{Y: 1}, {Y: -1},
		{Z: 1}, {Z: -1},
	}
)

// Steps returns the fixed unit step set for the dimension: 4 vectors
// for 2D, 6 for 3D.
//
// Description:
//
//	The returned slice is a fresh copy; callers may reorder or shrink
//	it freely (the random walk does both).
//
// Outputs:
//
//	[]Coord - Unit steps in a stable canonical order.
func Steps(d Dimension) []Coord {
	if d == Dim3 {
		out := make([]Coord, len(steps3D))
		copy(out, steps3D[:])
		return out
	}
	out := make([]Coord, len(steps2D))
	copy(out, steps2D[:])
	return out
}

// IsStep reports whether v is a unit step of the dimension.
func IsStep(d Dimension, v Coord) bool {
	if v.ManhattanLen() != 1 {
		return false
	}
	if d == Dim2 && v.Z != 0 {
		return false
	}
	return true
}

// Adjacent reports whether a and b differ by exactly one unit step
// (Manhattan distance 1).
func Adjacent(a, b Coord) bool {
	return a.Sub(b).ManhattanLen() == 1
}
