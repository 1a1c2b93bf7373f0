// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fold holds the mutable search state of the engine: a protein
// sequence, the ordered lattice coordinates of its placed monomers, and
// the occupied-cell index that makes self-avoidance checks O(1).
//
// A Fold is single-owner state. Algorithms clone before mutating across
// goroutines; nothing in this package locks.
package fold

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// =============================================================================
// MONOMERS AND PROTEINS
// =============================================================================

// Monomer is one residue of the HP(+Cysteine) model.
type Monomer byte

const (
	// Hydrophobic monomer: bonds with H and C at -1.
	Hydrophobic Monomer = 'H'

	// Polar monomer: never contributes bond energy.
	Polar Monomer = 'P'

	// Cysteine monomer: bonds with C at -5, with H at -1.
	Cysteine Monomer = 'C'
)

// Valid reports whether m is one of H, P, C.
func (m Monomer) Valid() bool {
	return m == Hydrophobic || m == Polar || m == Cysteine
}

// String returns the single-letter code.
func (m Monomer) String() string {
	return string(byte(m))
}

// Protein is an immutable ordered monomer sequence.
type Protein struct {
	seq []Monomer
}

// ParseSequence builds a Protein from its letter form.
//
// Description:
//
//	Accepts upper- or lowercase H/P/C. Anything else, or an empty
//	string, fails with ErrInvalidSequence.
//
// Inputs:
//
//	s - Sequence string such as "HHPHHHPH".
//
// Outputs:
//
//	Protein - The parsed sequence.
//	error - ErrInvalidSequence (wrapped with the offending position).
func ParseSequence(s string) (Protein, error) {
	if len(s) == 0 {
		return Protein{}, fmt.Errorf("%w: empty", ErrInvalidSequence)
	}
	seq := make([]Monomer, len(s))
	for i := 0; i < len(s); i++ {
		m := Monomer(s[i])
		if m >= 'a' && m <= 'z' {
			m -= 'a' - 'A'
		}
		if !m.Valid() {
			return Protein{}, fmt.Errorf("%w: %q at position %d", ErrInvalidSequence, s[i], i)
		}
		seq[i] = m
	}
	return Protein{seq: seq}, nil
}

// MustParseSequence is ParseSequence for known-good literals in tests
// and fixtures. Panics on error.
func MustParseSequence(s string) Protein {
	p, err := ParseSequence(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of monomers.
func (p Protein) Len() int { return len(p.seq) }

// At returns the monomer at index i.
func (p Protein) At(i int) Monomer { return p.seq[i] }

// String returns the letter form of the sequence.
func (p Protein) String() string {
	var b strings.Builder
	b.Grow(len(p.seq))
	for _, m := range p.seq {
		b.WriteByte(byte(m))
	}
	return b.String()
}

// NonPolarCount counts H and C monomers in the half-open index range
// [lo, hi). Used by refinement heuristics ranking segment density.
func (p Protein) NonPolarCount(lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(p.seq) {
		hi = len(p.seq)
	}
	n := 0
	for i := lo; i < hi; i++ {
		if p.seq[i] != Polar {
			n++
		}
	}
	return n
}

// HasCysteine reports whether the sequence contains at least one C.
func (p Protein) HasCysteine() bool {
	for _, m := range p.seq {
		if m == Cysteine {
			return true
		}
	}
	return false
}

// =============================================================================
// FOLD STATE
// =============================================================================

// Fold is a partial or complete self-avoiding placement of a protein
// on the lattice. Position i of the coordinate sequence holds monomer
// i's cell. The occupied map is owned by the fold and kept exactly in
// sync with the coordinate sequence through Extend and Truncate.
//
// Thread Safety: not safe for concurrent mutation. Concurrent searches
// each own their fold (Clone before handing off).
type Fold struct {
	protein  Protein
	dim      lattice.Dimension
	steps    []lattice.Coord // unit step set, shared and immutable
	coords   []lattice.Coord
	occupied map[lattice.Coord]int
}

// New creates a fold with monomer 0 placed at the origin (length 1).
//
// Description:
//
//	The protein must be non-empty (ParseSequence enforces this) and
//	dim must be Dim2 or Dim3; the search facade validates both before
//	constructing folds.
func New(protein Protein, dim lattice.Dimension) *Fold {
	f := &Fold{
		protein:  protein,
		dim:      dim,
		steps:    lattice.Steps(dim),
		coords:   make([]lattice.Coord, 0, protein.Len()),
		occupied: make(map[lattice.Coord]int, protein.Len()),
	}
	if protein.Len() > 0 {
		f.coords = append(f.coords, lattice.Origin)
		f.occupied[lattice.Origin] = 0
	}
	return f
}

// Protein returns the sequence being folded.
func (f *Fold) Protein() Protein { return f.protein }

// Dimension returns the lattice dimensionality.
func (f *Fold) Dimension() lattice.Dimension { return f.dim }

// Len returns the number of placed monomers.
func (f *Fold) Len() int { return len(f.coords) }

// IsComplete reports whether every monomer has been placed.
func (f *Fold) IsComplete() bool { return len(f.coords) == f.protein.Len() }

// At returns the coordinate of monomer i. The caller must ensure
// i < Len().
func (f *Fold) At(i int) lattice.Coord { return f.coords[i] }

// Last returns the coordinate of the most recently placed monomer.
func (f *Fold) Last() lattice.Coord { return f.coords[len(f.coords)-1] }

// Coords returns a copy of the placed coordinate sequence.
func (f *Fold) Coords() []lattice.Coord {
	out := make([]lattice.Coord, len(f.coords))
	copy(out, f.coords)
	return out
}

// Occupied reports whether a cell is taken, and by which monomer.
func (f *Fold) Occupied(c lattice.Coord) (int, bool) {
	i, ok := f.occupied[c]
	return i, ok
}

// Extend places the next monomer at Last() + step.
//
// Description:
//
//	Fails with ErrInvalidMove when the fold is already complete, when
//	step is not a unit step of the lattice, or when the target cell is
//	occupied. On failure the fold is unchanged: length and occupied
//	set are exactly as before the call.
//
// Inputs:
//
//	step - Unit displacement from the current last coordinate.
//
// Outputs:
//
//	error - nil on success, otherwise wraps ErrInvalidMove.
func (f *Fold) Extend(step lattice.Coord) error {
	if f.IsComplete() {
		return fmt.Errorf("%w: fold already complete", ErrInvalidMove)
	}
	if !lattice.IsStep(f.dim, step) {
		return fmt.Errorf("%w: %v is not a %s unit step", ErrInvalidMove, step, f.dim)
	}
	next := f.Last().Add(step)
	if _, taken := f.occupied[next]; taken {
		return fmt.Errorf("%w: cell %v occupied", ErrInvalidMove, next)
	}
	f.occupied[next] = len(f.coords)
	f.coords = append(f.coords, next)
	return nil
}

// Truncate removes trailing coordinates back to the given length,
// restoring the occupied set to its exact prior state. This is the
// explicit undo operation backtracking builds on. Lengths beyond the
// current one are a no-op; negative lengths clamp to zero.
func (f *Fold) Truncate(toLength int) {
	if toLength < 0 {
		toLength = 0
	}
	for len(f.coords) > toLength {
		last := len(f.coords) - 1
		delete(f.occupied, f.coords[last])
		f.coords = f.coords[:last]
	}
}

// LegalSteps returns the unit steps whose target cell is unoccupied.
// An empty result is a dead end. The slice is freshly allocated; the
// random walk shrinks it in place as branches fail.
func (f *Fold) LegalSteps() []lattice.Coord {
	last := f.Last()
	out := make([]lattice.Coord, 0, len(f.steps))
	for _, s := range f.steps {
		if _, taken := f.occupied[last.Add(s)]; !taken {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy sharing only the immutable protein and
// step table. The copy can be mutated independently, including from
// another goroutine.
func (f *Fold) Clone() *Fold {
	c := &Fold{
		protein:  f.protein,
		dim:      f.dim,
		steps:    f.steps,
		coords:   make([]lattice.Coord, len(f.coords), f.protein.Len()),
		occupied: make(map[lattice.Coord]int, len(f.occupied)),
	}
	copy(c.coords, f.coords)
	for k, v := range f.occupied {
		c.occupied[k] = v
	}
	return c
}

// WithSegment returns a new fold with coordinates lo..lo+len(repl)-1
// replaced, leaving the receiver untouched.
//
// Description:
//
//	The replacement is validated as a whole: backbone adjacency across
//	both splice boundaries and inside the segment, and global
//	self-avoidance. An invalid splice fails with ErrInvalidMove and
//	allocates nothing visible to the caller. This is the primitive the
//	segment re-solvers build on.
//
// Inputs:
//
//	lo - Index of the first replaced monomer.
//	repl - New coordinates for monomers lo..lo+len(repl)-1.
//
// Outputs:
//
//	*Fold - The spliced fold (complete iff the receiver was).
//	error - nil, or a wrapped ErrInvalidMove.
func (f *Fold) WithSegment(lo int, repl []lattice.Coord) (*Fold, error) {
	if lo < 0 || lo+len(repl) > len(f.coords) {
		return nil, fmt.Errorf("%w: segment [%d,%d) out of range", ErrInvalidMove, lo, lo+len(repl))
	}
	c := f.Clone()
	for i, nc := range repl {
		c.coords[lo+i] = nc
	}
	c.rebuildOccupied()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: splice at %d: %v", ErrInvalidMove, lo, err)
	}
	return c, nil
}

// rebuildOccupied rederives the occupied map from the coordinate
// sequence after a bulk coordinate edit.
func (f *Fold) rebuildOccupied() {
	clear(f.occupied)
	for i, c := range f.coords {
		f.occupied[c] = i
	}
}

// Validate checks the two fold invariants over the placed prefix:
// every consecutive pair lattice-adjacent, and all coordinates
// pairwise distinct (with the occupied index in sync).
//
// Outputs:
//
//	error - nil when both invariants hold, otherwise a descriptive
//	error. Never ErrInvalidMove: validation is a check, not a move.
func (f *Fold) Validate() error {
	for i := 1; i < len(f.coords); i++ {
		if !lattice.Adjacent(f.coords[i-1], f.coords[i]) {
			return fmt.Errorf("backbone break between monomers %d and %d", i-1, i)
		}
	}
	if len(f.occupied) != len(f.coords) {
		return fmt.Errorf("self-avoidance violated: %d cells for %d monomers", len(f.occupied), len(f.coords))
	}
	for i, c := range f.coords {
		if j, ok := f.occupied[c]; !ok || j != i {
			return fmt.Errorf("occupied index out of sync at monomer %d", i)
		}
	}
	return nil
}

// String renders the placed prefix for logs and test failures, e.g.
// "HHPH@[(0,0) (1,0) (1,1) (0,1)]".
func (f *Fold) String() string {
	var b strings.Builder
	b.WriteString(f.protein.String())
	b.WriteString("@[")
	for i, c := range f.coords {
		if i > 0 {
			b.WriteByte(' ')
		}
		if f.dim == lattice.Dim2 {
			fmt.Fprintf(&b, "(%d,%d)", c.X, c.Y)
		} else {
			fmt.Fprintf(&b, "(%d,%d,%d)", c.X, c.Y, c.Z)
		}
	}
	b.WriteByte(']')
	return b.String()
}
