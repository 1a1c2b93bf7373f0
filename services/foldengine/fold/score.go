// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fold

import "fmt"

// =============================================================================
// ENERGY MODEL
// =============================================================================

// BondEnergy returns the contact energy contributed by monomers a and
// b when they occupy adjacent cells without being chain neighbors.
//
//	C-C: -5    H-H, H-C, C-H: -1    anything with P: 0
func BondEnergy(a, b Monomer) int {
	if a == Polar || b == Polar {
		return 0
	}
	if a == Cysteine && b == Cysteine {
		return -5
	}
	return -1
}

// Score computes the total energy of a complete fold.
//
// Description:
//
//	Sums BondEnergy over every pair of monomers that are lattice
//	neighbors but not chain neighbors. Each placed monomer looks up
//	its adjacent cells in the occupied index, so the walk is O(n) in
//	the chain length; the directed sum counts every contact twice and
//	is halved at the end. Lower is better and 0 is the worst possible.
//
// Outputs:
//
//	int - The fold energy.
//	error - ErrIncompleteFold when not all monomers are placed or the
//	fold invariants do not hold.
func (f *Fold) Score() (int, error) {
	if !f.IsComplete() {
		return 0, fmt.Errorf("%w: %d of %d monomers placed", ErrIncompleteFold, f.Len(), f.protein.Len())
	}
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIncompleteFold, err)
	}
	return f.contactSum() / 2, nil
}

// PartialScore computes the same contact energy over the placed
// prefix, without requiring completeness. Search algorithms rank
// incomplete candidates with it; a completed fold's PartialScore
// equals its Score.
func (f *Fold) PartialScore() int {
	return f.contactSum() / 2
}

// contactSum returns the directed contact energy: each contact pair
// contributes its bond energy once per direction.
func (f *Fold) contactSum() int {
	total := 0
	for i, c := range f.coords {
		if f.protein.At(i) == Polar {
			continue
		}
		for _, s := range f.steps {
			j, ok := f.occupied[c.Add(s)]
			if !ok {
				continue
			}
			if j == i-1 || j == i+1 {
				continue // backbone neighbors never score
			}
			total += BondEnergy(f.protein.At(i), f.protein.At(j))
		}
	}
	return total
}

// ContactProfile returns, per placed monomer, how many favorable
// contacts it currently makes (bond energy strictly negative, chain
// neighbors excluded). Refinement heuristics use the profile to find
// the weakest region of a fold.
func (f *Fold) ContactProfile() []int {
	profile := make([]int, len(f.coords))
	for i, c := range f.coords {
		if f.protein.At(i) == Polar {
			continue
		}
		for _, s := range f.steps {
			j, ok := f.occupied[c.Add(s)]
			if !ok || j == i-1 || j == i+1 {
				continue
			}
			if BondEnergy(f.protein.At(i), f.protein.At(j)) < 0 {
				profile[i]++
			}
		}
	}
	return profile
}
