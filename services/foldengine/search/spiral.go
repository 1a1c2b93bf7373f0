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

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// spiralTurns is the direction cycle of the rectangular spiral.
var spiralTurns = [4]lattice.Coord{
	{Y: 1},  // up
	{X: 1},  // right
	{Y: -1}, // down
	{X: -1}, // left
}

// SpiralFold places the protein along a rectangular spiral in the
// Z=0 plane: run lengths 1, 1, 2, 2, 3, 3, ... with a quarter turn
// between runs. The path never self-intersects, so the fold always
// completes; it is deterministic and makes a reproducible seed for
// the local searches.
func SpiralFold(protein fold.Protein, dim lattice.Dimension) (*fold.Fold, error) {
	f := fold.New(protein, dim)

	turn := 0
	runLen := 1
	for !f.IsComplete() {
		for range runLen {
			if f.IsComplete() {
				break
			}
			if err := f.Extend(spiralTurns[turn]); err != nil {
				// A spiral step can never collide; this is a defect.
				return nil, fmt.Errorf("spiral fold broke at monomer %d: %w", f.Len(), err)
			}
		}
		turn = (turn + 1) % len(spiralTurns)
		if turn%2 == 0 {
			runLen++
		}
	}
	return f, nil
}
