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

import "errors"

// Fold state errors.
var (
	// ErrInvalidMove is returned when a proposed step breaks lattice
	// adjacency or lands on an occupied cell. Always recovered locally
	// by the caller (try another candidate or backtrack); never
	// surfaced to a driver.
	ErrInvalidMove = errors.New("invalid move")

	// ErrIncompleteFold is returned when scoring is attempted on a
	// fold that is not complete and valid. This is a contract
	// violation in the calling algorithm, not a user-facing condition.
	ErrIncompleteFold = errors.New("incomplete fold")

	// ErrInvalidSequence is returned when a sequence contains
	// characters outside the H/P/C alphabet or is empty.
	ErrInvalidSequence = errors.New("invalid sequence")
)
