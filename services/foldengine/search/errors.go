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

import "errors"

// Search errors.
var (
	// ErrUnfoldable is returned when a search exhausts its backtrack or
	// restart budget without producing a complete fold. This is the only
	// error a healthy driver should ever see; it means "no solution
	// found", not "the engine broke".
	ErrUnfoldable = errors.New("unfoldable: search budget exhausted")

	// ErrNoCandidates signals a search step with zero legal
	// continuations. It prunes a branch; algorithms absorb it and it
	// never crosses the package boundary.
	ErrNoCandidates = errors.New("no candidate continuations")

	// ErrInvalidDimension is returned for dimensions other than 2 or 3.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrUnknownAlgorithm is returned when an algorithm name does not
	// parse.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrEmptySequence is returned when a run is requested for a
	// zero-length protein.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrInvalidConfig is returned when algorithm tunables fail
	// validation.
	ErrInvalidConfig = errors.New("invalid search config")
)

// SearchError wraps an error with run context.
type SearchError struct {
	Algorithm Algorithm
	Sequence  string
	Err       error
}

func (e *SearchError) Error() string {
	return string(e.Algorithm) + " " + e.Sequence + ": " + e.Err.Error()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// newSearchError creates a SearchError for the given run.
func newSearchError(algorithm Algorithm, sequence string, err error) *SearchError {
	return &SearchError{
		Algorithm: algorithm,
		Sequence:  sequence,
		Err:       err,
	}
}
