// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package results handles the output side of a folding run: the CSV
// interchange format, run records for archival, summary statistics
// over repeated runs, and the Sink interface drivers write through.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

var (
	// ErrInvalidFormat indicates a CSV that does not follow the fold
	// interchange layout.
	ErrInvalidFormat = errors.New("invalid fold csv")

	// ErrScoreMismatch indicates the score footer disagrees with the
	// score recomputed from the fold itself.
	ErrScoreMismatch = errors.New("csv score mismatch")
)

// csvHeader is the fixed header row of the interchange format.
var csvHeader = []string{"amino", "fold"}

// DirectionCode encodes the step between consecutive monomers as a
// single integer: dx + 2*dy + 3*dz. Unit steps map to 1, -1, 2, -2, 3
// and -3; the last monomer of a fold is written as 0.
func DirectionCode(from, to lattice.Coord) int {
	d := to.Sub(from)
	return d.X + 2*d.Y + 3*d.Z
}

// StepFromCode decodes a direction code back into a unit step.
func StepFromCode(code int) (lattice.Coord, error) {
	switch code {
	case 1:
		return lattice.Coord{X: 1}, nil
	case -1:
		return lattice.Coord{X: -1}, nil
	case 2:
		return lattice.Coord{Y: 1}, nil
	case -2:
		return lattice.Coord{Y: -1}, nil
	case 3:
		return lattice.Coord{Z: 1}, nil
	case -3:
		return lattice.Coord{Z: -1}, nil
	}
	return lattice.Coord{}, fmt.Errorf("%w: direction code %d", ErrInvalidFormat, code)
}

// Directions returns the per-monomer direction codes of a complete
// fold, ending with 0.
func Directions(f *fold.Fold) []int {
	codes := make([]int, f.Len())
	for i := 0; i < f.Len()-1; i++ {
		codes[i] = DirectionCode(f.At(i), f.At(i+1))
	}
	return codes
}

// WriteCSV writes a complete fold in the interchange format: a header
// row, one row per monomer with its type and direction code, and a
// final score row. Line endings are CRLF to stay byte-compatible with
// files produced by the original tooling.
func WriteCSV(w io.Writer, f *fold.Fold) error {
	score, err := f.Score()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	codes := Directions(f)
	for i, code := range codes {
		row := []string{f.Protein().At(i).String(), strconv.Itoa(code)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	if err := cw.Write([]string{"score", strconv.Itoa(score)}); err != nil {
		return fmt.Errorf("write csv footer: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a fold from the interchange format and returns it
// with its score.
//
// Description:
//
//	Parsing is strict: the header must be exactly "amino,fold", every
//	monomer row must hold a valid type and direction code, the last
//	monomer's code must be 0, and the footer score must match the
//	score recomputed from the rebuilt fold. The lattice dimensionality
//	is inferred from the codes: any |code| of 3 means 3D.
//
// Outputs:
//   - *fold.Fold: The rebuilt, validated fold.
//   - int: The fold's score.
//   - error: ErrInvalidFormat, ErrScoreMismatch, or a read error.
func ReadCSV(r io.Reader) (*fold.Fold, int, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(rows) < 3 {
		return nil, 0, fmt.Errorf("%w: need header, at least one monomer, and a score row", ErrInvalidFormat)
	}
	// The reader forces every later row to the header's field count.
	if len(rows[0]) != 2 || rows[0][0] != csvHeader[0] || rows[0][1] != csvHeader[1] {
		return nil, 0, fmt.Errorf("%w: header %v", ErrInvalidFormat, rows[0])
	}

	footer := rows[len(rows)-1]
	if footer[0] != "score" {
		return nil, 0, fmt.Errorf("%w: missing score row", ErrInvalidFormat)
	}
	wantScore, err := strconv.Atoi(footer[1])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: score %q", ErrInvalidFormat, footer[1])
	}

	body := rows[1 : len(rows)-1]
	sequence := make([]byte, 0, len(body))
	codes := make([]int, 0, len(body))
	for i, row := range body {
		if len(row[0]) != 1 {
			return nil, 0, fmt.Errorf("%w: row %d: amino %q", ErrInvalidFormat, i, row[0])
		}
		sequence = append(sequence, row[0][0])

		code, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: row %d: direction %q", ErrInvalidFormat, i, row[1])
		}
		codes = append(codes, code)
	}
	if codes[len(codes)-1] != 0 {
		return nil, 0, fmt.Errorf("%w: last monomer must carry code 0, got %d",
			ErrInvalidFormat, codes[len(codes)-1])
	}

	f, err := foldFromDirections(string(sequence), inferDimension(codes), codes)
	if err != nil {
		return nil, 0, err
	}
	score, err := f.Score()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if score != wantScore {
		return nil, 0, fmt.Errorf("%w: footer %d, recomputed %d", ErrScoreMismatch, wantScore, score)
	}
	return f, score, nil
}

// inferDimension reports 3D when any code moves along Z.
func inferDimension(codes []int) lattice.Dimension {
	for _, code := range codes {
		if code == 3 || code == -3 {
			return lattice.Dim3
		}
	}
	return lattice.Dim2
}

// foldFromDirections rebuilds a fold by walking direction codes from
// the origin. The final code must be 0 and is not walked.
func foldFromDirections(sequence string, dim lattice.Dimension, codes []int) (*fold.Fold, error) {
	protein, err := fold.ParseSequence(sequence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(codes) != protein.Len() {
		return nil, fmt.Errorf("%w: %d monomers, %d directions", ErrInvalidFormat, protein.Len(), len(codes))
	}

	f := fold.New(protein, dim)
	for i, code := range codes[:len(codes)-1] {
		step, err := StepFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := f.Extend(step); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidFormat, i, err)
		}
	}
	return f, nil
}
