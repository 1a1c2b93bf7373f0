// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/hpfold/cmd/hpfold/config"
	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// writeTempSequences writes a sequence file into dir and returns its
// path.
func writeTempSequences(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// TestReadSequences_SkipsCommentsAndBlanks tests sequence file parsing.
func TestReadSequences_SkipsCommentsAndBlanks(t *testing.T) {
	path := writeTempSequences(t, t.TempDir(), "seqs.txt",
		"# benchmark set\nHPPH\n\n  HPHP  \n# trailing comment\nhhpp\n")

	seqs, err := readSequences(path)
	if err != nil {
		t.Fatalf("readSequences failed: %v", err)
	}
	if len(seqs) != 3 {
		t.Fatalf("Sequences = %d, want 3", len(seqs))
	}
	if seqs[0].String() != "HPPH" {
		t.Errorf("Sequence[0] = %s, want HPPH", seqs[0])
	}
	if seqs[2].String() != "HHPP" {
		t.Errorf("Sequence[2] = %s, want HHPP (case normalized)", seqs[2])
	}
}

// TestReadSequences_BadMonomer tests the error includes file and line.
func TestReadSequences_BadMonomer(t *testing.T) {
	path := writeTempSequences(t, t.TempDir(), "seqs.txt", "HPPH\nHPXH\n")

	_, err := readSequences(path)
	if err == nil {
		t.Fatal("Expected error for invalid monomer, got nil")
	}
	if !strings.Contains(err.Error(), "seqs.txt:2") {
		t.Errorf("Error should name file and line, got: %v", err)
	}
}

// TestCollectSequenceFiles_Directory tests extension filtering.
func TestCollectSequenceFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeTempSequences(t, dir, "b.txt", "HPPH\n")
	writeTempSequences(t, dir, "a.seq", "HPHP\n")
	writeTempSequences(t, dir, "notes.md", "not a sequence file\n")

	files, err := collectSequenceFiles(dir)
	if err != nil {
		t.Fatalf("collectSequenceFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Files = %d, want 2 (got %v)", len(files), files)
	}
	// os.ReadDir sorts by name.
	if filepath.Base(files[0]) != "a.seq" || filepath.Base(files[1]) != "b.txt" {
		t.Errorf("Unexpected order: %v", files)
	}
}

// TestCollectSequenceFiles_SingleFile tests that a direct file path
// passes through regardless of extension.
func TestCollectSequenceFiles_SingleFile(t *testing.T) {
	path := writeTempSequences(t, t.TempDir(), "bench.dat", "HPPH\n")

	files, err := collectSequenceFiles(path)
	if err != nil {
		t.Fatalf("collectSequenceFiles failed: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("Files = %v, want [%s]", files, path)
	}
}

// TestCollectSequenceFiles_EmptyDirectory tests the no-input error.
func TestCollectSequenceFiles_EmptyDirectory(t *testing.T) {
	if _, err := collectSequenceFiles(t.TempDir()); err == nil {
		t.Error("Expected error for directory without sequence files, got nil")
	}
}

// TestBuildCases_GridSize tests the grid expansion.
func TestBuildCases_GridSize(t *testing.T) {
	seqs := []fold.Protein{
		fold.MustParseSequence("HPPH"),
		fold.MustParseSequence("HPHP"),
	}
	algorithms := []search.Algorithm{search.AlgorithmSpiral, search.AlgorithmBaseline}
	dims := []lattice.Dimension{lattice.Dim2, lattice.Dim3}

	cases := buildCases(seqs, algorithms, dims)
	if len(cases) != 8 {
		t.Fatalf("Cases = %d, want 8", len(cases))
	}
	// Dimension varies fastest, then algorithm, then sequence.
	if cases[0].Dimension != lattice.Dim2 || cases[1].Dimension != lattice.Dim3 {
		t.Error("Unexpected dimension order in the grid")
	}
	if cases[0].Algorithm != search.AlgorithmSpiral || cases[2].Algorithm != search.AlgorithmBaseline {
		t.Error("Unexpected algorithm order in the grid")
	}
}

// TestParseBatchAlgorithms tests name validation and the default.
func TestParseBatchAlgorithms(t *testing.T) {
	config.Global = config.HPFoldConfig{}
	t.Cleanup(func() { config.Global = config.HPFoldConfig{} })

	algorithms, err := parseBatchAlgorithms([]string{"spiral", " fress "})
	if err != nil {
		t.Fatalf("parseBatchAlgorithms failed: %v", err)
	}
	if len(algorithms) != 2 || algorithms[1] != search.AlgorithmFress {
		t.Errorf("Algorithms = %v", algorithms)
	}

	if _, err := parseBatchAlgorithms([]string{"bogus"}); err == nil {
		t.Error("Expected error for unknown algorithm, got nil")
	}

	defaulted, err := parseBatchAlgorithms(nil)
	if err != nil {
		t.Fatalf("parseBatchAlgorithms(nil) failed: %v", err)
	}
	if len(defaulted) != 1 || defaulted[0] != search.AlgorithmAnnealing {
		t.Errorf("Default algorithms = %v, want [simulated_annealing]", defaulted)
	}
}

// TestParseBatchDimensions tests dimension validation and the default.
func TestParseBatchDimensions(t *testing.T) {
	config.Global = config.HPFoldConfig{}
	t.Cleanup(func() { config.Global = config.HPFoldConfig{} })

	dims, err := parseBatchDimensions([]int{2, 3})
	if err != nil {
		t.Fatalf("parseBatchDimensions failed: %v", err)
	}
	if len(dims) != 2 || dims[0] != lattice.Dim2 || dims[1] != lattice.Dim3 {
		t.Errorf("Dimensions = %v", dims)
	}

	if _, err := parseBatchDimensions([]int{4}); err == nil {
		t.Error("Expected error for dimension 4, got nil")
	}

	defaulted, err := parseBatchDimensions(nil)
	if err != nil {
		t.Fatalf("parseBatchDimensions(nil) failed: %v", err)
	}
	if len(defaulted) != 1 || defaulted[0] != lattice.Dim2 {
		t.Errorf("Default dimensions = %v, want [2D]", defaulted)
	}
}

// TestCaseFileName tests short names pass through and long sequences
// get hashed.
func TestCaseFileName(t *testing.T) {
	short := batchCase{
		Sequence:  fold.MustParseSequence("HPPH"),
		Algorithm: search.AlgorithmSpiral,
		Dimension: lattice.Dim2,
	}
	if got := caseFileName(short); got != "HPPH_spiral_2d.csv" {
		t.Errorf("Name = %s, want HPPH_spiral_2d.csv", got)
	}

	long := batchCase{
		Sequence:  fold.MustParseSequence(strings.Repeat("HP", 30)),
		Algorithm: search.AlgorithmFress,
		Dimension: lattice.Dim3,
	}
	name := caseFileName(long)
	if len(name) > 50 {
		t.Errorf("Name too long: %s", name)
	}
	if !strings.HasSuffix(name, "_fress_3d.csv") {
		t.Errorf("Name = %s, want _fress_3d.csv suffix", name)
	}

	other := long
	other.Sequence = fold.MustParseSequence(strings.Repeat("HP", 29) + "HH")
	if caseFileName(other) == name {
		t.Error("Distinct long sequences should not collide")
	}
}

// TestExecuteCases_SpiralGrid runs a tiny deterministic grid end to
// end through the worker pool.
func TestExecuteCases_SpiralGrid(t *testing.T) {
	config.Global = config.HPFoldConfig{}
	t.Cleanup(func() { config.Global = config.HPFoldConfig{} })

	oldRepeats, oldQuiet := batchRepeats, batchQuiet
	batchRepeats, batchQuiet = 2, true
	t.Cleanup(func() { batchRepeats, batchQuiet = oldRepeats, oldQuiet })

	cases := buildCases(
		[]fold.Protein{fold.MustParseSequence("HHHH"), fold.MustParseSequence("HPPH")},
		[]search.Algorithm{search.AlgorithmSpiral},
		[]lattice.Dimension{lattice.Dim2},
	)

	caseResults, err := executeCases(context.Background(), cases)
	if err != nil {
		t.Fatalf("executeCases failed: %v", err)
	}
	if len(caseResults) != 2 {
		t.Fatalf("Results = %d, want 2", len(caseResults))
	}
	for i, res := range caseResults {
		if res.Sequence != cases[i].Sequence.String() {
			t.Errorf("Result %d out of order: %s", i, res.Sequence)
		}
		if res.Runs != 2 {
			t.Errorf("Result %d runs = %d, want 2", i, res.Runs)
		}
		if res.Failures != 0 {
			t.Errorf("Result %d failures = %d, want 0", i, res.Failures)
		}
		// The spiral is deterministic, so best and worst coincide.
		if res.Best != res.Worst {
			t.Errorf("Result %d best %d != worst %d for a deterministic fold",
				i, res.Best, res.Worst)
		}
		if len(res.Directions) != len(res.Sequence)-1 {
			t.Errorf("Result %d directions = %d, want %d",
				i, len(res.Directions), len(res.Sequence)-1)
		}
	}
}

// TestRunCase_SeededReproducible tests that the same seed gives the
// same statistics.
func TestRunCase_SeededReproducible(t *testing.T) {
	config.Global = config.HPFoldConfig{}
	t.Cleanup(func() { config.Global = config.HPFoldConfig{} })

	oldRepeats := batchRepeats
	batchRepeats = 3
	t.Cleanup(func() { batchRepeats = oldRepeats })

	bc := batchCase{
		Sequence:  fold.MustParseSequence("HPPHHPHPPH"),
		Algorithm: search.AlgorithmBaseline,
		Dimension: lattice.Dim2,
	}
	seed := [2]uint64{7, 11}

	first, err := runCase(context.Background(), bc, seed)
	if err != nil {
		t.Fatalf("runCase failed: %v", err)
	}
	second, err := runCase(context.Background(), bc, seed)
	if err != nil {
		t.Fatalf("runCase failed: %v", err)
	}

	if first.Best != second.Best || first.Worst != second.Worst || first.Mean != second.Mean {
		t.Errorf("Seeded runs differ: %+v vs %+v", first, second)
	}
}

// TestWriteBatchSummaryCSV tests the summary export shape.
func TestWriteBatchSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	cases := []BatchCaseResult{
		{Sequence: "HPPH", Algorithm: "spiral", Dimension: 2, Runs: 3, Best: -1, Worst: 0, Mean: -0.5, TotalMs: 12},
		{Sequence: "HPHP", Algorithm: "fress", Dimension: 3, Runs: 3, Failures: 1, Best: -2, Worst: -1, Mean: -1.5, BestFile: "HPHP_fress_3d.csv"},
	}

	if err := writeBatchSummaryCSV(path, cases); err != nil {
		t.Fatalf("writeBatchSummaryCSV failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open summary: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse summary CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Rows = %d, want 3 (header + 2 cases)", len(rows))
	}
	if rows[0][0] != "sequence" || rows[0][10] != "best_file" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][0] != "HPPH" || rows[1][5] != "-1" {
		t.Errorf("Unexpected first row: %v", rows[1])
	}
	if rows[2][4] != "1" {
		t.Errorf("Failures column = %s, want 1", rows[2][4])
	}
}

// TestAllCasesFailed tests the all-failed detector.
func TestAllCasesFailed(t *testing.T) {
	if !allCasesFailed([]BatchCaseResult{{Runs: 0}, {Runs: 0}}) {
		t.Error("Expected true when no case produced a fold")
	}
	if allCasesFailed([]BatchCaseResult{{Runs: 0}, {Runs: 1}}) {
		t.Error("Expected false when any case produced a fold")
	}
}

// TestIsSequenceFile tests extension matching.
func TestIsSequenceFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"bench.txt", true},
		{"bench.seq", true},
		{"bench.TXT", true},
		{"bench.md", false},
		{"bench", false},
	}
	for _, tt := range tests {
		if got := isSequenceFile(tt.name); got != tt.want {
			t.Errorf("isSequenceFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
