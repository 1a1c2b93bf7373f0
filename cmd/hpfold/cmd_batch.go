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
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/hpfold/pkg/ux"
	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/results"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	batchAlgorithmList []string
	batchDimensionList []int
	batchRepeats       int
	batchWorkers       int
	batchIterations    int
	batchSeed          uint64
	batchOut           string
	batchWatch         bool
	batchJSON          bool
	batchQuiet         bool
)

// batchDebounce coalesces the burst of filesystem events editors fire
// per save into one rerun.
const batchDebounce = 500 * time.Millisecond

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	batchCmd.Flags().StringSliceVar(&batchAlgorithmList, "algorithms", nil,
		"Algorithms to run (default: the configured default algorithm)")
	batchCmd.Flags().IntSliceVar(&batchDimensionList, "dimensions", nil,
		"Lattice dimensions to run (default: the configured default)")
	batchCmd.Flags().IntVar(&batchRepeats, "repeats", 3,
		"Runs per (sequence, algorithm, dimension) case")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0,
		"Concurrent cases (default: number of CPUs)")
	batchCmd.Flags().IntVarP(&batchIterations, "iterations", "n", 0,
		"Iteration budget per run (0 uses each algorithm's default)")
	batchCmd.Flags().Uint64Var(&batchSeed, "seed", 0,
		"Seed for a reproducible experiment (0 seeds from the clock)")
	batchCmd.Flags().StringVar(&batchOut, "out", "",
		"Directory for per-case best-fold CSVs and summary.csv")
	batchCmd.Flags().BoolVar(&batchWatch, "watch", false,
		"Keep running, rerunning when sequence files change")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false,
		"Output machine-readable JSON")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false,
		"Suppress output; the exit code carries the verdict")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// batchCase is one (sequence, algorithm, dimension) cell of the
// experiment grid.
type batchCase struct {
	Sequence  fold.Protein
	Algorithm search.Algorithm
	Dimension lattice.Dimension
}

func (bc batchCase) describe() string {
	return fmt.Sprintf("%s/%s/%s", bc.Sequence, bc.Algorithm, bc.Dimension)
}

// runBatch executes the batch command. Exit codes: 0 success, 1 every
// case failed to produce a fold, 2 error.
func runBatch(cmd *cobra.Command, args []string) int {
	start := time.Now()
	out := OutputConfig{JSON: batchJSON, Quiet: batchQuiet}

	algorithms, err := parseBatchAlgorithms(batchAlgorithmList)
	if err != nil {
		OutputError(out.JSON, "invalid algorithms", err)
		return CLIExitError
	}
	dims, err := parseBatchDimensions(batchDimensionList)
	if err != nil {
		OutputError(out.JSON, "invalid dimensions", err)
		return CLIExitError
	}
	if batchRepeats < 1 {
		OutputError(out.JSON, "invalid repeats", fmt.Errorf("repeats must be at least 1, got %d", batchRepeats))
		return CLIExitError
	}
	if batchOut != "" {
		if err := os.MkdirAll(batchOut, 0755); err != nil {
			OutputError(out.JSON, "failed to create output directory", err)
			return CLIExitError
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := setupTelemetry(ctx, false)
	if err != nil {
		OutputError(out.JSON, "telemetry setup failed", err)
		return CLIExitError
	}
	defer tel.Shutdown(context.Background())

	runOnce := func(ctx context.Context) (*BatchResult, error) {
		return executeBatch(ctx, args[0], algorithms, dims)
	}

	result, err := runOnce(ctx)
	if err != nil {
		OutputError(out.JSON, "batch failed", err)
		return CLIExitError
	}
	if !out.JSON && !out.Quiet {
		printBatchResults(result.Cases)
	}
	code := OutputResult(out, "batch", start, result, allCasesFailed(result.Cases), nil)

	if !batchWatch {
		return code
	}

	rerun := func(ctx context.Context) error {
		res, err := runOnce(ctx)
		if err != nil {
			return err
		}
		if out.JSON {
			return OutputJSON(res, out.Compact)
		}
		if !out.Quiet {
			printBatchResults(res.Cases)
		}
		return nil
	}
	if err := watchSequences(ctx, args[0], rerun); err != nil && !errors.Is(err, context.Canceled) {
		OutputError(out.JSON, "watch failed", err)
		return CLIExitError
	}
	return CLIExitSuccess
}

// executeBatch loads sequences, builds the case grid, and runs it.
func executeBatch(ctx context.Context, input string, algorithms []search.Algorithm, dims []lattice.Dimension) (*BatchResult, error) {
	files, err := collectSequenceFiles(input)
	if err != nil {
		return nil, err
	}
	var sequences []fold.Protein
	for _, file := range files {
		seqs, err := readSequences(file)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seqs...)
	}
	cases := buildCases(sequences, algorithms, dims)
	if len(cases) == 0 {
		return nil, fmt.Errorf("no sequences found in %s", input)
	}

	caseResults, err := executeCases(ctx, cases)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Cases: caseResults}
	if batchOut != "" {
		summaryPath := filepath.Join(batchOut, "summary.csv")
		if err := writeBatchSummaryCSV(summaryPath, caseResults); err != nil {
			return nil, err
		}
		result.SummaryFile = summaryPath
	}
	return result, nil
}

// executeCases fans the grid out over a bounded worker pool. Results
// land in a preallocated slice by case index, so output order matches
// grid order no matter which worker finishes first.
func executeCases(ctx context.Context, cases []batchCase) ([]BatchCaseResult, error) {
	caseResults := make([]BatchCaseResult, len(cases))
	progress := newSearchProgress("batch", len(cases), batchJSON || batchQuiet)
	defer progress.Stop()

	// Per-case seeds come off one parent source so --seed reproduces
	// the whole experiment regardless of worker scheduling.
	seeds := make([][2]uint64, len(cases))
	if batchSeed != 0 {
		parent := rand.New(rand.NewPCG(batchSeed, batchSeed))
		for i := range seeds {
			seeds[i] = [2]uint64{parent.Uint64(), parent.Uint64()}
		}
	}

	workers := batchWorkers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, bc := range cases {
		g.Go(func() error {
			res, err := runCase(gctx, bc, seeds[i])
			if err != nil {
				return fmt.Errorf("case %s: %w", bc.describe(), err)
			}
			caseResults[i] = res
			progress.Step(bc.describe())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return caseResults, nil
}

// runCase executes the repeats for one grid cell sequentially,
// accumulating statistics and keeping the best fold. A run that ends
// unfoldable counts as a failure instead of aborting the batch.
func runCase(ctx context.Context, bc batchCase, seed [2]uint64) (BatchCaseResult, error) {
	out := BatchCaseResult{
		Sequence:  bc.Sequence.String(),
		Algorithm: bc.Algorithm.String(),
		Dimension: int(bc.Dimension),
	}

	opts := &search.Options{}
	if seed != ([2]uint64{}) {
		opts.RNG = rand.New(rand.NewPCG(seed[0], seed[1]))
	}

	var sum results.Summary
	var best *search.Result
	for r := 0; r < batchRepeats; r++ {
		res, err := search.Run(ctx, bc.Sequence, bc.Dimension, bc.Algorithm, batchIterations, opts)
		if err != nil {
			if errors.Is(err, search.ErrUnfoldable) {
				out.Failures++
				continue
			}
			return out, err
		}
		sum.Add(res.Score, res.Elapsed)
		if best == nil || res.Score < best.Score {
			best = res
		}
	}

	out.Runs = sum.Count
	out.Best = sum.Best
	out.Worst = sum.Worst
	out.Mean = sum.Mean()
	out.Stddev = sum.Stddev()
	out.TotalMs = sum.TotalElapsed.Milliseconds()

	if best != nil {
		out.Directions = results.Directions(best.Fold)
		if batchOut != "" {
			name := caseFileName(bc)
			if err := writeFoldCSV(filepath.Join(batchOut, name), best.Fold); err != nil {
				return out, err
			}
			out.BestFile = name
		}
	}
	return out, nil
}

// =============================================================================
// SEQUENCE FILE LOADING
// =============================================================================

// collectSequenceFiles resolves the input path to a sorted list of
// sequence files: the path itself when it is a file, or every .txt and
// .seq entry when it is a directory.
func collectSequenceFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isSequenceFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(input, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .txt or .seq sequence files in %s", input)
	}
	return files, nil
}

func isSequenceFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".seq":
		return true
	}
	return false
}

// readSequences parses one sequence file: one sequence per line, blank
// lines and # comments skipped.
func readSequences(path string) ([]fold.Protein, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sequences []fold.Protein
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		protein, err := fold.ParseSequence(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		sequences = append(sequences, protein)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return sequences, nil
}

// buildCases expands the grid: sequences x algorithms x dimensions.
func buildCases(sequences []fold.Protein, algorithms []search.Algorithm, dims []lattice.Dimension) []batchCase {
	cases := make([]batchCase, 0, len(sequences)*len(algorithms)*len(dims))
	for _, seq := range sequences {
		for _, alg := range algorithms {
			for _, dim := range dims {
				cases = append(cases, batchCase{Sequence: seq, Algorithm: alg, Dimension: dim})
			}
		}
	}
	return cases
}

// parseBatchAlgorithms validates the --algorithms flag, defaulting to
// the configured single algorithm.
func parseBatchAlgorithms(names []string) ([]search.Algorithm, error) {
	if len(names) == 0 {
		alg, err := resolveAlgorithm("")
		if err != nil {
			return nil, err
		}
		return []search.Algorithm{alg}, nil
	}
	algorithms := make([]search.Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := search.ParseAlgorithm(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		algorithms = append(algorithms, alg)
	}
	return algorithms, nil
}

// parseBatchDimensions validates the --dimensions flag, defaulting to
// the configured single dimension.
func parseBatchDimensions(values []int) ([]lattice.Dimension, error) {
	if len(values) == 0 {
		dim, err := resolveDimension(0)
		if err != nil {
			return nil, err
		}
		return []lattice.Dimension{dim}, nil
	}
	dims := make([]lattice.Dimension, 0, len(values))
	for _, v := range values {
		dim := lattice.Dimension(v)
		if !dim.Valid() {
			return nil, fmt.Errorf("dimension must be 2 or 3, got %d", v)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// caseFileName builds a filesystem-safe name for a case's best fold.
// Long sequences are truncated with a hash suffix so distinct
// sequences cannot collide.
func caseFileName(bc batchCase) string {
	seq := bc.Sequence.String()
	if len(seq) > 24 {
		h := fnv.New32a()
		h.Write([]byte(seq))
		seq = fmt.Sprintf("%s-%08x", seq[:16], h.Sum32())
	}
	return fmt.Sprintf("%s_%s_%dd.csv", seq, bc.Algorithm, bc.Dimension)
}

// writeBatchSummaryCSV exports the per-case statistics table.
func writeBatchSummaryCSV(path string, cases []BatchCaseResult) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"sequence", "algorithm", "dimension", "runs", "failures",
		"best", "worst", "mean", "stddev", "total_ms", "best_file"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, c := range cases {
		row := []string{
			c.Sequence,
			c.Algorithm,
			strconv.Itoa(c.Dimension),
			strconv.Itoa(c.Runs),
			strconv.Itoa(c.Failures),
			strconv.Itoa(c.Best),
			strconv.Itoa(c.Worst),
			strconv.FormatFloat(c.Mean, 'f', 4, 64),
			strconv.FormatFloat(c.Stddev, 'f', 4, 64),
			strconv.FormatInt(c.TotalMs, 10),
			c.BestFile,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// printBatchResults renders the human-readable statistics table.
func printBatchResults(cases []BatchCaseResult) {
	ux.Title("Batch results")
	fmt.Printf("%-28s %-20s %3s %5s %5s %6s %6s %8s %8s\n",
		"SEQUENCE", "ALGORITHM", "DIM", "RUNS", "FAIL", "BEST", "WORST", "MEAN", "STDDEV")
	for _, c := range cases {
		seq := c.Sequence
		if len(seq) > 26 {
			seq = seq[:23] + "..."
		}
		fmt.Printf("%-28s %-20s %3d %5d %5d %6d %6d %8.2f %8.2f\n",
			seq, c.Algorithm, c.Dimension, c.Runs, c.Failures, c.Best, c.Worst, c.Mean, c.Stddev)
	}
}

// allCasesFailed reports whether not a single run in the whole grid
// produced a fold.
func allCasesFailed(cases []BatchCaseResult) bool {
	for _, c := range cases {
		if c.Runs > 0 {
			return false
		}
	}
	return true
}

// =============================================================================
// WATCH MODE
// =============================================================================

// watchSequences blocks, rerunning the batch whenever a sequence file
// under the input changes. Events are debounced so one editor save
// triggers one rerun.
func watchSequences(ctx context.Context, input string, rerun func(context.Context) error) error {
	info, err := os.Stat(input)
	if err != nil {
		return err
	}
	watchDir := input
	var onlyFile string
	if !info.IsDir() {
		watchDir = filepath.Dir(input)
		onlyFile = filepath.Clean(input)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(watchDir); err != nil {
		return err
	}

	slog.Info("watching for sequence changes", "dir", watchDir)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isSequenceFile(event.Name) {
				continue
			}
			if onlyFile != "" && filepath.Clean(event.Name) != onlyFile {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(batchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(batchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			slog.Info("sequence files changed, rerunning batch")
			if err := rerun(ctx); err != nil {
				slog.Error("batch rerun failed", "error", err)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", watchErr)
		}
	}
}
