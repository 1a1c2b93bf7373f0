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
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

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
	foldAlgorithm  string
	foldDimension  int
	foldIterations int
	foldRestarts   int
	foldSeed       uint64
	foldSeedFold   string
	foldTimeout    time.Duration

	// Local-search tunables; zero keeps each algorithm's default.
	foldStartTemp  float64
	foldCooling    float64
	foldMinSegment int
	foldMaxSegment int

	foldOutput string
	foldSave   bool
	foldJSON   bool
	foldQuiet  bool
)

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	foldCmd.Flags().StringVarP(&foldAlgorithm, "algorithm", "a", "",
		"Search algorithm: baseline, bfs_random, hillclimber, simulated_annealing, fress, spiral")
	foldCmd.Flags().IntVarP(&foldDimension, "dimension", "d", 0,
		"Lattice dimension: 2 or 3")
	foldCmd.Flags().IntVarP(&foldIterations, "iterations", "n", 0,
		"Iteration budget (0 uses the algorithm default)")
	foldCmd.Flags().IntVarP(&foldRestarts, "restarts", "r", 0,
		"Independent runs; the best fold wins")
	foldCmd.Flags().Uint64Var(&foldSeed, "seed", 0,
		"Random seed for reproducible runs (0 seeds from the clock)")
	foldCmd.Flags().StringVar(&foldSeedFold, "seed-fold", "",
		"Starting structure for local searches (spiral)")
	foldCmd.Flags().DurationVar(&foldTimeout, "timeout", 0,
		"Abort the search after this long (e.g. 30s)")

	foldCmd.Flags().Float64Var(&foldStartTemp, "start-temp", 0,
		"Annealing start temperature")
	foldCmd.Flags().Float64Var(&foldCooling, "cooling-rate", 0,
		"Annealing per-iteration cooling rate")
	foldCmd.Flags().IntVar(&foldMinSegment, "min-segment", 0,
		"Minimum regrown segment length")
	foldCmd.Flags().IntVar(&foldMaxSegment, "max-segment", 0,
		"Maximum regrown segment length")

	foldCmd.Flags().StringVarP(&foldOutput, "output", "o", "",
		"Write the best fold to this CSV file")
	foldCmd.Flags().BoolVar(&foldSave, "save", false,
		"Archive the run in history")
	foldCmd.Flags().BoolVar(&foldJSON, "json", false,
		"Output machine-readable JSON")
	foldCmd.Flags().BoolVarP(&foldQuiet, "quiet", "q", false,
		"Suppress output; the exit code carries the verdict")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runFold executes the fold command. Exit codes: 0 success, 1 search
// exhausted without a valid fold, 2 error.
func runFold(cmd *cobra.Command, args []string) int {
	start := time.Now()
	out := OutputConfig{JSON: foldJSON, Quiet: foldQuiet}

	protein, err := fold.ParseSequence(args[0])
	if err != nil {
		OutputError(out.JSON, "invalid sequence", err)
		return CLIExitError
	}
	algorithm, err := resolveAlgorithm(foldAlgorithm)
	if err != nil {
		OutputError(out.JSON, "invalid algorithm", err)
		return CLIExitError
	}
	dim, err := resolveDimension(foldDimension)
	if err != nil {
		OutputError(out.JSON, "invalid dimension", err)
		return CLIExitError
	}
	opts, err := foldOptions(protein, dim)
	if err != nil {
		OutputError(out.JSON, "invalid options", err)
		return CLIExitError
	}

	ctx := context.Background()
	if foldTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, foldTimeout)
		defer cancel()
	}

	tel, err := setupTelemetry(ctx, false)
	if err != nil {
		OutputError(out.JSON, "telemetry setup failed", err)
		return CLIExitError
	}
	defer tel.Shutdown(context.Background())

	restarts := resolveRestarts(foldRestarts)
	budget := resolveBudget(foldIterations)

	var spin *ux.Spinner
	if !foldJSON && !foldQuiet {
		spin = ux.NewSpinner(fmt.Sprintf("folding %s with %s in %s",
			protein, algorithm, dim))
		spin.Start()
	}

	res, err := search.RunBest(ctx, protein, dim, algorithm, budget, restarts, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		if errors.Is(err, search.ErrUnfoldable) {
			OutputError(out.JSON, "no valid fold found", err)
			return CLIExitUnfoldable
		}
		OutputError(out.JSON, "search failed", err)
		return CLIExitError
	}

	payload := FoldRunResult{
		Sequence:   protein.String(),
		Dimension:  int(dim),
		Algorithm:  res.Algorithm.String(),
		Score:      res.Score,
		Directions: results.Directions(res.Fold),
		Iterations: res.Iterations,
		Restarts:   restarts,
		ElapsedMs:  res.Elapsed.Milliseconds(),
	}

	if foldOutput != "" {
		if err := writeFoldCSV(foldOutput, res.Fold); err != nil {
			OutputError(out.JSON, "failed to write fold CSV", err)
			return CLIExitError
		}
		payload.OutputFile = foldOutput
	}
	if foldSave {
		// Archival uses a fresh context: a search timeout should not
		// also discard the result it produced.
		id, err := saveRun(context.Background(), res)
		if err != nil {
			OutputError(out.JSON, "failed to archive run", err)
			return CLIExitError
		}
		payload.RunID = id
	}

	if !out.JSON && !out.Quiet {
		printFoldResult(payload, res)
	}
	return OutputResult(out, "fold", start, payload, false, nil)
}

// printFoldResult renders the human-readable report: the lattice grid
// followed by run metadata.
func printFoldResult(payload FoldRunResult, res *search.Result) {
	grid, err := ux.RenderFold(res.Fold)
	if err == nil {
		fmt.Print(grid)
	}
	ux.Info(fmt.Sprintf("algorithm:  %s", payload.Algorithm))
	ux.Info(fmt.Sprintf("iterations: %d", payload.Iterations))
	ux.Info(fmt.Sprintf("elapsed:    %s", res.Elapsed.Round(time.Millisecond)))
	if payload.OutputFile != "" {
		ux.Success(fmt.Sprintf("wrote %s", payload.OutputFile))
	}
	if payload.RunID != "" {
		ux.Success(fmt.Sprintf("archived as %s", payload.RunID))
	}
}

// foldOptions assembles engine options from the tunable flags.
func foldOptions(protein fold.Protein, dim lattice.Dimension) (*search.Options, error) {
	opts := &search.Options{
		Hillclimber: search.HillclimberConfig{
			MinSegment: foldMinSegment,
			MaxSegment: foldMaxSegment,
		},
		Annealing: search.AnnealingConfig{
			StartTemperature: foldStartTemp,
			CoolingRate:      foldCooling,
			MinSegment:       foldMinSegment,
			MaxSegment:       foldMaxSegment,
		},
	}
	if foldSeed != 0 {
		opts.RNG = rand.New(rand.NewPCG(foldSeed, foldSeed))
	}
	switch foldSeedFold {
	case "":
	case "spiral":
		seed, err := search.SpiralFold(protein, dim)
		if err != nil {
			return nil, err
		}
		opts.SeedFold = seed
	default:
		return nil, fmt.Errorf("unknown seed fold %q (supported: spiral)", foldSeedFold)
	}
	return opts, nil
}
