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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/hpfold/pkg/ux"
	"github.com/AleutianAI/hpfold/pkg/validation"
	"github.com/AleutianAI/hpfold/services/foldengine/results"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	historyJSON   bool
	historyLimit  int
	historyOutput string
)

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false,
		"Output machine-readable JSON")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0,
		"Show only the most recent N runs (0 shows all)")

	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false,
		"Output machine-readable JSON")

	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "",
		"Write the CSV to this file instead of stdout")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runHistoryList prints the archive, oldest first.
func runHistoryList(cmd *cobra.Command, args []string) int {
	start := time.Now()
	out := OutputConfig{JSON: historyJSON}

	st, err := openHistoryStore()
	if err != nil {
		OutputError(out.JSON, "failed to open history store", err)
		return CLIExitError
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	recs, err := st.List(context.Background())
	if err != nil {
		OutputError(out.JSON, "failed to list runs", err)
		return CLIExitError
	}
	if historyLimit > 0 && len(recs) > historyLimit {
		recs = recs[len(recs)-historyLimit:]
	}

	payload := summarizeRuns(recs)
	if !out.JSON {
		printHistoryTable(payload)
	}
	return OutputResult(out, "history list", start, payload, false, nil)
}

// runHistoryShow renders one archived run with its rebuilt fold.
func runHistoryShow(cmd *cobra.Command, args []string) int {
	start := time.Now()
	out := OutputConfig{JSON: historyJSON}

	id, err := validation.SanitizeRunID(args[0])
	if err != nil {
		OutputError(out.JSON, "invalid run ID", err)
		return CLIExitError
	}

	st, err := openHistoryStore()
	if err != nil {
		OutputError(out.JSON, "failed to open history store", err)
		return CLIExitError
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	rec, err := st.Get(context.Background(), id)
	if err != nil {
		OutputError(out.JSON, "failed to load run", err)
		return CLIExitError
	}

	if out.JSON {
		return OutputResult(out, "history show", start, rec, false, nil)
	}

	f, err := rec.Fold()
	if err != nil {
		OutputError(false, "failed to rebuild fold", err)
		return CLIExitError
	}
	grid, err := ux.RenderFold(f)
	if err != nil {
		OutputError(false, "failed to render fold", err)
		return CLIExitError
	}
	ux.Title(fmt.Sprintf("Run %s", rec.ID))
	fmt.Print(grid)
	ux.Info(fmt.Sprintf("algorithm: %s", rec.Algorithm))
	ux.Info(fmt.Sprintf("dimension: %dD", rec.Dimension))
	ux.Info(fmt.Sprintf("elapsed:   %s", rec.Elapsed.Round(time.Millisecond)))
	ux.Info(fmt.Sprintf("created:   %s", rec.CreatedAt.Format(time.RFC3339)))
	return CLIExitSuccess
}

// runHistoryExport writes an archived run's fold CSV to --output or
// stdout.
func runHistoryExport(cmd *cobra.Command, args []string) int {
	id, err := validation.SanitizeRunID(args[0])
	if err != nil {
		OutputError(false, "invalid run ID", err)
		return CLIExitError
	}

	st, err := openHistoryStore()
	if err != nil {
		OutputError(false, "failed to open history store", err)
		return CLIExitError
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	rec, err := st.Get(context.Background(), id)
	if err != nil {
		OutputError(false, "failed to load run", err)
		return CLIExitError
	}
	f, err := rec.Fold()
	if err != nil {
		OutputError(false, "failed to rebuild fold", err)
		return CLIExitError
	}

	if historyOutput == "" {
		if err := results.WriteCSV(os.Stdout, f); err != nil {
			OutputError(false, "failed to write CSV", err)
			return CLIExitError
		}
		return CLIExitSuccess
	}
	if err := writeFoldCSV(historyOutput, f); err != nil {
		OutputError(false, "failed to write CSV", err)
		return CLIExitError
	}
	ux.Success(fmt.Sprintf("wrote %s", historyOutput))
	return CLIExitSuccess
}

// runHistoryDelete removes archived runs.
func runHistoryDelete(cmd *cobra.Command, args []string) int {
	// Reject the whole batch before deleting anything.
	if err := validation.ValidateRunIDs(args); err != nil {
		OutputError(false, "invalid run ID", err)
		return CLIExitError
	}

	st, err := openHistoryStore()
	if err != nil {
		OutputError(false, "failed to open history store", err)
		return CLIExitError
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	for _, arg := range args {
		id, _ := validation.SanitizeRunID(arg)
		if err := st.Delete(context.Background(), id); err != nil {
			OutputError(false, fmt.Sprintf("failed to delete %s", id), err)
			return CLIExitError
		}
		ux.Success(fmt.Sprintf("deleted %s", id))
	}
	return CLIExitSuccess
}

// =============================================================================
// HELPERS
// =============================================================================

// summarizeRuns converts records to the list payload.
func summarizeRuns(recs []results.RunRecord) HistoryListResult {
	runs := make([]HistoryRunSummary, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, HistoryRunSummary{
			ID:        rec.ID,
			Sequence:  rec.Sequence,
			Dimension: rec.Dimension,
			Algorithm: rec.Algorithm,
			Score:     rec.Score,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return HistoryListResult{Runs: runs, Count: len(runs)}
}

// printHistoryTable renders the list payload as a fixed-width table.
func printHistoryTable(list HistoryListResult) {
	if list.Count == 0 {
		ux.Muted("history is empty")
		return
	}
	fmt.Printf("%-36s %-20s %-20s %3s %6s  %s\n",
		"ID", "CREATED", "ALGORITHM", "DIM", "SCORE", "SEQUENCE")
	for _, r := range list.Runs {
		seq := r.Sequence
		if len(seq) > 32 {
			seq = seq[:29] + "..."
		}
		fmt.Printf("%-36s %-20s %-20s %3d %6d  %s\n",
			r.ID, r.CreatedAt, r.Algorithm, r.Dimension, r.Score, seq)
	}
}
