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

	"github.com/AleutianAI/hpfold/cmd/hpfold/config"
	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/results"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
	"github.com/AleutianAI/hpfold/services/foldengine/store"
)

// =============================================================================
// FLAG / CONFIG RESOLUTION
// =============================================================================
// Commands resolve each knob the same way: an explicit flag wins, the
// config file default is next, and a hardcoded fallback covers a blank
// config (tests run with config.Global zeroed).

// resolveAlgorithm picks the flag value or the configured default.
func resolveAlgorithm(flagValue string) (search.Algorithm, error) {
	s := flagValue
	if s == "" {
		s = config.Global.Defaults.Algorithm
	}
	if s == "" {
		s = string(search.AlgorithmAnnealing)
	}
	return search.ParseAlgorithm(s)
}

// resolveDimension picks the flag value or the configured default.
func resolveDimension(flagValue int) (lattice.Dimension, error) {
	d := flagValue
	if d == 0 {
		d = config.Global.Defaults.Dimension
	}
	if d == 0 {
		d = int(lattice.Dim2)
	}
	dim := lattice.Dimension(d)
	if !dim.Valid() {
		return 0, fmt.Errorf("dimension must be 2 or 3, got %d", d)
	}
	return dim, nil
}

// resolveRestarts picks the flag value or the configured default,
// never below one run.
func resolveRestarts(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if config.Global.Defaults.Restarts > 0 {
		return config.Global.Defaults.Restarts
	}
	return 1
}

// resolveBudget picks the flag value or the configured default. Zero
// means "use each algorithm's documented default".
func resolveBudget(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return config.Global.Defaults.Iterations
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// openHistoryStore opens the run archive at the configured location.
// Callers own the returned store and must Close it.
func openHistoryStore() (*store.Store, error) {
	cfg := store.DefaultConfig()
	cfg.Path = config.Global.History.Dir
	cfg.Logger = slog.Default()
	if cfg.Path == "" {
		return nil, fmt.Errorf("history directory is not configured")
	}
	return store.Open(cfg)
}

// saveRun archives a finished run and returns the new record's ID.
func saveRun(ctx context.Context, res *search.Result) (string, error) {
	st, err := openHistoryStore()
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	rec := results.NewRunRecord(res)
	if err := st.Put(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// =============================================================================
// FOLD CSV I/O
// =============================================================================

// writeFoldCSV writes one fold to a CSV file, creating or truncating
// the target.
func writeFoldCSV(path string, f *fold.Fold) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return results.WriteCSV(file, f)
}

// readFoldCSV loads a fold and its score from a CSV file.
func readFoldCSV(path string) (*fold.Fold, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return results.ReadCSV(file)
}
