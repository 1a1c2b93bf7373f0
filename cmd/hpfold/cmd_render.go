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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/hpfold/pkg/ux"
	"github.com/AleutianAI/hpfold/pkg/validation"
	"github.com/AleutianAI/hpfold/services/foldengine/fold"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var renderFile string

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "",
		"Render a fold CSV instead of an archived run")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runRender draws one fold, loaded from a CSV file or the archive.
func runRender(cmd *cobra.Command, args []string) int {
	f, err := loadRenderTarget(args)
	if err != nil {
		OutputError(false, "failed to load fold", err)
		return CLIExitError
	}

	grid, err := ux.RenderFold(f)
	if err != nil {
		OutputError(false, "failed to render fold", err)
		return CLIExitError
	}
	fmt.Print(grid)
	return CLIExitSuccess
}

// loadRenderTarget resolves the render input: --file wins, otherwise
// the positional argument names an archived run.
func loadRenderTarget(args []string) (*fold.Fold, error) {
	if renderFile != "" {
		f, _, err := readFoldCSV(renderFile)
		return f, err
	}
	if len(args) == 0 {
		return nil, errors.New("pass a run ID or --file")
	}
	id, err := validation.SanitizeRunID(args[0])
	if err != nil {
		return nil, err
	}

	st, err := openHistoryStore()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Warn("failed to close history store", "error", closeErr)
		}
	}()

	rec, err := st.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return rec.Fold()
}
