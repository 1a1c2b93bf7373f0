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
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess    = 0 // Operation completed successfully
	CLIExitUnfoldable = 1 // Search completed but found no valid fold
	CLIExitError      = 2 // Operation failed
)

// OutputConfig controls output behavior.
type OutputConfig struct {
	JSON    bool // Output as JSON
	Compact bool // No indentation
	Quiet   bool // No output, exit code only
}

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OutputJSON writes structured data as JSON to stdout.
func OutputJSON(data interface{}, compact bool) error {
	encoder := json.NewEncoder(os.Stdout)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
//
// # Inputs
//
//   - jsonMode: If true, output as JSON to stdout.
//   - msg: Human-readable error message.
//   - err: The underlying error.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// OutputResult handles JSON output and exit-code selection.
//
// # Inputs
//
//   - cfg: Output configuration.
//   - cmd: Command name for metadata.
//   - start: Start time for duration calculation.
//   - data: The data to output in JSON mode.
//   - unfoldable: Whether the search ended without a valid fold.
//   - err: Any error that occurred.
//
// # Outputs
//
//   - int: The exit code to use.
func OutputResult(cfg OutputConfig, cmd string, start time.Time, data interface{}, unfoldable bool, err error) int {
	if cfg.Quiet {
		if err != nil {
			return CLIExitError
		}
		if unfoldable {
			return CLIExitUnfoldable
		}
		return CLIExitSuccess
	}

	if err != nil {
		OutputError(cfg.JSON, "Command failed", err)
		return CLIExitError
	}

	if cfg.JSON {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    cmd,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			Data:       data,
		}
		if encErr := OutputJSON(result, cfg.Compact); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return CLIExitError
		}
	}

	if unfoldable {
		return CLIExitUnfoldable
	}
	return CLIExitSuccess
}

// FoldRunResult holds fold command output.
type FoldRunResult struct {
	Sequence   string `json:"sequence"`
	Dimension  int    `json:"dimension"`
	Algorithm  string `json:"algorithm"`
	Score      int    `json:"score"`
	Directions []int  `json:"directions"`
	Iterations int    `json:"iterations"`
	Restarts   int    `json:"restarts"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	RunID      string `json:"run_id,omitempty"`
	OutputFile string `json:"output_file,omitempty"`
}

// BatchCaseResult holds one experiment case in batch output.
type BatchCaseResult struct {
	Sequence   string  `json:"sequence"`
	Algorithm  string  `json:"algorithm"`
	Dimension  int     `json:"dimension"`
	Runs       int     `json:"runs"`
	Failures   int     `json:"failures,omitempty"`
	Best       int     `json:"best"`
	Worst      int     `json:"worst"`
	Mean       float64 `json:"mean"`
	Stddev     float64 `json:"stddev"`
	TotalMs    int64   `json:"total_ms"`
	BestFile   string  `json:"best_file,omitempty"`
	Directions []int   `json:"directions,omitempty"`
}

// BatchResult holds batch command output.
type BatchResult struct {
	Cases       []BatchCaseResult `json:"cases"`
	SummaryFile string            `json:"summary_file,omitempty"`
}

// HistoryListResult holds history list output.
type HistoryListResult struct {
	Runs  []HistoryRunSummary `json:"runs"`
	Count int                 `json:"count"`
}

// HistoryRunSummary represents a run in list output.
type HistoryRunSummary struct {
	ID        string `json:"id"`
	Sequence  string `json:"sequence"`
	Dimension int    `json:"dimension"`
	Algorithm string `json:"algorithm"`
	Score     int    `json:"score"`
	CreatedAt string `json:"created_at"`
}
