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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/hpfold/cmd/hpfold/config"
	"github.com/AleutianAI/hpfold/pkg/logging"
)

// --- Global Command Variables ---
var (
	cfgPath         string
	logLevel        string
	logFormat       string
	metricsAddr     string
	telemetryStdout bool

	appLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "hpfold",
		Short: "Search for low-energy protein folds on 2D and 3D lattices",
		Long: `hpfold folds HP model protein sequences (H hydrophobic, P polar,
C cysteine) into self-avoiding walks on square and cubic lattices,
searching for the minimum-energy conformation. Adjacent non-sequential
H-H and C-H contacts score -1, disulfide C-C contacts score -5.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgPath != "" {
				config.SetPath(cfgPath)
			}
			if err := config.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
				os.Exit(CLIExitError)
			}
			initLogger()
		},
	}

	// --- Fold ---
	foldCmd = &cobra.Command{
		Use:   "fold SEQUENCE",
		Short: "Fold one sequence and report the best structure found",
		Long: `Run a single search on one sequence.

Examples:
  hpfold fold HPPHHPHPPH
  hpfold fold HPPHHPHPPH --algorithm fress --dimension 3
  hpfold fold HPPHHPHPPH --algorithm hillclimber --seed-fold spiral
  hpfold fold HPPHHPHPPH --restarts 8 --seed 42 --json`,
		Args: cobra.ExactArgs(1),
		Run:  runAndExit(runFold), // Defined in cmd_fold.go
	}

	// --- Batch ---
	batchCmd = &cobra.Command{
		Use:   "batch DIR|FILE",
		Short: "Run an experiment grid over sequence files",
		Long: `Fold every sequence in the input (a sequence file, or a directory
of .txt/.seq files, one sequence per line, # comments) across the
requested algorithms and dimensions with repeats, and report per-case
statistics.

Examples:
  hpfold batch sequences/ --algorithms simulated_annealing,fress --repeats 5
  hpfold batch bench.txt --dimensions 2,3 --workers 8 --out results/
  hpfold batch sequences/ --watch`,
		Args: cobra.ExactArgs(1),
		Run:  runAndExit(runBatch), // Defined in cmd_batch.go
	}

	// --- Serve ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the fold search as an HTTP API",
		Long: `Start an HTTP server exposing POST /v1/fold, GET /v1/algorithms,
GET /healthz and GET /metrics. Shuts down gracefully on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		Run:  runAndExit(runServe), // Defined in cmd_serve.go
	}

	// --- History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect the archive of saved runs",
	}
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List archived runs, oldest first",
		Args:  cobra.NoArgs,
		Run:   runAndExit(runHistoryList), // Defined in cmd_history.go
	}
	historyShowCmd = &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one archived run with its fold",
		Args:  cobra.ExactArgs(1),
		Run:   runAndExit(runHistoryShow), // Defined in cmd_history.go
	}
	historyExportCmd = &cobra.Command{
		Use:   "export RUN_ID",
		Short: "Export an archived run as a fold CSV",
		Args:  cobra.ExactArgs(1),
		Run:   runAndExit(runHistoryExport), // Defined in cmd_history.go
	}
	historyDeleteCmd = &cobra.Command{
		Use:   "delete RUN_ID [RUN_ID...]",
		Short: "Delete archived runs",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAndExit(runHistoryDelete), // Defined in cmd_history.go
	}

	// --- Render ---
	renderCmd = &cobra.Command{
		Use:   "render [RUN_ID]",
		Short: "Draw a fold as a colored lattice grid",
		Long: `Render an archived run, or a fold CSV via --file, as a terminal
grid with backbone connectors and scoring contacts.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runAndExit(runRender), // Defined in cmd_render.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Config file path (default ~/.hpfold/config.yaml, or HPFOLD_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().BoolVar(&telemetryStdout, "telemetry-stdout", false,
		"Dump traces and metrics to stdout")

	rootCmd.AddCommand(foldCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(renderCmd)
}

// initLogger builds the CLI logger from the flags and config, and
// routes the slog default through it.
func initLogger() {
	level := config.Global.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	format := config.Global.Logging.Format
	if logFormat != "" {
		format = logFormat
	}

	appLogger = logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  config.Global.Logging.Dir,
		Service: "hpfold",
		JSON:    format == "json",
	})
	slog.SetDefault(appLogger.Slog())
}

// runAndExit adapts an exit-code returning command body to cobra. The
// body runs to completion before the process exits, so its defers
// (telemetry flush, store close) still fire on failure paths.
func runAndExit(fn func(cmd *cobra.Command, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		code := fn(cmd, args)
		if appLogger != nil {
			_ = appLogger.Close()
		}
		if code != CLIExitSuccess {
			os.Exit(code)
		}
	}
}
