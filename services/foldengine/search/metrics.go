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

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for search operations.
var (
	tracer = otel.Tracer("hpfold.search")
	meter  = otel.Meter("hpfold.search")
)

// Metrics for search operations.
var (
	// Run metrics
	runsTotal   metric.Int64Counter
	runDuration metric.Float64Histogram
	finalScore  metric.Int64Histogram

	// Proposal metrics (hillclimber, annealing, FRESS)
	proposalsTotal metric.Int64Counter

	// Walk metrics (baseline)
	backtracksTotal metric.Int64Counter

	// Window metrics (BFS)
	windowsTotal         metric.Int64Counter
	branchesPrunedTotal  metric.Int64Counter
	branchesRetainedHist metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		// Run metrics
		runsTotal, err = meter.Int64Counter(
			"hpfold_runs_total",
			metric.WithDescription("Total search runs by algorithm and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runDuration, err = meter.Float64Histogram(
			"hpfold_run_duration_seconds",
			metric.WithDescription("Search run duration by algorithm"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		finalScore, err = meter.Int64Histogram(
			"hpfold_final_score",
			metric.WithDescription("Final fold score by algorithm (lower is more stable)"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Proposal metrics
		proposalsTotal, err = meter.Int64Counter(
			"hpfold_proposals_total",
			metric.WithDescription("Segment proposals by algorithm and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Walk metrics
		backtracksTotal, err = meter.Int64Counter(
			"hpfold_backtracks_total",
			metric.WithDescription("Dead-end recoveries in random walks"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Window metrics
		windowsTotal, err = meter.Int64Counter(
			"hpfold_windows_total",
			metric.WithDescription("Committed BFS depth windows"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		branchesPrunedTotal, err = meter.Int64Counter(
			"hpfold_branches_pruned_total",
			metric.WithDescription("BFS branches dropped as rotation/mirror duplicates"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		branchesRetainedHist, err = meter.Int64Histogram(
			"hpfold_branches_retained",
			metric.WithDescription("Branches surviving symmetry pruning per window"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// RecordRun records completion metrics for a search run.
//
// Inputs:
//   - ctx: Context for metric recording.
//   - algorithm: Algorithm that ran.
//   - score: Final score (ignored unless success).
//   - duration: Wall time of the run.
//   - success: Whether a complete fold was produced.
//
// Thread Safety: Safe for concurrent use.
func RecordRun(ctx context.Context, algorithm Algorithm, score int, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}

	attrs := metric.WithAttributes(
		attribute.String("algorithm", string(algorithm)),
		attribute.String("outcome", outcome),
	)

	runsTotal.Add(ctx, 1, attrs)
	runDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("algorithm", string(algorithm))))
	if success {
		finalScore.Record(ctx, int64(score),
			metric.WithAttributes(attribute.String("algorithm", string(algorithm))))
	}
}

// RecordProposal records a segment proposal and its fate.
//
// Thread Safety: Safe for concurrent use.
func RecordProposal(ctx context.Context, algorithm Algorithm, accepted bool) {
	if err := initMetrics(); err != nil {
		return
	}

	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	proposalsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", string(algorithm)),
		attribute.String("outcome", outcome),
	))
}

// RecordBacktracks records dead-end recoveries from a random walk.
//
// Thread Safety: Safe for concurrent use.
func RecordBacktracks(ctx context.Context, count int) {
	if err := initMetrics(); err != nil {
		return
	}
	if count > 0 {
		backtracksTotal.Add(ctx, int64(count))
	}
}

// RecordWindow records one committed BFS depth window.
//
// Inputs:
//   - ctx: Context for metric recording.
//   - retained: Branches that survived symmetry pruning.
//   - pruned: Branches dropped as symmetric duplicates.
//
// Thread Safety: Safe for concurrent use.
func RecordWindow(ctx context.Context, retained, pruned int) {
	if err := initMetrics(); err != nil {
		return
	}
	windowsTotal.Add(ctx, 1)
	branchesRetainedHist.Record(ctx, int64(retained))
	if pruned > 0 {
		branchesPrunedTotal.Add(ctx, int64(pruned))
	}
}

// StartRunSpan creates a span for a search run.
//
// Inputs:
//   - ctx: Parent context.
//   - algorithm: Algorithm about to run.
//   - sequence: Protein letter sequence.
//   - dimension: 2 or 3.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span.
//
// Thread Safety: Safe for concurrent use.
func StartRunSpan(ctx context.Context, algorithm Algorithm, sequence string, dimension int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "search.run",
		trace.WithAttributes(
			attribute.String("fold.algorithm", string(algorithm)),
			attribute.String("fold.sequence", truncateForAttribute(sequence, 120)),
			attribute.Int("fold.sequence_length", len(sequence)),
			attribute.Int("fold.dimension", dimension),
		),
	)
}

// SetRunSpanResult sets result attributes on a run span.
//
// Thread Safety: Safe for concurrent use.
func SetRunSpanResult(span trace.Span, success bool, score, iterations int) {
	span.SetAttributes(
		attribute.Bool("fold.success", success),
		attribute.Int("fold.score", score),
		attribute.Int("fold.iterations", iterations),
	)
}

// truncateForAttribute truncates a string for use in span attributes.
func truncateForAttribute(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
