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
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/hpfold/cmd/hpfold/config"
	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/results"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
	"github.com/AleutianAI/hpfold/services/foldengine/store"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	serveAddr    string
	serveTimeout time.Duration
)

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

var serveValidate *validator.Validate

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (default from config, 127.0.0.1:8780)")
	serveCmd.Flags().DurationVar(&serveTimeout, "request-timeout", 0,
		"Per-request search deadline (default from config)")

	serveValidate = validator.New()
	if err := serveValidate.RegisterValidation("hpsequence", validateHPSequence); err != nil {
		panic("failed to register hpsequence validator: " + err.Error())
	}
}

// validateHPSequence accepts only H, P and C monomer codes, in either
// case.
func validateHPSequence(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch r {
		case 'H', 'P', 'C', 'h', 'p', 'c':
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// foldRequest is the POST /v1/fold body. Zero-valued optional fields
// fall back to the server's configured defaults.
type foldRequest struct {
	// Sequence is the protein to fold, e.g. "HPPHHPHPPH".
	Sequence string `json:"sequence" validate:"required,min=1,max=4096,hpsequence"`

	// Dimension selects the lattice: 2 or 3. Zero uses the default.
	Dimension int `json:"dimension" validate:"omitempty,oneof=2 3"`

	// Algorithm names the search strategy. Empty uses the default.
	Algorithm string `json:"algorithm" validate:"omitempty,oneof=baseline bfs_random hillclimber simulated_annealing fress spiral"`

	// Iterations caps the per-run budget. Zero keeps the algorithm
	// default; the upper bound keeps one request from monopolizing the
	// server.
	Iterations int `json:"iterations" validate:"gte=0,lte=10000000"`

	// Restarts is the number of independent runs; the best wins.
	Restarts int `json:"restarts" validate:"gte=0,lte=64"`

	// Seed makes the search reproducible when nonzero.
	Seed uint64 `json:"seed"`

	// Save archives the run in the server's history store.
	Save bool `json:"save"`
}

// Validate checks the request against its constraint tags.
func (r *foldRequest) Validate() error {
	return serveValidate.Struct(r)
}

// foldResponse is the POST /v1/fold success body.
type foldResponse struct {
	RunID      string `json:"run_id,omitempty"`
	Sequence   string `json:"sequence"`
	Dimension  int    `json:"dimension"`
	Algorithm  string `json:"algorithm"`
	Score      int    `json:"score"`
	Directions []int  `json:"directions"`
	Iterations int    `json:"iterations"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runServe starts the fold HTTP service and blocks until SIGINT or
// SIGTERM, then drains in-flight requests.
func runServe(cmd *cobra.Command, args []string) int {
	addr := serveAddr
	if addr == "" {
		addr = config.Global.Server.Addr
	}
	timeout := serveTimeout
	if timeout == 0 {
		timeout = time.Duration(config.Global.Server.RequestTimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := setupTelemetry(ctx, true)
	if err != nil {
		OutputError(false, "telemetry setup failed", err)
		return CLIExitError
	}
	defer tel.Shutdown(context.Background())

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

	router := buildRouter(st, timeout, tel.metricsHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("fold service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			OutputError(false, "server failed", err)
			return CLIExitError
		}
	case <-ctx.Done():
		slog.Info("shutting down fold service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			OutputError(false, "shutdown failed", err)
			return CLIExitError
		}
	}
	return CLIExitSuccess
}

// buildRouter assembles the gin engine with tracing middleware and all
// routes. metrics may be nil when no Prometheus registry exists.
func buildRouter(st *store.Store, timeout time.Duration, metrics http.Handler) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("hpfold"))

	router.GET("/healthz", handleHealthz)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/fold", handleFold(st, timeout))
		v1.GET("/algorithms", handleAlgorithms)
	}
	return router
}

// handleHealthz reports liveness.
func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAlgorithms lists the selectable algorithms.
func handleAlgorithms(c *gin.Context) {
	algorithms := search.Algorithms()
	names := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		names = append(names, a.String())
	}
	c.JSON(http.StatusOK, gin.H{"algorithms": names})
}

// handleFold runs one search per request under the configured
// deadline.
//
// Status codes: 400 malformed or invalid request, 422 the search
// exhausted its budget without a valid fold, 504 deadline exceeded,
// 500 anything else.
func handleFold(st *store.Store, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req foldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		protein, err := fold.ParseSequence(req.Sequence)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		algorithm, err := resolveAlgorithm(req.Algorithm)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dim, err := resolveDimension(req.Dimension)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts := &search.Options{}
		if req.Seed != 0 {
			opts.RNG = rand.New(rand.NewPCG(req.Seed, req.Seed))
		}
		restarts := resolveRestarts(req.Restarts)
		budget := resolveBudget(req.Iterations)

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		slog.Info("fold request",
			"sequence_len", protein.Len(),
			"algorithm", algorithm,
			"dimension", dim,
			"restarts", restarts)

		res, err := search.RunBest(ctx, protein, dim, algorithm, budget, restarts, opts)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				c.JSON(http.StatusGatewayTimeout, gin.H{"error": "search timed out"})
			case errors.Is(err, search.ErrUnfoldable):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no valid fold found"})
			default:
				slog.Error("fold request failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			}
			return
		}

		resp := foldResponse{
			Sequence:   protein.String(),
			Dimension:  int(dim),
			Algorithm:  res.Algorithm.String(),
			Score:      res.Score,
			Directions: results.Directions(res.Fold),
			Iterations: res.Iterations,
			ElapsedMs:  res.Elapsed.Milliseconds(),
		}
		if req.Save {
			rec := results.NewRunRecord(res)
			if err := st.Put(c.Request.Context(), rec); err != nil {
				slog.Error("failed to archive run", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive run"})
				return
			}
			resp.RunID = rec.ID
		}
		c.JSON(http.StatusOK, resp)
	}
}
