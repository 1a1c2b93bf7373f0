// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements the heuristic folding algorithms: a
// random-backtracking baseline, a windowed breadth-first search with
// symmetry pruning, a hillclimber and a simulated annealer over shared
// segment-regrowth proposals, FRESS-style weakest-segment refinement,
// and a deterministic spiral used for seeding.
//
// All algorithms are sequential searches over private fold state.
// Multi-start variants fan out one goroutine per restart; nothing
// mutable crosses goroutines. Randomness always comes from an
// injected *rand.Rand so runs reproduce under a fixed seed.
package search

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// -----------------------------------------------------------------------------
// Algorithm Names
// -----------------------------------------------------------------------------

// Algorithm identifies one of the folding strategies.
type Algorithm string

const (
	// AlgorithmBaseline is the random self-avoiding walk with
	// backtracking.
	AlgorithmBaseline Algorithm = "baseline"

	// AlgorithmBFS is the windowed breadth-first search with symmetry
	// pruning and multi-start restarts.
	AlgorithmBFS Algorithm = "bfs_random"

	// AlgorithmHillclimber is segment-regrowth local search accepting
	// strict improvements only.
	AlgorithmHillclimber Algorithm = "hillclimber"

	// AlgorithmAnnealing is segment-regrowth search with a
	// temperature-based acceptance rule.
	AlgorithmAnnealing Algorithm = "simulated_annealing"

	// AlgorithmFress is energy-guided weakest-segment refinement.
	AlgorithmFress Algorithm = "fress"

	// AlgorithmSpiral is the deterministic rectangular spiral. Always
	// succeeds; used for seeding and as a reproducible fixture.
	AlgorithmSpiral Algorithm = "spiral"
)

// Algorithms returns every selectable algorithm, in presentation order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmBaseline,
		AlgorithmBFS,
		AlgorithmHillclimber,
		AlgorithmAnnealing,
		AlgorithmFress,
		AlgorithmSpiral,
	}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmBaseline, AlgorithmBFS, AlgorithmHillclimber,
		AlgorithmAnnealing, AlgorithmFress, AlgorithmSpiral:
		return true
	}
	return false
}

// String returns the wire name.
func (a Algorithm) String() string { return string(a) }

// ParseAlgorithm maps a name (plus a few common aliases) to its
// Algorithm, failing with ErrUnknownAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "baseline", "random":
		return AlgorithmBaseline, nil
	case "bfs_random", "bfs":
		return AlgorithmBFS, nil
	case "hillclimber", "hillclimb":
		return AlgorithmHillclimber, nil
	case "simulated_annealing", "annealing":
		return AlgorithmAnnealing, nil
	case "fress":
		return AlgorithmFress, nil
	case "spiral":
		return AlgorithmSpiral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// -----------------------------------------------------------------------------
// Run Result
// -----------------------------------------------------------------------------

// Result is what a search run hands back to the driver.
//
// Thread Safety: Immutable after creation.
type Result struct {
	// Algorithm that produced the fold.
	Algorithm Algorithm

	// Fold is the best complete fold found. Never nil on success.
	Fold *fold.Fold

	// Score is Fold's energy (more negative is more stable).
	Score int

	// Iterations actually executed. Meaning is per-algorithm:
	// proposals for the local searches, committed windows for BFS,
	// extension attempts for the baseline.
	Iterations int

	// Elapsed is wall time for the run.
	Elapsed time.Duration
}

// -----------------------------------------------------------------------------
// Algorithm Tunables
// -----------------------------------------------------------------------------

// RandomConfig tunes the baseline generator.
type RandomConfig struct {
	// MaxBacktracks bounds dead-end recoveries before the walk gives
	// up with ErrUnfoldable.
	MaxBacktracks int
}

// DefaultRandomConfig returns the documented baseline defaults.
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{MaxBacktracks: 5000}
}

// Validate checks the config, substituting defaults for zero values.
func (c *RandomConfig) Validate() error {
	if c.MaxBacktracks == 0 {
		c.MaxBacktracks = DefaultRandomConfig().MaxBacktracks
	}
	if c.MaxBacktracks < 0 {
		return fmt.Errorf("%w: MaxBacktracks %d", ErrInvalidConfig, c.MaxBacktracks)
	}
	return nil
}

// BFSConfig tunes the windowed breadth-first search.
type BFSConfig struct {
	// MaxDepth is the window depth. Zero selects the per-dimension
	// default: 6 in 2D, 4 in 3D.
	MaxDepth int

	// Restarts is the number of independent multi-start repetitions.
	Restarts int
}

// DefaultBFSConfig returns the documented BFS defaults. MaxDepth stays
// zero so the dimension default applies at run time.
func DefaultBFSConfig() BFSConfig {
	return BFSConfig{Restarts: 3}
}

// DepthFor resolves the effective window depth for a dimension.
func (c BFSConfig) DepthFor(dim lattice.Dimension) int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	if dim == lattice.Dim3 {
		return 4
	}
	return 6
}

// Validate checks the config, substituting defaults for zero values.
func (c *BFSConfig) Validate() error {
	if c.Restarts == 0 {
		c.Restarts = DefaultBFSConfig().Restarts
	}
	if c.Restarts < 0 || c.MaxDepth < 0 {
		return fmt.Errorf("%w: Restarts %d, MaxDepth %d", ErrInvalidConfig, c.Restarts, c.MaxDepth)
	}
	return nil
}

// HillclimberConfig tunes the strict-improvement local search.
type HillclimberConfig struct {
	// Iterations is the number of segment proposals.
	Iterations int

	// MinSegment and MaxSegment bound the regrown segment length.
	// MaxSegment additionally clamps to the protein length.
	MinSegment int
	MaxSegment int
}

// DefaultHillclimberConfig returns the documented hillclimber defaults.
func DefaultHillclimberConfig() HillclimberConfig {
	return HillclimberConfig{Iterations: 100, MinSegment: 3, MaxSegment: 10}
}

// Validate checks the config, substituting defaults for zero values.
func (c *HillclimberConfig) Validate() error {
	def := DefaultHillclimberConfig()
	if c.Iterations == 0 {
		c.Iterations = def.Iterations
	}
	if c.MinSegment == 0 {
		c.MinSegment = def.MinSegment
	}
	if c.MaxSegment == 0 {
		c.MaxSegment = def.MaxSegment
	}
	if c.Iterations < 0 || c.MinSegment < 2 || c.MaxSegment < c.MinSegment {
		return fmt.Errorf("%w: Iterations %d, segment bounds [%d,%d]",
			ErrInvalidConfig, c.Iterations, c.MinSegment, c.MaxSegment)
	}
	return nil
}

// AnnealingConfig tunes simulated annealing.
type AnnealingConfig struct {
	// Iterations is the number of segment proposals.
	Iterations int

	// StartTemperature is the initial T of the cooling schedule.
	StartTemperature float64

	// CoolingRate is the per-iteration multiplicative decay:
	// T *= 1 - CoolingRate.
	CoolingRate float64

	// MinSegment and MaxSegment bound the regrown segment length.
	MinSegment int
	MaxSegment int
}

// DefaultAnnealingConfig returns the documented annealing defaults.
func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{
		Iterations:       5000,
		StartTemperature: 10.0,
		CoolingRate:      0.0025,
		MinSegment:       3,
		MaxSegment:       10,
	}
}

// Validate checks the config, substituting defaults for zero values.
func (c *AnnealingConfig) Validate() error {
	def := DefaultAnnealingConfig()
	if c.Iterations == 0 {
		c.Iterations = def.Iterations
	}
	if c.StartTemperature == 0 {
		c.StartTemperature = def.StartTemperature
	}
	if c.CoolingRate == 0 {
		c.CoolingRate = def.CoolingRate
	}
	if c.MinSegment == 0 {
		c.MinSegment = def.MinSegment
	}
	if c.MaxSegment == 0 {
		c.MaxSegment = def.MaxSegment
	}
	if c.Iterations < 0 || c.StartTemperature <= 0 ||
		c.CoolingRate <= 0 || c.CoolingRate >= 1 ||
		c.MinSegment < 2 || c.MaxSegment < c.MinSegment {
		return fmt.Errorf("%w: Iterations %d, T0 %g, rate %g, segment bounds [%d,%d]",
			ErrInvalidConfig, c.Iterations, c.StartTemperature, c.CoolingRate,
			c.MinSegment, c.MaxSegment)
	}
	return nil
}

// FressConfig tunes the weakest-segment refinement.
type FressConfig struct {
	// SeedAttempts bounds how many baseline folds are sampled for the
	// starting structure; sampling stops early at the first fold with
	// a negative score.
	SeedAttempts int

	// MaxRounds caps improvement rounds.
	MaxRounds int

	// AttemptsPerResidue scales regrowth effort: each round tries
	// AttemptsPerResidue * len(protein) random re-placements of the
	// chosen segment.
	AttemptsPerResidue int
}

// DefaultFressConfig returns the documented FRESS defaults.
func DefaultFressConfig() FressConfig {
	return FressConfig{SeedAttempts: 50, MaxRounds: 30, AttemptsPerResidue: 20}
}

// Validate checks the config, substituting defaults for zero values.
func (c *FressConfig) Validate() error {
	def := DefaultFressConfig()
	if c.SeedAttempts == 0 {
		c.SeedAttempts = def.SeedAttempts
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = def.MaxRounds
	}
	if c.AttemptsPerResidue == 0 {
		c.AttemptsPerResidue = def.AttemptsPerResidue
	}
	if c.SeedAttempts < 1 || c.MaxRounds < 1 || c.AttemptsPerResidue < 1 {
		return fmt.Errorf("%w: SeedAttempts %d, MaxRounds %d, AttemptsPerResidue %d",
			ErrInvalidConfig, c.SeedAttempts, c.MaxRounds, c.AttemptsPerResidue)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Run Options
// -----------------------------------------------------------------------------

// Options carries the per-algorithm tunables and the random source for
// a run. The zero value selects every documented default and a
// time-seeded RNG.
type Options struct {
	// RNG drives every random choice of the run. Nil selects a
	// time-seeded source; inject a fixed-seed rand.New(rand.NewPCG(a, b))
	// for reproducible runs.
	RNG *rand.Rand

	// SeedFold, when set, replaces the algorithm's own seeding for the
	// local searches (hillclimber, annealing, FRESS). It must be a
	// complete fold of the same protein and dimension.
	SeedFold *fold.Fold

	Random      RandomConfig
	BFS         BFSConfig
	Hillclimber HillclimberConfig
	Annealing   AnnealingConfig
	Fress       FressConfig
}

// Validate normalizes all nested configs.
func (o *Options) Validate() error {
	if err := o.Random.Validate(); err != nil {
		return err
	}
	if err := o.BFS.Validate(); err != nil {
		return err
	}
	if err := o.Hillclimber.Validate(); err != nil {
		return err
	}
	if err := o.Annealing.Validate(); err != nil {
		return err
	}
	return o.Fress.Validate()
}

// rng returns the injected source or a fresh time-seeded one.
func (o *Options) rng() *rand.Rand {
	if o.RNG != nil {
		return o.RNG
	}
	now := time.Now()
	return rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix())))
}
