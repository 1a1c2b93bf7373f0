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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

func TestRunBest_SingleRun(t *testing.T) {
	protein := fold.MustParseSequence("HPHPPHHP")

	res, err := RunBest(context.Background(), protein, lattice.Dim2, AlgorithmBaseline, 0, 1, &Options{RNG: newTestRNG(5, 6)})
	require.NoError(t, err)

	// One run is just Run with the same stream.
	direct, err := Run(context.Background(), protein, lattice.Dim2, AlgorithmBaseline, 0, &Options{RNG: newTestRNG(5, 6)})
	require.NoError(t, err)
	assert.Equal(t, direct.Score, res.Score)
	assert.Equal(t, direct.Fold.Coords(), res.Fold.Coords())
}

func TestRunBest_MultipleRuns(t *testing.T) {
	protein := fold.MustParseSequence("HHPHHPPHHH")

	res, err := RunBest(context.Background(), protein, lattice.Dim2, AlgorithmBaseline, 0, 8, &Options{RNG: newTestRNG(14, 15)})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Fold.IsComplete())
	assert.NoError(t, res.Fold.Validate())
	assert.LessOrEqual(t, res.Score, 0)
}

func TestRunBest_DeterministicUnderSeed(t *testing.T) {
	// Seeds are drawn before the runs fan out, so scheduling cannot
	// change which folds the runs produce or which one wins.
	protein := fold.MustParseSequence("HPHPPHHPHH")

	res1, err := RunBest(context.Background(), protein, lattice.Dim2, AlgorithmBaseline, 0, 6, &Options{RNG: newTestRNG(21, 12)})
	require.NoError(t, err)
	res2, err := RunBest(context.Background(), protein, lattice.Dim2, AlgorithmBaseline, 0, 6, &Options{RNG: newTestRNG(21, 12)})
	require.NoError(t, err)

	assert.Equal(t, res1.Score, res2.Score)
	assert.Equal(t, res1.Fold.Coords(), res2.Fold.Coords())
}

func TestRunBest_ZeroRunsMeansOne(t *testing.T) {
	protein := fold.MustParseSequence("HPHP")
	res, err := RunBest(context.Background(), protein, lattice.Dim2, AlgorithmSpiral, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Fold.IsComplete())
}

func TestRunBest_AllRunsFail(t *testing.T) {
	_, err := RunBest(context.Background(), fold.Protein{}, lattice.Dim2, AlgorithmBaseline, 0, 4, &Options{RNG: newTestRNG(1, 2)})
	assert.ErrorIs(t, err, ErrEmptySequence)
}

func TestRunBest_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	protein := fold.MustParseSequence("HPHPH")
	_, err := RunBest(ctx, protein, lattice.Dim2, AlgorithmBaseline, 0, 3, &Options{RNG: newTestRNG(1, 2)})
	assert.ErrorIs(t, err, context.Canceled)
}
