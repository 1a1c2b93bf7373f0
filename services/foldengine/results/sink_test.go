// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package results

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// squareResult wraps the four-monomer square as a finished search result.
func squareResult(t *testing.T) *search.Result {
	t.Helper()
	f := squareFold(t, "HHHH")
	return &search.Result{
		Algorithm:  search.AlgorithmSpiral,
		Fold:       f,
		Score:      -1,
		Iterations: 4,
		Elapsed:    5 * time.Millisecond,
	}
}

func TestNewRunRecord(t *testing.T) {
	rec := NewRunRecord(squareResult(t))

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err, "record IDs are UUIDs")
	assert.Equal(t, "HHHH", rec.Sequence)
	assert.Equal(t, 2, rec.Dimension)
	assert.Equal(t, "spiral", rec.Algorithm)
	assert.Equal(t, -1, rec.Score)
	assert.Equal(t, []int{2, 1, -2, 0}, rec.Directions)
	assert.Equal(t, 5*time.Millisecond, rec.Elapsed)
	assert.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, time.Minute)
}

func TestNewRunRecord_UniqueIDs(t *testing.T) {
	res := squareResult(t)
	a := NewRunRecord(res)
	b := NewRunRecord(res)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRunRecord_Fold(t *testing.T) {
	res := squareResult(t)
	rec := NewRunRecord(res)

	rebuilt, err := rec.Fold()
	require.NoError(t, err)
	assert.Equal(t, res.Fold.Coords(), rebuilt.Coords())
	assert.Equal(t, res.Fold.Dimension(), rebuilt.Dimension())

	score, err := rebuilt.Score()
	require.NoError(t, err)
	assert.Equal(t, rec.Score, score)
}

func TestRunRecord_Fold_RejectsTamperedDirections(t *testing.T) {
	rec := NewRunRecord(squareResult(t))
	rec.Directions = []int{1, -1, 1, 0} // steps back onto monomer 0

	_, err := rec.Fold()
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestCSVDirSink_Record(t *testing.T) {
	// The directory does not exist yet; the constructor creates it.
	dir := filepath.Join(t.TempDir(), "runs", "out")
	sink, err := NewCSVDirSink(dir)
	require.NoError(t, err)

	rec := NewRunRecord(squareResult(t))
	require.NoError(t, sink.Record(context.Background(), rec))

	file, err := os.Open(filepath.Join(dir, rec.ID+".csv"))
	require.NoError(t, err)
	defer file.Close()

	f, score, err := ReadCSV(file)
	require.NoError(t, err)
	assert.Equal(t, rec.Score, score)
	assert.Equal(t, rec.Sequence, f.Protein().String())
}

func TestCSVDirSink_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVDirSink(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := NewRunRecord(squareResult(t))
	assert.ErrorIs(t, sink.Record(ctx, rec), context.Canceled)

	_, statErr := os.Stat(filepath.Join(dir, rec.ID+".csv"))
	assert.True(t, os.IsNotExist(statErr), "no file written for a cancelled record")
}

func TestCSVDirSink_BadRecordWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVDirSink(dir)
	require.NoError(t, err)

	rec := NewRunRecord(squareResult(t))
	rec.Directions = []int{1, 1, 1} // one direction short

	assert.ErrorIs(t, sink.Record(context.Background(), rec), ErrInvalidFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
