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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummary_Empty(t *testing.T) {
	var s Summary
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.Mean())
	assert.Equal(t, 0.0, s.Stddev())
}

func TestSummary_SingleRun(t *testing.T) {
	var s Summary
	s.Add(-4, 2*time.Second)

	assert.Equal(t, 1, s.Count)
	assert.Equal(t, -4, s.Best)
	assert.Equal(t, -4, s.Worst)
	assert.Equal(t, 2*time.Second, s.TotalElapsed)
	assert.Equal(t, -4.0, s.Mean())
	assert.Equal(t, 0.0, s.Stddev())
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s.Add(-3, time.Second)
	s.Add(-5, 2*time.Second)
	s.Add(-1, time.Second)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, -5, s.Best)
	assert.Equal(t, -1, s.Worst)
	assert.Equal(t, 4*time.Second, s.TotalElapsed)
	assert.InDelta(t, -3.0, s.Mean(), 1e-12)
	// Deviations from the mean are 0, -2 and 2.
	assert.InDelta(t, math.Sqrt(8.0/3.0), s.Stddev(), 1e-12)
}

func TestSummary_PositiveScoresTrackSign(t *testing.T) {
	// Scores are never positive in practice, but the summary must not
	// assume a sign.
	var s Summary
	s.Add(2, 0)
	s.Add(7, 0)

	assert.Equal(t, 2, s.Best)
	assert.Equal(t, 7, s.Worst)
}

func TestSummary_MergeMatchesSequentialAdd(t *testing.T) {
	scores := []int{-3, -5, -1, -2}
	elapsed := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, time.Second}

	var a, b, whole Summary
	for i, score := range scores {
		whole.Add(score, elapsed[i])
		if i < 2 {
			a.Add(score, elapsed[i])
		} else {
			b.Add(score, elapsed[i])
		}
	}

	merged := a.Merge(b)
	assert.Equal(t, whole.Count, merged.Count)
	assert.Equal(t, whole.Best, merged.Best)
	assert.Equal(t, whole.Worst, merged.Worst)
	assert.Equal(t, whole.TotalElapsed, merged.TotalElapsed)
	assert.InDelta(t, whole.Mean(), merged.Mean(), 1e-12)
	assert.InDelta(t, whole.Stddev(), merged.Stddev(), 1e-12)

	// Merge is symmetric.
	flipped := b.Merge(a)
	assert.Equal(t, merged.Count, flipped.Count)
	assert.Equal(t, merged.Best, flipped.Best)
	assert.Equal(t, merged.Worst, flipped.Worst)
	assert.InDelta(t, merged.Mean(), flipped.Mean(), 1e-12)
}

func TestSummary_MergeWithEmpty(t *testing.T) {
	var s Summary
	s.Add(-2, time.Second)

	var empty Summary
	assert.Equal(t, s, s.Merge(empty))
	assert.Equal(t, s, empty.Merge(s))
	assert.Equal(t, empty, empty.Merge(empty))
}
