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
	"time"
)

// Summary aggregates the scores of repeated runs. The zero value is an
// empty summary; accumulate with Add and combine per-worker summaries
// with Merge. Lower scores are better, so Best is the minimum.
type Summary struct {
	Count        int
	Best         int
	Worst        int
	TotalElapsed time.Duration

	sum        float64
	sumSquares float64
}

// Add folds one run into the summary.
func (s *Summary) Add(score int, elapsed time.Duration) {
	if s.Count == 0 || score < s.Best {
		s.Best = score
	}
	if s.Count == 0 || score > s.Worst {
		s.Worst = score
	}
	s.Count++
	s.TotalElapsed += elapsed
	s.sum += float64(score)
	s.sumSquares += float64(score) * float64(score)
}

// Merge combines two summaries into one, as if every run had been
// added to a single summary.
func (s Summary) Merge(o Summary) Summary {
	if s.Count == 0 {
		return o
	}
	if o.Count == 0 {
		return s
	}
	merged := Summary{
		Count:        s.Count + o.Count,
		Best:         s.Best,
		Worst:        s.Worst,
		TotalElapsed: s.TotalElapsed + o.TotalElapsed,
		sum:          s.sum + o.sum,
		sumSquares:   s.sumSquares + o.sumSquares,
	}
	if o.Best < merged.Best {
		merged.Best = o.Best
	}
	if o.Worst > merged.Worst {
		merged.Worst = o.Worst
	}
	return merged
}

// Mean returns the average score, 0 for an empty summary.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.sum / float64(s.Count)
}

// Stddev returns the population standard deviation of the scores.
func (s Summary) Stddev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Mean()
	variance := s.sumSquares/float64(s.Count) - mean*mean
	if variance < 0 {
		variance = 0 // float error on near-constant scores
	}
	return math.Sqrt(variance)
}
