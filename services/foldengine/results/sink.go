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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// RunRecord is the archival form of one completed run: everything
// needed to rebuild and re-score the fold later.
type RunRecord struct {
	ID         string        `json:"id"`
	Sequence   string        `json:"sequence"`
	Dimension  int           `json:"dimension"`
	Algorithm  string        `json:"algorithm"`
	Score      int           `json:"score"`
	Directions []int         `json:"directions"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewRunRecord captures a search result as a record with a fresh ID.
func NewRunRecord(res *search.Result) RunRecord {
	return RunRecord{
		ID:         uuid.NewString(),
		Sequence:   res.Fold.Protein().String(),
		Dimension:  int(res.Fold.Dimension()),
		Algorithm:  res.Algorithm.String(),
		Score:      res.Score,
		Directions: Directions(res.Fold),
		Elapsed:    res.Elapsed,
		CreatedAt:  time.Now().UTC(),
	}
}

// Fold rebuilds the record's fold from its directions.
func (r RunRecord) Fold() (*fold.Fold, error) {
	return foldFromDirections(r.Sequence, lattice.Dimension(r.Dimension), r.Directions)
}

// Sink receives completed run records. Implementations must be safe
// for concurrent Record calls; batch drivers write from worker
// goroutines.
type Sink interface {
	Record(ctx context.Context, rec RunRecord) error
}

// CSVDirSink writes each record as <dir>/<id>.csv in the interchange
// format.
type CSVDirSink struct {
	dir string
}

// NewCSVDirSink creates the directory if needed and returns a sink
// writing into it.
func NewCSVDirSink(dir string) (*CSVDirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv output dir: %w", err)
	}
	return &CSVDirSink{dir: dir}, nil
}

// Record writes one record to its own CSV file. Concurrent calls are
// safe: records never share a file name.
func (s *CSVDirSink) Record(ctx context.Context, rec RunRecord) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := rec.Fold()
	if err != nil {
		return fmt.Errorf("rebuild fold for run %s: %w", rec.ID, err)
	}

	path := filepath.Join(s.dir, rec.ID+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := WriteCSV(file, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
