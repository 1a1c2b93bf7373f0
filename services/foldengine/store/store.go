// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store archives completed folding runs in an embedded BadgerDB
// database.
//
// Records are keyed "run/<uuid>" with JSON values, so the history
// survives restarts and can be listed, re-rendered, or exported later.
// An in-memory mode backs the tests.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/hpfold/services/foldengine/results"
)

var (
	// ErrNotFound indicates no run exists under the requested ID.
	ErrNotFound = errors.New("run not found")

	// ErrEmptyID indicates a record or lookup with no run ID.
	ErrEmptyID = errors.New("empty run id")
)

// runPrefix namespaces run records inside the key space.
const runPrefix = "run/"

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}

// Config holds configuration for the run history store.
type Config struct {
	// Path is the directory for database files.
	// Required unless InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for testing.
	InMemory bool

	// SyncWrites makes every write durable before returning.
	SyncWrites bool

	// Logger receives store and BadgerDB log output.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger

	// NumVersionsToKeep is the number of versions kept per key.
	// Values below 1 are treated as 1.
	NumVersionsToKeep int

	// GCInterval is how often to run value log garbage collection.
	// 0 disables GC. Ignored in memory mode.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before
	// a GC pass rewrites the value log.
	GCDiscardRatio float64
}

// DefaultConfig returns the production configuration: durable writes
// and a 5-minute GC cadence.
func DefaultConfig() Config {
	return Config{
		SyncWrites:        true,
		NumVersionsToKeep: 1,
		GCInterval:        5 * time.Minute,
		GCDiscardRatio:    0.5,
	}
}

// InMemoryConfig returns the configuration used by tests: no disk I/O,
// no GC.
func InMemoryConfig() Config {
	return Config{
		InMemory:          true,
		SyncWrites:        false,
		NumVersionsToKeep: 1,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the run history archive. It also implements results.Sink,
// so drivers can record straight into history.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	gcStop chan struct{}
	gcDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

var _ results.Sink = (*Store)(nil)

// Open opens the store described by cfg, creating the directory for a
// persistent store if needed. The caller must Close it.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}
	if cfg.NumVersionsToKeep < 1 {
		cfg.NumVersionsToKeep = 1
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(cfg.NumVersionsToKeep)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run history store: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gcStop = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// runGC triggers value log garbage collection on a fixed cadence until
// the store closes.
func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			// ErrNoRewrite means nothing was worth collecting.
			err := s.db.RunValueLogGC(ratio)
			switch {
			case err == nil:
				s.logger.Debug("value log GC completed")
			case !errors.Is(err, badger.ErrNoRewrite):
				s.logger.Warn("value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

// Put archives one run record, overwriting any previous record with
// the same ID.
func (s *Store) Put(ctx context.Context, rec results.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return ErrEmptyID
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.ID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(rec.ID), val)
	})
	if err != nil {
		return fmt.Errorf("put run %s: %w", rec.ID, err)
	}

	s.logger.Debug("run archived",
		slog.String("id", rec.ID),
		slog.String("algorithm", rec.Algorithm),
		slog.Int("score", rec.Score))
	return nil
}

// Record implements results.Sink.
func (s *Store) Record(ctx context.Context, rec results.RunRecord) error {
	return s.Put(ctx, rec)
}

// Get returns the run archived under id.
//
// Outputs:
//   - results.RunRecord: The stored record.
//   - error: ErrNotFound when no such run exists.
func (s *Store) Get(ctx context.Context, id string) (results.RunRecord, error) {
	var rec results.RunRecord
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	if id == "" {
		return rec, ErrEmptyID
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return results.RunRecord{}, err
	}
	return rec, nil
}

// List returns every archived run in chronological order.
//
// Description:
//
//	Scans the run prefix and decodes each record. Records created at
//	the same instant are ordered by ID so the listing is stable.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) List(ctx context.Context) ([]results.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []results.RunRecord
	prefix := []byte(runPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec results.RunRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

// Delete removes the run archived under id.
//
// Outputs:
//   - error: ErrNotFound when no such run exists.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes of missing keys succeed silently; probe first
		// so callers can tell the difference.
		if _, err := txn.Get(runKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(runKey(id))
	})
}

// Close stops garbage collection and closes the database. Safe to call
// more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.gcStop != nil {
			close(s.gcStop)
			<-s.gcDone
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
