// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"strings"
	"testing"
)

// TestDefaultConfig_Validates verifies the shipped defaults pass their
// own constraints.
func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

// TestDefaultConfig_HistoryDirUnderHome verifies the archive lands in
// the user's dot directory.
func TestDefaultConfig_HistoryDirUnderHome(t *testing.T) {
	cfg := DefaultConfig()
	if !strings.Contains(cfg.History.Dir, ".hpfold") {
		t.Errorf("History.Dir = %q, want a path under .hpfold", cfg.History.Dir)
	}
}

// TestValidate_Rejections walks the field constraints.
func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*HPFoldConfig)
	}{
		{"bad log level", func(c *HPFoldConfig) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *HPFoldConfig) { c.Logging.Format = "xml" }},
		{"unknown algorithm", func(c *HPFoldConfig) { c.Defaults.Algorithm = "quantum" }},
		{"bad dimension", func(c *HPFoldConfig) { c.Defaults.Dimension = 4 }},
		{"negative iterations", func(c *HPFoldConfig) { c.Defaults.Iterations = -1 }},
		{"too many restarts", func(c *HPFoldConfig) { c.Defaults.Restarts = 1000 }},
		{"missing history dir", func(c *HPFoldConfig) { c.History.Dir = "" }},
		{"bad server addr", func(c *HPFoldConfig) { c.Server.Addr = "not-an-addr" }},
		{"zero request timeout", func(c *HPFoldConfig) { c.Server.RequestTimeoutSeconds = 0 }},
		{"bad otlp endpoint", func(c *HPFoldConfig) { c.Telemetry.OTLPEndpoint = "::" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := Validate(&cfg); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

// TestValidate_AcceptsPartial verifies optional fields may stay empty.
func TestValidate_AcceptsPartial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = ""
	cfg.Logging.Format = ""
	cfg.Defaults.Algorithm = ""
	cfg.Defaults.Dimension = 0
	cfg.Telemetry = TelemetryConfig{}

	if err := Validate(&cfg); err != nil {
		t.Fatalf("partial config should validate: %v", err)
	}
}
