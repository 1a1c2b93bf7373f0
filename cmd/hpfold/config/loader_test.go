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
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".hpfold", "config.yaml")

	err := createDefault(configPath)
	if err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	// Verify the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	// Read and verify the config
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg HPFoldConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	// Verify some defaults
	if cfg.Defaults.Algorithm != "simulated_annealing" {
		t.Errorf("Defaults.Algorithm = %q, want %q", cfg.Defaults.Algorithm, "simulated_annealing")
	}
	if cfg.Defaults.Dimension != 2 {
		t.Errorf("Defaults.Dimension = %d, want 2", cfg.Defaults.Dimension)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Server.Addr != "127.0.0.1:8780" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:8780")
	}
	if cfg.Server.RequestTimeoutSeconds != 60 {
		t.Errorf("Server.RequestTimeoutSeconds = %d, want 60", cfg.Server.RequestTimeoutSeconds)
	}
}

// TestCreateDefault_DirectoryCreation verifies directory is created.
func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()

	// Use a nested path
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "config.yaml")

	err := createDefault(configPath)
	if err != nil {
		t.Fatalf("createDefault() failed with nested path: %v", err)
	}

	// Verify the directories were created
	dirPath := filepath.Dir(configPath)
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		t.Fatal("nested directories were not created")
	}
}

// TestPath_EnvOverride verifies HPFOLD_CONFIG wins over the default.
func TestPath_EnvOverride(t *testing.T) {
	t.Setenv("HPFOLD_CONFIG", "/tmp/custom-hpfold.yaml")

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	if p != "/tmp/custom-hpfold.yaml" {
		t.Errorf("Path() = %q, want env override", p)
	}
}

// TestPath_FlagOverrideWins verifies SetPath beats the environment.
func TestPath_FlagOverrideWins(t *testing.T) {
	t.Setenv("HPFOLD_CONFIG", "/tmp/env-hpfold.yaml")
	SetPath("/tmp/flag-hpfold.yaml")
	t.Cleanup(func() { SetPath("") })

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	if p != "/tmp/flag-hpfold.yaml" {
		t.Errorf("Path() = %q, want flag override", p)
	}
}

// TestPath_Default verifies the home directory fallback.
func TestPath_Default(t *testing.T) {
	t.Setenv("HPFOLD_CONFIG", "")

	p, err := Path()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if filepath.Base(p) != "config.yaml" {
		t.Errorf("Path() = %q, want a config.yaml under the home directory", p)
	}
}
