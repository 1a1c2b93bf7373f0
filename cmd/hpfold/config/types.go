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
)

type HPFoldConfig struct {
	// Logging controls the CLI logger.
	Logging LoggingConfig `yaml:"logging"`

	// Defaults fill in run parameters the flags leave unset.
	Defaults DefaultsConfig `yaml:"defaults"`

	// History locates the run archive.
	History HistoryConfig `yaml:"history"`

	// Server configures `hpfold serve`.
	Server ServerConfig `yaml:"server"`

	// Telemetry configures exporters; everything off by default.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	// Dir, when set, mirrors all log records into JSON files there.
	Dir string `yaml:"dir"`
}

type DefaultsConfig struct {
	Algorithm string `yaml:"algorithm" validate:"omitempty,oneof=baseline bfs_random hillclimber simulated_annealing fress spiral"`
	Dimension int    `yaml:"dimension" validate:"omitempty,oneof=2 3"`
	// Iterations is the per-run effort budget; 0 keeps each
	// algorithm's documented default.
	Iterations int `yaml:"iterations" validate:"gte=0"`
	Restarts   int `yaml:"restarts" validate:"gte=0,lte=256"`
}

type HistoryConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// RequestTimeoutSeconds bounds each fold request.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"gte=1,lte=3600"`
}

type TelemetryConfig struct {
	// OTLPEndpoint is a gRPC collector address, e.g. "localhost:4317".
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"omitempty,hostname_port"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	// Stdout dumps traces and metrics to stdout, for debugging.
	Stdout bool `yaml:"stdout"`
}

func DefaultConfig() HPFoldConfig {
	base := ""
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".hpfold")
	} else {
		base = ".hpfold"
	}
	return HPFoldConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Defaults: DefaultsConfig{
			Algorithm: "simulated_annealing",
			Dimension: 2,
			Restarts:  1,
		},
		History: HistoryConfig{
			Dir: filepath.Join(base, "history"),
		},
		Server: ServerConfig{
			Addr:                  "127.0.0.1:8780",
			RequestTimeoutSeconds: 60,
		},
		Telemetry: TelemetryConfig{},
	}
}
