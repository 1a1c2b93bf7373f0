// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

// captureOutput redirects stdout and stderr while fn runs.
func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	oldOut, oldErr := os.Stdout, os.Stderr
	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stderr pipe: %v", err)
	}
	os.Stdout, os.Stderr = wOut, wErr

	fn()

	wOut.Close()
	wErr.Close()
	os.Stdout, os.Stderr = oldOut, oldErr

	var bufOut, bufErr bytes.Buffer
	io.Copy(&bufOut, rOut)
	io.Copy(&bufErr, rErr)
	return bufOut.String(), bufErr.String()
}

// TestOutputResult_Success tests the success exit code in quiet mode.
func TestOutputResult_Success(t *testing.T) {
	cfg := OutputConfig{Quiet: true}

	exitCode := OutputResult(cfg, "fold", time.Now(), nil, false, nil)

	if exitCode != CLIExitSuccess {
		t.Errorf("Exit code = %d, want %d", exitCode, CLIExitSuccess)
	}
}

// TestOutputResult_Unfoldable tests the unfoldable exit code.
func TestOutputResult_Unfoldable(t *testing.T) {
	cfg := OutputConfig{Quiet: true}

	exitCode := OutputResult(cfg, "fold", time.Now(), nil, true, nil)

	if exitCode != CLIExitUnfoldable {
		t.Errorf("Exit code = %d, want %d", exitCode, CLIExitUnfoldable)
	}
}

// TestOutputResult_Error tests the error exit code.
func TestOutputResult_Error(t *testing.T) {
	cfg := OutputConfig{Quiet: true}

	exitCode := OutputResult(cfg, "fold", time.Now(), nil, false, errors.New("boom"))

	if exitCode != CLIExitError {
		t.Errorf("Exit code = %d, want %d", exitCode, CLIExitError)
	}
}

// TestOutputResult_JSONEnvelope tests the JSON mode envelope shape.
func TestOutputResult_JSONEnvelope(t *testing.T) {
	cfg := OutputConfig{JSON: true}
	payload := FoldRunResult{
		Sequence:  "HPPH",
		Dimension: 2,
		Algorithm: "spiral",
		Score:     -1,
	}

	var exitCode int
	stdout, _ := captureOutput(t, func() {
		exitCode = OutputResult(cfg, "fold", time.Now(), payload, false, nil)
	})

	if exitCode != CLIExitSuccess {
		t.Fatalf("Exit code = %d, want %d", exitCode, CLIExitSuccess)
	}

	var result CommandResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v\noutput: %s", err, stdout)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.Command != "fold" {
		t.Errorf("Command = %q, want %q", result.Command, "fold")
	}
	if result.APIVersion != "1.0" {
		t.Errorf("APIVersion = %q, want %q", result.APIVersion, "1.0")
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
}

// TestOutputResult_JSONUnfoldableStillEmitsEnvelope tests that JSON
// mode emits the envelope before returning the unfoldable code.
func TestOutputResult_JSONUnfoldableStillEmitsEnvelope(t *testing.T) {
	cfg := OutputConfig{JSON: true}

	var exitCode int
	stdout, _ := captureOutput(t, func() {
		exitCode = OutputResult(cfg, "batch", time.Now(), BatchResult{}, true, nil)
	})

	if exitCode != CLIExitUnfoldable {
		t.Errorf("Exit code = %d, want %d", exitCode, CLIExitUnfoldable)
	}
	if !strings.Contains(stdout, `"success": true`) {
		t.Errorf("Expected a success envelope, got: %s", stdout)
	}
}

// TestOutputError_TextGoesToStderr tests the text error format.
func TestOutputError_TextGoesToStderr(t *testing.T) {
	stdout, stderr := captureOutput(t, func() {
		OutputError(false, "search failed", errors.New("dead end"))
	})

	if stdout != "" {
		t.Errorf("Expected empty stdout, got: %q", stdout)
	}
	if !strings.Contains(stderr, "Error: search failed: dead end") {
		t.Errorf("Unexpected stderr: %q", stderr)
	}
}

// TestOutputError_JSONGoesToStdout tests the JSON error envelope.
func TestOutputError_JSONGoesToStdout(t *testing.T) {
	stdout, stderr := captureOutput(t, func() {
		OutputError(true, "search failed", errors.New("dead end"))
	})

	if stderr != "" {
		t.Errorf("Expected empty stderr, got: %q", stderr)
	}

	var result CommandResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("Failed to unmarshal error envelope: %v", err)
	}
	if result.Success {
		t.Error("Success = true, want false")
	}
	if !strings.Contains(result.Error, "dead end") {
		t.Errorf("Error = %q, want it to mention the cause", result.Error)
	}
}

// TestFoldRunResultJSON_OmitsEmptyOptionals tests that run_id and
// output_file stay out of the JSON until set.
func TestFoldRunResultJSON_OmitsEmptyOptionals(t *testing.T) {
	data, err := json.Marshal(FoldRunResult{Sequence: "HPPH", Directions: []int{1, 3, 2}})
	if err != nil {
		t.Fatalf("Failed to marshal FoldRunResult: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "run_id") {
		t.Errorf("Expected run_id omitted, got: %s", s)
	}
	if strings.Contains(s, "output_file") {
		t.Errorf("Expected output_file omitted, got: %s", s)
	}

	data, err = json.Marshal(FoldRunResult{RunID: "abc", OutputFile: "f.csv"})
	if err != nil {
		t.Fatalf("Failed to marshal FoldRunResult: %v", err)
	}
	s = string(data)
	if !strings.Contains(s, `"run_id":"abc"`) {
		t.Errorf("Expected run_id present, got: %s", s)
	}
	if !strings.Contains(s, `"output_file":"f.csv"`) {
		t.Errorf("Expected output_file present, got: %s", s)
	}
}

// TestExitCodeConstants tests exit code constant values.
func TestExitCodeConstants(t *testing.T) {
	if CLIExitSuccess != 0 {
		t.Errorf("CLIExitSuccess = %d, want 0", CLIExitSuccess)
	}
	if CLIExitUnfoldable != 1 {
		t.Errorf("CLIExitUnfoldable = %d, want 1", CLIExitUnfoldable)
	}
	if CLIExitError != 2 {
		t.Errorf("CLIExitError = %d, want 2", CLIExitError)
	}
}
