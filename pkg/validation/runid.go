// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-supplied
// identifiers.
//
// Run IDs arrive from command line arguments and HTTP payloads and are used
// directly as archive keys. Validating them up front turns a silent key miss
// into an actionable error and keeps malformed input away from the store.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateRunID validates a run identifier.
//
// Run IDs are UUIDs as issued when a run is archived. Any of the standard
// textual UUID encodings is accepted.
//
// Returns an error if the ID is empty or not a UUID.
//
// Example:
//
//	if err := validation.ValidateRunID(id); err != nil {
//	    return fmt.Errorf("invalid run ID: %w", err)
//	}
func ValidateRunID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("invalid run ID %q: expected a UUID", id)
	}
	return nil
}

// ValidateRunIDs validates multiple run identifiers.
// Returns an error listing all invalid IDs if any fail validation.
func ValidateRunIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateRunID(id); err != nil {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid run IDs: %v", invalid)
	}
	return nil
}

// SanitizeRunID normalizes and validates a run identifier.
// Returns the canonical lowercase hyphenated form if valid, or an error.
//
// Archive keys are stored in canonical form, so lookups must use it too:
//
//	id, err := validation.SanitizeRunID(userInput)
//	if err != nil {
//	    return err
//	}
//	rec, err := st.Get(ctx, id)
func SanitizeRunID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: expected a UUID", id)
	}
	return u.String(), nil
}
