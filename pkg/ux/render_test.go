// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// buildFold walks the given steps from the origin. Test processes have
// no TTY, so lipgloss renders plain glyphs and the grid can be checked
// literally.
func buildFold(t *testing.T, seq string, dim lattice.Dimension, steps []lattice.Coord) *fold.Fold {
	t.Helper()
	f := fold.New(fold.MustParseSequence(seq), dim)
	for _, s := range steps {
		if err := f.Extend(s); err != nil {
			t.Fatalf("extend %v: %v", s, err)
		}
	}
	return f
}

func gridLines(out string) []string {
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

// =============================================================================
// RenderFold Tests
// =============================================================================

func TestRenderFold_Square2D(t *testing.T) {
	// (0,0) -> (0,1) -> (1,1) -> (1,0), one H-H contact closing the square.
	f := buildFold(t, "HHHH", lattice.Dim2, []lattice.Coord{{Y: 1}, {X: 1}, {Y: -1}})

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	lines := gridLines(out)
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 grid lines, got %d: %q", len(lines), out)
	}
	want := []string{"H─H", "│ │", "H┄H"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}

	if !strings.Contains(out, "score:") {
		t.Errorf("expected score line, got %q", out)
	}
	if !strings.Contains(out, "-1") {
		t.Errorf("expected score -1, got %q", out)
	}
	if strings.Contains(out, "layer z=") {
		t.Errorf("2D fold should not print layer headers, got %q", out)
	}
}

func TestRenderFold_MonomerGlyphs(t *testing.T) {
	f := buildFold(t, "HPCH", lattice.Dim2, []lattice.Coord{{Y: 1}, {X: 1}, {Y: -1}})

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	lines := gridLines(out)
	if lines[0] != "P─C" {
		t.Errorf("expected top row P─C, got %q", lines[0])
	}
	if lines[2] != "H┄H" {
		t.Errorf("expected bottom row H┄H, got %q", lines[2])
	}
}

func TestRenderFold_Legend(t *testing.T) {
	f := buildFold(t, "HHHH", lattice.Dim2, []lattice.Coord{{Y: 1}, {X: 1}, {Y: -1}})

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	for _, term := range []string{"hydrophobic", "polar", "cysteine", "backbone", "contact"} {
		if !strings.Contains(out, term) {
			t.Errorf("expected legend term %q, got %q", term, out)
		}
	}
	if strings.Contains(out, "across layers") {
		t.Errorf("2D legend should not mention layers, got %q", out)
	}
}

func TestRenderFold_3DLayers(t *testing.T) {
	// (0,0,0) -> (0,0,1) -> (1,0,1) -> (1,0,0): the square stands on its
	// edge, so each Z level holds two monomers.
	f := buildFold(t, "HHHH", lattice.Dim3, []lattice.Coord{{Z: 1}, {X: 1}, {Z: -1}})

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	if !strings.Contains(out, "layer z=0") {
		t.Errorf("expected layer z=0 header, got %q", out)
	}
	if !strings.Contains(out, "layer z=1") {
		t.Errorf("expected layer z=1 header, got %q", out)
	}
	if !strings.Contains(out, "H┄H") {
		t.Errorf("expected in-plane contact on layer 0, got %q", out)
	}
	if !strings.Contains(out, "H─H") {
		t.Errorf("expected in-plane backbone on layer 1, got %q", out)
	}
	if strings.Contains(out, "contacts between layers") {
		t.Errorf("all contacts are in-plane, got %q", out)
	}
	if !strings.Contains(out, "across layers") {
		t.Errorf("3D legend should explain the underline, got %q", out)
	}
}

func TestRenderFold_CrossLayerContacts(t *testing.T) {
	// Walk up through Z and back down: monomers 0 and 3 touch across
	// layers, 0 and 5 touch within layer z=0.
	f := buildFold(t, "HHHHHH", lattice.Dim3, []lattice.Coord{
		{X: 1}, {Z: 1}, {X: -1}, {Y: 1}, {Z: -1},
	})

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	if !strings.Contains(out, "contacts between layers: 1") {
		t.Errorf("expected one cross-layer contact, got %q", out)
	}
	if !strings.Contains(out, "-2") {
		t.Errorf("expected score -2, got %q", out)
	}
}

func TestRenderFold_SingleMonomer(t *testing.T) {
	f := buildFold(t, "H", lattice.Dim2, nil)

	out, err := RenderFold(f)
	if err != nil {
		t.Fatalf("RenderFold: %v", err)
	}

	lines := gridLines(out)
	if lines[0] != "H" {
		t.Errorf("expected bare monomer, got %q", lines[0])
	}
	if !strings.Contains(out, "score:") {
		t.Errorf("expected score line, got %q", out)
	}
}

func TestRenderFold_Incomplete(t *testing.T) {
	f := fold.New(fold.MustParseSequence("HHHH"), lattice.Dim2)

	_, err := RenderFold(f)
	if !errors.Is(err, fold.ErrIncompleteFold) {
		t.Errorf("expected ErrIncompleteFold, got %v", err)
	}
}

// =============================================================================
// Contact Enumeration Tests
// =============================================================================

func TestFoldContacts_SkipsBackboneAndPolar(t *testing.T) {
	// P at position 3 closes the square but P-H pairs score zero.
	f := buildFold(t, "HHHP", lattice.Dim2, []lattice.Coord{{Y: 1}, {X: 1}, {Y: -1}})

	cts := foldContacts(f, f.Coords())
	if len(cts) != 0 {
		t.Errorf("expected no scoring contacts, got %v", cts)
	}
}

func TestFoldContacts_CountsPairOnce(t *testing.T) {
	f := buildFold(t, "HHHH", lattice.Dim2, []lattice.Coord{{Y: 1}, {X: 1}, {Y: -1}})

	cts := foldContacts(f, f.Coords())
	if len(cts) != 1 {
		t.Fatalf("expected exactly one contact, got %v", cts)
	}
	if cts[0].i != 0 || cts[0].j != 3 {
		t.Errorf("expected contact between 0 and 3, got %v", cts[0])
	}
	if cts[0].energy != fold.BondEnergy(fold.Hydrophobic, fold.Hydrophobic) {
		t.Errorf("expected H-H energy, got %d", cts[0].energy)
	}
}

func TestContactStyle_DisulfideHighlight(t *testing.T) {
	strong := contactStyle(fold.BondEnergy(fold.Cysteine, fold.Cysteine))
	weak := contactStyle(fold.BondEnergy(fold.Hydrophobic, fold.Hydrophobic))
	if strong.GetForeground() != ColorWarning {
		t.Errorf("expected gold for disulfide contacts, got %v", strong.GetForeground())
	}
	if weak.GetForeground() == ColorWarning {
		t.Errorf("H-H contacts should not use the disulfide color")
	}
}
