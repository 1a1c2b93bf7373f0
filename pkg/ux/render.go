// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
)

// RenderFold draws a completed fold as a styled lattice grid.
//
// Description:
//
//	Monomers sit on a grid with one blank cell between lattice
//	neighbors. Backbone links are drawn as solid connectors, scoring
//	contacts as dashed ones. 3D folds render one grid per Z layer;
//	monomers bonded to an adjacent layer are underlined and contacts
//	that cross layers are reported as a count below the grids. A
//	legend and the fold score close the output.
//
// Inputs:
//   - f: the fold to draw. Must be complete.
//
// Outputs:
//   - string: the rendered grid, legend and score, newline terminated.
//   - error: fold.ErrIncompleteFold if the fold is not complete.
func RenderFold(f *fold.Fold) (string, error) {
	score, err := f.Score()
	if err != nil {
		return "", err
	}

	coords := f.Coords()
	cts := foldContacts(f, coords)

	var b strings.Builder
	for _, z := range layerOrder(coords) {
		if f.Dimension() == lattice.Dim3 {
			b.WriteString(Styles.Subtitle.Render(fmt.Sprintf("layer z=%d", z)))
			b.WriteString("\n")
		}
		renderLayer(&b, f, coords, cts, z)
		b.WriteString("\n")
	}

	if n := crossLayerCount(coords, cts); n > 0 {
		b.WriteString(Styles.Muted.Render(fmt.Sprintf("contacts between layers: %d", n)))
		b.WriteString("\n")
	}

	b.WriteString(legend(f.Dimension()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		Styles.Muted.Render("score:"),
		Styles.Highlight.Render(strconv.Itoa(score))))
	return b.String(), nil
}

// contact is a scoring pair of non-sequential lattice neighbors.
type contact struct {
	i, j   int
	energy int
}

// foldContacts enumerates every scoring contact once, keyed from the
// lower monomer index.
func foldContacts(f *fold.Fold, coords []lattice.Coord) []contact {
	var out []contact
	for i, c := range coords {
		for _, step := range lattice.Steps(f.Dimension()) {
			j, ok := f.Occupied(c.Add(step))
			if !ok || j <= i+1 {
				continue
			}
			e := fold.BondEnergy(f.Protein().At(i), f.Protein().At(j))
			if e == 0 {
				continue
			}
			out = append(out, contact{i: i, j: j, energy: e})
		}
	}
	return out
}

// layerOrder returns the distinct Z levels of the fold, lowest first.
func layerOrder(coords []lattice.Coord) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, c := range coords {
		if !seen[c.Z] {
			seen[c.Z] = true
			levels = append(levels, c.Z)
		}
	}
	sort.Ints(levels)
	return levels
}

// crossLayerCount counts contacts whose endpoints sit on different Z
// levels. Those are invisible in the per-layer grids.
func crossLayerCount(coords []lattice.Coord, cts []contact) int {
	n := 0
	for _, ct := range cts {
		if coords[ct.i].Z != coords[ct.j].Z {
			n++
		}
	}
	return n
}

// renderLayer draws the monomers, backbone links and in-plane contacts
// of one Z level. All layers share the fold's global X/Y bounds so 3D
// output stays column aligned.
func renderLayer(b *strings.Builder, f *fold.Fold, coords []lattice.Coord, cts []contact, z int) {
	minX, maxX, minY, maxY := bounds(coords)
	rows := 2*(maxY-minY) + 1
	cols := 2*(maxX-minX) + 1

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	// Screen rows grow downward, lattice Y grows upward.
	pos := func(c lattice.Coord) (int, int) {
		return 2 * (maxY - c.Y), 2 * (c.X - minX)
	}

	for i, c := range coords {
		if c.Z != z {
			continue
		}
		r, col := pos(c)
		grid[r][col] = monomerCell(f, coords, i)
	}

	for i := 0; i+1 < len(coords); i++ {
		a, bb := coords[i], coords[i+1]
		if a.Z != z || bb.Z != z {
			continue
		}
		r1, c1 := pos(a)
		r2, c2 := pos(bb)
		glyph := "─"
		if c1 == c2 {
			glyph = "│"
		}
		grid[(r1+r2)/2][(c1+c2)/2] = Styles.Muted.Render(glyph)
	}

	for _, ct := range cts {
		a, bb := coords[ct.i], coords[ct.j]
		if a.Z != z || bb.Z != z {
			continue
		}
		r1, c1 := pos(a)
		r2, c2 := pos(bb)
		glyph := "┄"
		if c1 == c2 {
			glyph = "┆"
		}
		grid[(r1+r2)/2][(c1+c2)/2] = contactStyle(ct.energy).Render(glyph)
	}

	for _, row := range grid {
		b.WriteString(strings.TrimRight(strings.Join(row, ""), " "))
		b.WriteString("\n")
	}
}

// monomerCell styles one monomer glyph. Monomers whose backbone
// continues into an adjacent Z layer are underlined.
func monomerCell(f *fold.Fold, coords []lattice.Coord, i int) string {
	style := monomerStyle(f.Protein().At(i))
	if (i > 0 && coords[i-1].Z != coords[i].Z) ||
		(i+1 < len(coords) && coords[i+1].Z != coords[i].Z) {
		style = style.Underline(true)
	}
	return style.Render(f.Protein().At(i).String())
}

func monomerStyle(m fold.Monomer) lipgloss.Style {
	switch m {
	case fold.Hydrophobic:
		return Styles.MonomerH
	case fold.Cysteine:
		return Styles.MonomerC
	default:
		return Styles.MonomerP
	}
}

// contactStyle highlights disulfide-strength contacts in gold, all
// others in the standard teal.
func contactStyle(energy int) lipgloss.Style {
	if energy <= fold.BondEnergy(fold.Cysteine, fold.Cysteine) {
		return Styles.Warning
	}
	return Styles.Subtitle
}

func bounds(coords []lattice.Coord) (minX, maxX, minY, maxY int) {
	minX, maxX = coords[0].X, coords[0].X
	minY, maxY = coords[0].Y, coords[0].Y
	for _, c := range coords[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	return minX, maxX, minY, maxY
}

func legend(dim lattice.Dimension) string {
	parts := []string{
		Styles.MonomerH.Render("H") + Styles.Muted.Render(" hydrophobic"),
		Styles.MonomerP.Render("P") + Styles.Muted.Render(" polar"),
		Styles.MonomerC.Render("C") + Styles.Muted.Render(" cysteine"),
		Styles.Muted.Render("── backbone"),
		Styles.Subtitle.Render("┄") + Styles.Muted.Render(" contact"),
	}
	if dim == lattice.Dim3 {
		parts = append(parts, Styles.Muted.Render("underline = bonded across layers"))
	}
	return strings.Join(parts, "  ")
}
