// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_algorithm_docs generates a markdown reference for the search
// algorithms from the live registry in services/foldengine/search.
//
// Usage:
//
//	go run scripts/generate_algorithm_docs.go > docs/algorithm_reference.md
//
// The generated documentation includes:
//   - Full algorithm inventory with categories
//   - Aliases accepted by the CLI and the HTTP API
//   - Tunables with their engine defaults
//   - Summary statistics
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// tunableDoc describes one engine knob.
type tunableDoc struct {
	Name    string
	Default string
	Meaning string
}

// algorithmDoc describes a single algorithm entry.
type algorithmDoc struct {
	Name     search.Algorithm
	Aliases  []string
	UseWhen  string
	Strategy string
	Tunables []tunableDoc
}

// algorithmCategory groups algorithms by how they obtain a fold.
type algorithmCategory struct {
	Name        string
	Description string
	Algorithms  []algorithmDoc
}

func main() {
	categories := buildCategories()

	// Drift guards: the entries here must cover exactly what the engine
	// exposes, and every documented alias must still resolve.
	documented := make(map[search.Algorithm]bool)
	for _, cat := range categories {
		for _, doc := range cat.Algorithms {
			documented[doc.Name] = true
			for _, alias := range doc.Aliases {
				resolved, err := search.ParseAlgorithm(alias)
				if err != nil || resolved != doc.Name {
					fmt.Fprintf(os.Stderr, "Error: alias %q does not resolve to %s\n", alias, doc.Name)
					os.Exit(1)
				}
			}
		}
	}
	for _, a := range search.Algorithms() {
		if !documented[a] {
			fmt.Fprintf(os.Stderr, "Error: algorithm %s has no documentation entry\n", a)
			os.Exit(1)
		}
	}

	generateMarkdown(categories)
}

// buildCategories assembles the registry, pulling every default from
// the engine so the document tracks the code.
func buildCategories() []algorithmCategory {
	random := search.DefaultRandomConfig()
	bfs := search.DefaultBFSConfig()
	hill := search.DefaultHillclimberConfig()
	ann := search.DefaultAnnealingConfig()
	fress := search.DefaultFressConfig()

	constructive := algorithmCategory{
		Name: "Constructive Algorithms",
		Description: "Algorithms that build a complete fold from nothing. " +
			"They are the cheapest way to get a valid structure and the usual seeds for refinement.",
		Algorithms: []algorithmDoc{
			{
				Name:    search.AlgorithmSpiral,
				UseWhen: "You need a deterministic, always-valid structure: reproducible seeds, rendering demos, test fixtures.",
				Strategy: "Places the chain along a rectangular spiral. No randomness, no failure mode, " +
					"and typically a poor score; it exists as a starting point, not a result.",
			},
			{
				Name:    search.AlgorithmBaseline,
				Aliases: []string{"random"},
				UseWhen: "You want an unbiased sample of the conformation space or a control to measure other algorithms against.",
				Strategy: "Grows a self-avoiding walk with a uniform pick among untried steps at each position. " +
					"Dead ends truncate one monomer and resume with that position's remaining untried steps; " +
					"exhausting the origin proves the sequence unfoldable for this walk.",
				Tunables: []tunableDoc{
					{"MaxBacktracks", fmt.Sprintf("%d", random.MaxBacktracks), "Dead-end recoveries before the walk gives up."},
				},
			},
			{
				Name:    search.AlgorithmBFS,
				Aliases: []string{"bfs"},
				UseWhen: "Short chains where near-exhaustive local enumeration pays off.",
				Strategy: "Enumerates every continuation of the next window, prunes rotation and mirror " +
					"duplicates, commits the best survivor with uniform tie-breaking, then slides the window. " +
					"Independent restarts run concurrently and the best result wins.",
				Tunables: []tunableDoc{
					{"MaxDepth", fmt.Sprintf("%d (2D) / %d (3D)", bfs.DepthFor(lattice.Dim2), bfs.DepthFor(lattice.Dim3)), "Window depth; zero selects the per-dimension default."},
					{"Restarts", fmt.Sprintf("%d", bfs.Restarts), "Independent multi-start repetitions."},
				},
			},
		},
	}

	refinement := algorithmCategory{
		Name: "Refinement Algorithms",
		Description: "Algorithms that improve an existing fold by rewriting segments between anchored " +
			"endpoints. Unless a starting fold is injected, the hillclimber seeds from the deterministic " +
			"spiral while the annealer and FRESS draw random baseline walks.",
		Algorithms: []algorithmDoc{
			{
				Name:    search.AlgorithmHillclimber,
				Aliases: []string{"hillclimb"},
				UseWhen: "Quick score polish where getting trapped in a local minimum is acceptable.",
				Strategy: "Re-solves a random segment's interior exhaustively each iteration and accepts the " +
					"best replacement only on strict whole-fold improvement, so the accepted-score sequence never rises.",
				Tunables: []tunableDoc{
					{"Iterations", fmt.Sprintf("%d", hill.Iterations), "Segment proposals."},
					{"MinSegment", fmt.Sprintf("%d", hill.MinSegment), "Smallest rewritten segment."},
					{"MaxSegment", fmt.Sprintf("%d", hill.MaxSegment), "Largest rewritten segment."},
				},
			},
			{
				Name:    search.AlgorithmAnnealing,
				Aliases: []string{"annealing"},
				UseWhen: "The default choice for serious searches; escapes the local minima that trap the hillclimber.",
				Strategy: "Same segment machinery as the hillclimber, but proposals are uniform draws and " +
					"acceptance follows the annealing rule: never reject an equal-or-better fold, accept a worse " +
					"one with probability 2^((old-new)/T) while T decays geometrically.",
				Tunables: []tunableDoc{
					{"Iterations", fmt.Sprintf("%d", ann.Iterations), "Segment proposals."},
					{"StartTemperature", fmt.Sprintf("%g", ann.StartTemperature), "Initial acceptance temperature."},
					{"CoolingRate", fmt.Sprintf("%g", ann.CoolingRate), "Per-iteration geometric decay factor."},
					{"MinSegment", fmt.Sprintf("%d", ann.MinSegment), "Smallest rewritten segment."},
					{"MaxSegment", fmt.Sprintf("%d", ann.MaxSegment), "Largest rewritten segment."},
				},
			},
			{
				Name:    search.AlgorithmFress,
				UseWhen: "Long chains where whole-structure proposals stop helping and the weak region is obvious from contacts.",
				Strategy: "Seeds with the best of a bounded batch of random walks, then repeatedly finds the " +
					"chain third with the weakest contacts and regrows it between its anchors, keeping strict " +
					"improvements until no third qualifies or a full round stalls.",
				Tunables: []tunableDoc{
					{"SeedAttempts", fmt.Sprintf("%d", fress.SeedAttempts), "Random walks sampled for the starting fold."},
					{"MaxRounds", fmt.Sprintf("%d", fress.MaxRounds), "Regrowth rounds before stopping."},
					{"AttemptsPerResidue", fmt.Sprintf("%d", fress.AttemptsPerResidue), "Regrowth attempts per segment residue."},
				},
			},
		},
	}

	return []algorithmCategory{constructive, refinement}
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(categories []algorithmCategory) {
	fmt.Println("# Algorithm Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document provides a reference for the lattice search algorithms available in hpfold.")
	fmt.Println("The algorithm registry lives in `services/foldengine/search` and every default below is read")
	fmt.Println("from the engine at generation time.")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	totalAlgorithms := 0
	totalAliases := 0
	totalTunables := 0
	for _, cat := range categories {
		totalAlgorithms += len(cat.Algorithms)
		for _, doc := range cat.Algorithms {
			totalAliases += len(doc.Aliases)
			totalTunables += len(doc.Tunables)
		}
	}

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Total Algorithms | %d |\n", totalAlgorithms)
	fmt.Printf("| Accepted Aliases | %d |\n", totalAliases)
	fmt.Printf("| Tunables | %d |\n", totalTunables)
	fmt.Printf("| Categories | %d |\n", len(categories))
	fmt.Println()

	// Table of contents
	fmt.Println("## Table of Contents")
	fmt.Println()
	for i, cat := range categories {
		fmt.Printf("%d. [%s](#%s)\n", i+1, cat.Name, strings.ToLower(strings.ReplaceAll(cat.Name, " ", "-")))
	}
	fmt.Println()

	// Quick reference table
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Algorithm | Category | Aliases | Tunables |")
	fmt.Println("|-----------|----------|---------|----------|")
	for _, cat := range categories {
		for _, doc := range cat.Algorithms {
			aliasStr := "none"
			if len(doc.Aliases) > 0 {
				aliasStr = "`" + strings.Join(doc.Aliases, "`, `") + "`"
			}
			fmt.Printf("| `%s` | %s | %s | %d |\n", doc.Name, cat.Name, aliasStr, len(doc.Tunables))
		}
	}
	fmt.Println()

	// Detailed sections per category
	fmt.Println("---")
	fmt.Println()
	for _, cat := range categories {
		fmt.Printf("## %s\n", cat.Name)
		fmt.Println()
		fmt.Println(cat.Description)
		fmt.Println()

		for _, doc := range cat.Algorithms {
			printAlgorithmDetails(doc)
		}
	}

	// Alias index
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Alias Index")
	fmt.Println()
	fmt.Println("Aliases are accepted anywhere an algorithm name is: the `--algorithm` flag, the config")
	fmt.Println("file, and the HTTP API.")
	fmt.Println()

	aliasIndex := make(map[string]search.Algorithm)
	for _, cat := range categories {
		for _, doc := range cat.Algorithms {
			for _, alias := range doc.Aliases {
				aliasIndex[alias] = doc.Name
			}
		}
	}
	aliases := make([]string, 0, len(aliasIndex))
	for a := range aliasIndex {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	fmt.Println("| Alias | Resolves To |")
	fmt.Println("|-------|-------------|")
	for _, alias := range aliases {
		fmt.Printf("| `%s` | `%s` |\n", alias, aliasIndex[alias])
	}
	fmt.Println()

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Println("*This document is auto-generated from the algorithm registry in `services/foldengine/search`.*")
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_algorithm_docs.go > docs/algorithm_reference.md`*")
}

// printAlgorithmDetails prints detailed information for one algorithm.
func printAlgorithmDetails(doc algorithmDoc) {
	fmt.Printf("### `%s`\n", doc.Name)
	fmt.Println()

	fmt.Println("| Property | Value |")
	fmt.Println("|----------|-------|")
	fmt.Printf("| **Use When** | %s |\n", doc.UseWhen)
	if len(doc.Aliases) > 0 {
		fmt.Printf("| **Aliases** | `%s` |\n", strings.Join(doc.Aliases, "`, `"))
	}
	fmt.Println()

	fmt.Println(doc.Strategy)
	fmt.Println()

	if len(doc.Tunables) > 0 {
		fmt.Println("**Tunables:**")
		fmt.Println()
		fmt.Println("| Knob | Default | Meaning |")
		fmt.Println("|------|---------|---------|")
		for _, tun := range doc.Tunables {
			fmt.Printf("| `%s` | %s | %s |\n", tun.Name, tun.Default, tun.Meaning)
		}
		fmt.Println()
	}
}
