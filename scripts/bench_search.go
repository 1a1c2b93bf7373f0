//go:build ignore

// Test script to exercise every search algorithm end to end.
// Run with: go run scripts/bench_search.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/hpfold/services/foldengine/fold"
	"github.com/AleutianAI/hpfold/services/foldengine/lattice"
	"github.com/AleutianAI/hpfold/services/foldengine/search"
)

// The named benchmark set: mixed lengths, with and without cysteine.
var benchmarks = []string{
	"HHPHHHPHPHHHPH",
	"HPHPPHHPHPPHPHHPPHPH",
	"PPPHHPPHHPPPPPHHHHHHHPPHHPPPPHHPPHPP",
	"HHPHPHPHPHHHHPHPPPHPPPHPPPPHPPPHPPPHPHHHHPHPHPHPHH",
	"PPCHHPPCHPPPPCHHHHCHHPPHHPPPPHHPPHPP",
	"CPPCHPPCHPPCPPHHHHHHCCPCHPPCPCHPPHPC",
	"HCPHPHPHCHHHHPCCPPHPPPHPPPPCPPPHPPPHPHHHHCHPHPHPHH",
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              SEARCH ENGINE SMOKE BENCHMARK                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")

	failures := 0
	for _, dim := range []lattice.Dimension{lattice.Dim2, lattice.Dim3} {
		fmt.Println()
		fmt.Println("┌─────────────────────────────────────────────────────────────────┐")
		fmt.Printf("│ Lattice: %-55s│\n", dim)
		fmt.Println("└─────────────────────────────────────────────────────────────────┘")

		for _, seq := range benchmarks {
			protein, err := fold.ParseSequence(seq)
			if err != nil {
				fmt.Printf("  ✗ bad benchmark sequence %q: %v\n", seq, err)
				failures++
				continue
			}

			label := seq
			if len(label) > 28 {
				label = label[:25] + "..."
			}
			fmt.Printf("\n  %s (%d monomers)\n", label, protein.Len())

			for _, alg := range search.Algorithms() {
				res, err := search.Run(ctx, protein, dim, alg, 0, nil)
				switch {
				case errors.Is(err, context.DeadlineExceeded):
					fmt.Printf("    ✗ %-20s timed out\n", alg)
					failures++
				case errors.Is(err, search.ErrUnfoldable):
					// The baseline's backtrack budget can legitimately run
					// out on long chains; report it without failing.
					fmt.Printf("    ~ %-20s no fold within budget\n", alg)
				case err != nil:
					fmt.Printf("    ✗ %-20s %v\n", alg, err)
					failures++
				default:
					fmt.Printf("    ✓ %-20s score %4d  %8d iterations  %8s\n",
						alg, res.Score, res.Iterations,
						res.Elapsed.Round(time.Millisecond))
				}
			}
		}
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("✗ %d algorithm runs failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("✓ all algorithm runs completed")
}
