package main

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/hpfold/pkg/ux"
)

// searchProgress pairs a terminal spinner with a throttled progress
// log. Batch workers call Step concurrently; the spinner shows live
// counts while the log gets at most one record per interval so a
// 10k-case grid does not flood the log file.
//
// Thread Safety: Step is safe from multiple goroutines.
type searchProgress struct {
	spin    *ux.ProgressSpinner
	limiter *rate.Limiter
	label   string
	total   int
	done    atomic.Int64
}

// newSearchProgress starts tracking. quiet skips the spinner (JSON and
// --quiet modes must keep stdout and stderr clean) but keeps the log.
func newSearchProgress(label string, total int, quiet bool) *searchProgress {
	p := &searchProgress{
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		label:   label,
		total:   total,
	}
	if !quiet {
		p.spin = ux.NewProgressSpinner(label, total)
		p.spin.Start()
	}
	slog.Info("starting", "label", label, "cases", total)
	return p
}

// Step records one completed case.
func (p *searchProgress) Step(detail string) {
	n := p.done.Add(1)
	if p.spin != nil {
		p.spin.Increment()
	}
	if p.limiter.Allow() {
		slog.Info("progress", "label", p.label, "done", n, "total", p.total, "last", detail)
	}
}

// Done returns how many cases have completed.
func (p *searchProgress) Done() int {
	return int(p.done.Load())
}

// Stop ends the spinner. The final tally always logs, bypassing the
// limiter.
func (p *searchProgress) Stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
	slog.Info("finished", "label", p.label, "done", p.done.Load(), "total", p.total)
}
