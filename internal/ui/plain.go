package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// plainSteps is the number of progress lines printed per stage.
const plainSteps = 10

// PlainRenderer outputs plain text progress (for CI/pipes). It prints a line
// when a stage starts and then every tenth of the stage.
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	source string
	stage  Stage
	step   int
	seen   bool
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, source: cfg.Source}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(_ context.Context) error {
	if r.source != "" {
		_, _ = fmt.Fprintf(r.out, "Clustering %s\n", r.source)
	}
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seen || event.Stage != r.stage {
		r.seen = true
		r.stage = event.Stage
		r.step = -1
	}

	if event.Total <= 0 {
		if event.Message != "" {
			_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
		}
		return
	}

	step := event.Current * plainSteps / event.Total
	if step <= r.step {
		return
	}
	r.step = step

	_, _ = fmt.Fprintf(r.out, "[%s] %d/%d", event.Stage.Icon(), event.Current, event.Total)
	if event.Message != "" {
		_, _ = fmt.Fprintf(r.out, " - %s", event.Message)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d lines, %d clusters in %s\n",
		stats.Lines, stats.Clusters, stats.Duration.Round(100*time.Millisecond))
	if stats.Stages.Automata > 0 || stats.Stages.Clustering > 0 {
		_, _ = fmt.Fprintf(r.out, "  Automata:   %s\n", stats.Stages.Automata.Round(time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Clustering: %s\n", stats.Stages.Clustering.Round(time.Millisecond))
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
