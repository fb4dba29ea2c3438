package cmd

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/patclust/internal/clustering"
	"github.com/Aman-CERP/patclust/internal/ui"
)

// runProgress forwards clustering progress to a ui.Renderer and measures
// the duration of each phase.
type runProgress struct {
	renderer ui.Renderer

	mu          sync.Mutex
	start       time.Time
	automataEnd time.Time
}

func startProgress(ctx context.Context, w io.Writer, source string) *runProgress {
	cfg := ui.NewConfig(w, ui.WithSource(source), ui.WithNoColor(ui.DetectNoColor()))
	p := &runProgress{renderer: ui.NewRenderer(cfg), start: time.Now()}
	if err := p.renderer.Start(ctx); err != nil {
		slog.Debug("progress_start_failed", slog.String("error", err.Error()))
	}
	p.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageReading, Message: source})
	return p
}

// report implements clustering.ProgressFunc.
func (p *runProgress) report(phase clustering.Phase, done, total int) {
	stage := ui.StageAutomata
	if phase == clustering.PhaseClustering {
		stage = ui.StageClustering
		p.mu.Lock()
		if p.automataEnd.IsZero() {
			p.automataEnd = time.Now()
		}
		p.mu.Unlock()
	}
	p.renderer.UpdateProgress(ui.ProgressEvent{Stage: stage, Current: done, Total: total})
}

// finish prints the summary of res, when the run succeeded, and stops the
// renderer.
func (p *runProgress) finish(res *clustering.Result) {
	if res != nil {
		end := time.Now()
		p.mu.Lock()
		automataEnd := p.automataEnd
		p.mu.Unlock()
		if automataEnd.IsZero() {
			automataEnd = end
		}
		p.renderer.Complete(ui.CompletionStats{
			Lines:    len(res.Lines),
			Clusters: res.NumClusters(),
			Duration: end.Sub(p.start),
			Stages: ui.StageTimings{
				Automata:   automataEnd.Sub(p.start),
				Clustering: end.Sub(automataEnd),
			},
		})
	}
	_ = p.renderer.Stop()
}
