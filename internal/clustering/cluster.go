// Package clustering groups lines whose pattern automata are close.
//
// The algorithm is a leader clustering: lines are visited in order and each
// line joins the closest existing representative when its normalized pattern
// distance is below the threshold, or becomes a new representative otherwise.
package clustering

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/patclust/internal/distance"
	"github.com/Aman-CERP/patclust/internal/pa"
)

// DefaultThreshold is the default maximum normalized distance between a line
// and its representative.
const DefaultThreshold = 0.6

// Options tunes Cluster.
type Options struct {
	// Threshold is the exclusive upper bound of the normalized distance
	// between a line and its representative.
	Threshold float64
	// Async evaluates the distances to the representatives in parallel.
	Async bool
	// Workers bounds the parallelism. Defaults to runtime.NumCPU().
	Workers int
	// Progress, when set, is called after each processed line.
	Progress ProgressFunc
}

// Phase is a step of a clustering run.
type Phase int

const (
	// PhaseAutomata builds the pattern automata of the lines.
	PhaseAutomata Phase = iota
	// PhaseClustering assigns the lines to clusters.
	PhaseClustering
)

// ProgressFunc receives the number of items done out of total in a phase.
// It may be called from several goroutines at once.
type ProgressFunc func(phase Phase, done, total int)

func (o Options) report(phase Phase, done, total int) {
	if o.Progress != nil {
		o.Progress(phase, done, total)
	}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Cluster assigns a cluster to each automaton. The cluster of line i is the
// index of its representative, so clusters[i] <= i and representatives are
// their own cluster. Ties are resolved in favor of the earliest
// representative, which makes the parallel and sequential runs identical.
func Cluster(ctx context.Context, pas []*pa.Automaton, densities []float64, opts Options) ([]int, error) {
	start := time.Now()
	clusters := make([]int, len(pas))
	var reps []int

	for i := range pas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			j   int
			err error
		)
		if opts.Async && len(reps) > 1 {
			j, err = closestAsync(ctx, pas, reps, i, densities, opts)
		} else {
			j = closest(pas, reps, i, densities, opts.Threshold)
		}
		if err != nil {
			return nil, err
		}
		if j < 0 {
			reps = append(reps, i)
			clusters[i] = i
		} else {
			clusters[i] = j
		}
		opts.report(PhaseClustering, i+1, len(pas))
	}

	slog.Debug("clustering_done",
		slog.Int("lines", len(pas)),
		slog.Int("clusters", len(reps)),
		slog.Bool("async", opts.Async),
		slog.Duration("duration", time.Since(start)))
	return clusters, nil
}

// closest returns the representative closest to line i, or -1. The best
// distance found so far bounds the next searches.
func closest(pas []*pa.Automaton, reps []int, i int, densities []float64, threshold float64) int {
	best, bestDist := -1, threshold
	for _, j := range reps {
		d := distance.Normalized(pas[j], pas[i], densities, bestDist)
		if d >= 0 && d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func closestAsync(ctx context.Context, pas []*pa.Automaton, reps []int, i int, densities []float64, opts Options) (int, error) {
	dists := make([]float64, len(reps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for idx, j := range reps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dists[idx] = distance.Normalized(pas[j], pas[i], densities, opts.Threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, fmt.Errorf("line %d: %w", i, err)
	}

	best, bestDist := -1, opts.Threshold
	for idx, d := range dists {
		if d >= 0 && d < bestDist {
			best, bestDist = reps[idx], d
		}
	}
	return best, nil
}
