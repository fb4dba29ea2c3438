package clustering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/pa"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

// DefaultCacheSize is the default number of pattern automata memoized by a
// Clusterer.
const DefaultCacheSize = 4096

// Config configures a Clusterer.
type Config struct {
	Options
	// Preprocess clusters one line per group of identical automata.
	Preprocess bool
	// Automaton tunes how lines are turned into pattern automata.
	Automaton pa.Options
	// CacheSize bounds the automaton memo. Defaults to DefaultCacheSize.
	CacheSize int
}

// Result is the outcome of a clustering run.
type Result struct {
	Lines    []string
	Clusters []int
	Automata []*pa.Automaton
}

// NumClusters returns the number of distinct clusters.
func (r *Result) NumClusters() int {
	n := 0
	for i, c := range r.Clusters {
		if c == i {
			n++
		}
	}
	return n
}

// Clusterer turns lines into pattern automata and clusters them. Automata of
// repeated lines are memoized across runs. It is safe for concurrent use.
type Clusterer struct {
	env   *patterns.Env
	cfg   Config
	cache *lru.Cache[string, *pa.Automaton]
}

// New creates a Clusterer over env.
func New(env *patterns.Env, cfg Config) (*Clusterer, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidThreshold,
			fmt.Sprintf("threshold must be in [0, 1], got %v", cfg.Threshold), nil)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *pa.Automaton](cfg.CacheSize)
	if err != nil {
		return nil, apperrors.InternalError("cannot create automaton cache", err)
	}
	return &Clusterer{env: env, cfg: cfg, cache: cache}, nil
}

// Env returns the pattern environment.
func (c *Clusterer) Env() *patterns.Env { return c.env }

// Automaton returns the pattern automaton of w, memoized.
func (c *Clusterer) Automaton(w string) (*pa.Automaton, error) {
	if a, ok := c.cache.Get(w); ok {
		return a, nil
	}
	a, err := pa.Build(w, c.env, c.cfg.Automaton)
	if err != nil {
		return nil, apperrors.ValidationError("cannot build pattern automaton", err)
	}
	c.cache.Add(w, a)
	return a, nil
}

// Automata builds the pattern automata of lines in parallel.
func (c *Clusterer) Automata(ctx context.Context, lines []string) ([]*pa.Automaton, error) {
	out := make([]*pa.Automaton, len(lines))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.workers())
	for i, w := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := c.Automaton(w)
			if err != nil {
				return err
			}
			out[i] = a
			c.cfg.report(PhaseAutomata, int(done.Add(1)), len(lines))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run clusters lines.
func (c *Clusterer) Run(ctx context.Context, lines []string) (*Result, error) {
	start := time.Now()
	pas, err := c.Automata(ctx, lines)
	if err != nil {
		return nil, wrapRunError(err)
	}

	var clusters []int
	if c.cfg.Preprocess {
		clusters, err = c.clusterGroups(ctx, pas)
	} else {
		clusters, err = Cluster(ctx, pas, c.env.Densities(), c.cfg.Options)
	}
	if err != nil {
		return nil, wrapRunError(err)
	}

	res := &Result{Lines: lines, Clusters: clusters, Automata: pas}
	slog.Info("clustering_complete",
		slog.Int("lines", len(lines)),
		slog.Int("clusters", res.NumClusters()),
		slog.Bool("preprocess", c.cfg.Preprocess),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// clusterGroups clusters one line per group of identical automata and
// propagates the result to the other members.
func (c *Clusterer) clusterGroups(ctx context.Context, pas []*pa.Automaton) ([]int, error) {
	groups := GroupIdentical(pas)
	heads := make([]*pa.Automaton, len(groups))
	for g, members := range groups {
		heads[g] = pas[members[0]]
	}
	slog.Debug("preprocess_groups",
		slog.Int("lines", len(pas)),
		slog.Int("groups", len(groups)))

	headClusters, err := Cluster(ctx, heads, c.env.Densities(), c.cfg.Options)
	if err != nil {
		return nil, err
	}
	clusters := make([]int, len(pas))
	for g, members := range groups {
		// headClusters holds group indices; clusters hold line indices.
		rep := groups[headClusters[g]][0]
		for _, i := range members {
			clusters[i] = rep
		}
	}
	return clusters, nil
}

// GroupIdentical groups the indices of identical automata. Groups are
// ordered by first occurrence and members are ascending.
func GroupIdentical(pas []*pa.Automaton) [][]int {
	var groups [][]int
	index := make(map[string]int)
	for i, a := range pas {
		sig := a.Signature()
		g, ok := index[sig]
		if !ok {
			g = len(groups)
			index[sig] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func wrapRunError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.ErrCodeCancelled, "clustering cancelled", err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.New(apperrors.ErrCodeClusteringFailed, "clustering failed", err)
}
