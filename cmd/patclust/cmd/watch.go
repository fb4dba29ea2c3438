package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/clustering"
	"github.com/Aman-CERP/patclust/internal/config"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/output"
	"github.com/Aman-CERP/patclust/internal/render"
	"github.com/Aman-CERP/patclust/internal/ui"
	"github.com/Aman-CERP/patclust/internal/watch"
)

type watchOptions struct {
	configFile string
	threshold  float64
	debounce   time.Duration
	poll       bool
	format     string
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	o := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-cluster a file every time it changes",
		Long: `Cluster FILE, then cluster it again every time it settles after a
change, until interrupted. Changes closer than the debounce window are
coalesced into one run. Falls back to polling when file notifications are
unavailable.`,
		Example: `  patclust watch /var/log/app.log
  patclust watch --debounce 2s --format json app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, o, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.configFile, "config", "c", "", "YAML or JSON configuration file; supersedes command-line flags")
	flags.Float64VarP(&o.threshold, "threshold", "t", clustering.DefaultThreshold, "Clustering threshold in [0, 1]")
	flags.DurationVar(&o.debounce, "debounce", 0, "Quiet period before re-clustering (default from configuration, 300ms)")
	flags.BoolVar(&o.poll, "poll", false, "Poll the file instead of using file notifications")
	flags.StringVar(&o.format, "format", formatSummary, "Output format: summary, text or json")

	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, o *watchOptions, path string) error {
	switch o.format {
	case formatSummary, formatText, formatJSON:
	default:
		return apperrors.ValidationError(fmt.Sprintf("unknown format %q", o.format), nil).
			WithSuggestion("use summary, text or json")
	}

	cfg, err := root.config(o.configFile, func(c *config.Config) {
		if cmd.Flags().Changed("threshold") {
			c.Threshold = o.threshold
		}
		if cmd.Flags().Changed("debounce") {
			c.Watch.Debounce = o.debounce.String()
		}
	})
	if err != nil {
		return err
	}
	env, err := cfg.Env()
	if err != nil {
		return err
	}
	// One clusterer for the whole session so unchanged lines hit the memo.
	clusterer, err := clustering.New(env, cfg.ClustererConfig())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	status := output.New(cmd.ErrOrStderr(), ui.ColorEnabled(cmd.ErrOrStderr()))
	recluster := func(ctx context.Context) error {
		lines, _, err := readInput(nil, path)
		if err != nil {
			return err
		}
		res, err := clusterer.Run(ctx, lines)
		if err != nil {
			return err
		}
		return writeWatchResult(w, o.format, res, env.Densities())
	}

	status.Statusf("*", "Watching %s (Ctrl+C to stop)", path)
	if err := recluster(cmd.Context()); err != nil {
		return err
	}

	opts := cfg.WatchOptions()
	opts.ForcePolling = o.poll
	return watch.Watch(cmd.Context(), path, opts, func(ctx context.Context, batch []watch.Event) error {
		if len(batch) == 0 {
			return nil
		}
		last := batch[len(batch)-1]
		if last.Operation == watch.OpDelete {
			status.Warningf("%s was removed, waiting for it to come back", path)
			return nil
		}
		if _, err := os.Stat(path); err != nil {
			status.Warningf("%s is not readable: %v", path, err)
			return nil
		}
		slog.Debug("watch_recluster", slog.String("path", path), slog.String("op", last.Operation.String()))
		status.Statusf("*", "%s changed, clustering again", path)
		return recluster(ctx)
	})
}

func writeWatchResult(w io.Writer, format string, res *clustering.Result, densities []float64) error {
	color := ui.ColorEnabled(w)
	switch format {
	case formatText:
		return render.NewTerminal(w, color).Lines(res.Lines, res.Clusters)
	case formatJSON:
		return render.WriteJSON(w, res.Clusters)
	default:
		return render.NewTerminal(w, color).Summary(clustering.Summarize(res, densities))
	}
}
