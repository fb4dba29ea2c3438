package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/clustering"
	"github.com/Aman-CERP/patclust/internal/config"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/output"
	"github.com/Aman-CERP/patclust/internal/render"
	"github.com/Aman-CERP/patclust/internal/store"
	"github.com/Aman-CERP/patclust/internal/ui"
)

// Output formats of the cluster command.
const (
	formatJSON    = "json"
	formatText    = "text"
	formatSummary = "summary"
	// formatSummaryJSON is the summary as JSON, for scripts.
	formatSummaryJSON = "summary-json"
)

type clusterOptions struct {
	configFile string
	inputFile  string
	htmlFile   string
	outputFile string
	threshold  float64
	noAsync    bool
	preprocess bool
	format     string
	names      bool
	save       bool
	workers    int
	verbose    bool
	progress   bool
}

func newClusterCmd(root *rootOptions) *cobra.Command {
	o := &clusterOptions{}

	cmd := &cobra.Command{
		Use:   "cluster [FILE]",
		Short: "Cluster the lines of a file",
		Long: `Cluster the lines of FILE, or of the standard input.

The default output is the JSON list of the cluster of each line. A cluster
is identified by the index of its first line, so [0, 0, 2] means that
lines 0 and 1 are in the same cluster and line 2 is alone.

Values of the configuration file given with --config supersede the
command-line flags.`,
		Example: `  # JSON assignment on stdout
  patclust cluster app.log

  # Tighter clusters, HTML report
  patclust cluster -t 0.3 -H report.html app.log

  # Read stdin, print one block per cluster
  tail -n 1000 app.log | patclust cluster --format summary

  # Keep the run in the history
  patclust cluster --save app.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.inputFile = args[0]
			}
			return runCluster(cmd, root, o)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.configFile, "config", "c", "", "YAML or JSON configuration file; supersedes command-line flags")
	flags.StringVarP(&o.inputFile, "input-file", "i", "", "Input file (default: standard input)")
	flags.StringVarP(&o.htmlFile, "html-file", "H", "", "Write a human readable HTML report to this file")
	flags.StringVarP(&o.outputFile, "output-file", "o", "", "Write the result to this file instead of stdout")
	flags.Float64VarP(&o.threshold, "threshold", "t", clustering.DefaultThreshold, "Clustering threshold in [0, 1]; lower means smaller clusters")
	flags.BoolVarP(&o.noAsync, "no-async", "n", false, "Evaluate distances sequentially")
	flags.BoolVarP(&o.preprocess, "with-preprocessing", "p", false, "Group lines with the same pattern structure before clustering")
	flags.StringVar(&o.format, "format", formatJSON, "Output format: json, text, summary or summary-json")
	flags.BoolVar(&o.names, "names", false, "Label HTML clusters with their pattern template")
	flags.BoolVar(&o.save, "save", false, "Store the run in the history")
	flags.IntVar(&o.workers, "workers", 0, "Parallel workers (default: number of CPUs)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Print the effective settings on stderr")
	flags.BoolVar(&o.progress, "progress", false, "Show clustering progress on stderr")

	return cmd
}

func runCluster(cmd *cobra.Command, root *rootOptions, o *clusterOptions) error {
	switch o.format {
	case formatJSON, formatText, formatSummary, formatSummaryJSON:
	default:
		return apperrors.ValidationError(fmt.Sprintf("unknown format %q", o.format), nil).
			WithSuggestion("use json, text, summary or summary-json")
	}

	cfg, err := root.config(o.configFile, func(c *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("threshold") {
			c.Threshold = o.threshold
		}
		if flags.Changed("no-async") {
			c.Clustering.NoAsync = o.noAsync
		}
		if flags.Changed("with-preprocessing") {
			c.Clustering.Preprocess = o.preprocess
		}
		if flags.Changed("workers") {
			c.Clustering.Workers = o.workers
		}
		if flags.Changed("save") {
			c.Storage.Save = o.save
		}
	})
	if err != nil {
		return err
	}

	lines, source, err := readInput(cmd.InOrStdin(), o.inputFile)
	if err != nil {
		return err
	}

	env, err := cfg.Env()
	if err != nil {
		return err
	}
	if o.verbose {
		out := output.New(cmd.ErrOrStderr(), false)
		out.Statusf("*", "threshold: %g", cfg.Threshold)
		out.Statusf("*", "preprocess: %t, async: %t", cfg.Clustering.Preprocess, !cfg.Clustering.NoAsync)
		out.Statusf("*", "patterns:")
		for _, line := range splitNonEmpty(env.String()) {
			out.Hint(line)
		}
	}

	clustererCfg := cfg.ClustererConfig()
	var progress *runProgress
	if o.progress {
		progress = startProgress(cmd.Context(), cmd.ErrOrStderr(), source)
		clustererCfg.Progress = progress.report
	}

	clusterer, err := clustering.New(env, clustererCfg)
	if err != nil {
		if progress != nil {
			progress.finish(nil)
		}
		return err
	}
	res, err := clusterer.Run(cmd.Context(), lines)
	if progress != nil {
		progress.finish(res)
	}
	if err != nil {
		return err
	}

	if err := writeClusterOutput(cmd, o, res, env.Densities()); err != nil {
		return err
	}

	if o.htmlFile != "" {
		opts := render.HTMLOptions{}
		if o.names {
			opts.ClusterNames = make(map[int]string)
			for _, s := range clustering.Summarize(res, env.Densities()) {
				opts.ClusterNames[s.ID] = s.Template
			}
		}
		if err := writeFile(o.htmlFile, []byte(render.PageWithOptions(res.Lines, res.Clusters, opts))); err != nil {
			return err
		}
		slog.Info("html_report_written", slog.String("path", o.htmlFile))
	}

	if cfg.Storage.Save {
		return saveRun(cmd.Context(), cmd.ErrOrStderr(), cfg, source, res)
	}
	return nil
}

// writeClusterOutput writes the result in the requested format to the
// output file, or to stdout.
func writeClusterOutput(cmd *cobra.Command, o *clusterOptions, res *clustering.Result, densities []float64) error {
	var buf bytes.Buffer
	w := io.Writer(&buf)
	color := false
	if o.outputFile == "" {
		w = cmd.OutOrStdout()
		color = ui.ColorEnabled(w)
	}

	var err error
	switch o.format {
	case formatText:
		err = render.NewTerminal(w, color).Lines(res.Lines, res.Clusters)
	case formatSummary:
		err = render.NewTerminal(w, color).Summary(clustering.Summarize(res, densities))
	case formatSummaryJSON:
		err = render.WriteSummaryJSON(w, clustering.Summarize(res, densities))
	default:
		err = render.WriteJSON(w, res.Clusters)
	}
	if err != nil {
		return apperrors.New(apperrors.ErrCodeWriteFailed, "cannot write result", err)
	}

	if o.outputFile != "" {
		return writeFile(o.outputFile, buf.Bytes())
	}
	return nil
}

func saveRun(ctx context.Context, w io.Writer, cfg *config.Config, source string, res *clustering.Result) error {
	if len(res.Lines) == 0 {
		return apperrors.New(apperrors.ErrCodeEmptyInput, "nothing to save: the input has no lines", nil)
	}

	s, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	id, err := s.SaveRun(ctx, store.NewRun(source, cfg.Threshold, res))
	if err != nil {
		return err
	}
	output.New(w, false).Successf("Saved run %d (%d lines, %d clusters)", id, len(res.Lines), res.NumClusters())
	return nil
}
