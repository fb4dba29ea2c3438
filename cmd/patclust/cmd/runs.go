package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/config"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/output"
	"github.com/Aman-CERP/patclust/internal/render"
	"github.com/Aman-CERP/patclust/internal/store"
	"github.com/Aman-CERP/patclust/internal/ui"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage the history of clustering runs",
		Long: `Manage the history of clustering runs saved with 'patclust cluster --save'.

The history is stored in runs.db under the data directory (~/.patclust by
default, PATCLUST_DATA_DIR or storage.data_dir to change it).`,
	}

	cmd.AddCommand(newRunsListCmd(root))
	cmd.AddCommand(newRunsShowCmd(root))
	cmd.AddCommand(newRunsDeleteCmd(root))
	cmd.AddCommand(newRunsSearchCmd(root))

	return cmd
}

// withStore opens the run history for the duration of fn.
func withStore(ctx context.Context, root *rootOptions, fn func(context.Context, *store.Store, *config.Config) error) error {
	cfg, err := root.config("", nil)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(ctx, s, cfg)
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError(fmt.Sprintf("invalid run id %q", arg), err).
			WithSuggestion("run 'patclust runs list' to see the run ids")
	}
	return id, nil
}

func newRunsListCmd(root *rootOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), root, func(ctx context.Context, s *store.Store, _ *config.Config) error {
				runs, err := s.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []store.Run{}
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(runs)
				}

				out := output.New(cmd.OutOrStdout(), false)
				if len(runs) == 0 {
					out.Status("", "No runs stored yet. Use 'patclust cluster --save'.")
					return nil
				}
				rows := [][]string{{"id", "created", "lines", "clusters", "threshold", "source"}}
				for _, r := range runs {
					rows = append(rows, []string{
						strconv.FormatInt(r.ID, 10),
						r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						strconv.Itoa(r.NumLines),
						strconv.Itoa(r.NumClusters),
						strconv.FormatFloat(r.Threshold, 'g', -1, 64),
						r.Source,
					})
				}
				out.Table(rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newRunsShowCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show the clusters of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), root, func(ctx context.Context, s *store.Store, _ *config.Config) error {
				run, err := s.GetRun(ctx, id)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				switch format {
				case formatJSON:
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(run)
				case formatText:
					lines := make([]string, len(run.Assignments))
					for i, a := range run.Assignments {
						lines[i] = a.Line
					}
					out := output.New(w, false)
					out.Statusf("#", "run %d: %s, %d lines, %d clusters, threshold %g",
						run.ID, run.Source, run.NumLines, run.NumClusters, run.Threshold)
					return render.NewTerminal(w, ui.ColorEnabled(w)).Lines(lines, run.Clusters())
				default:
					return apperrors.ValidationError(fmt.Sprintf("unknown format %q", format), nil).
						WithSuggestion("use json or text")
				}
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text or json")

	return cmd
}

func newRunsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := parseRunID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return withStore(cmd.Context(), root, func(ctx context.Context, s *store.Store, _ *config.Config) error {
				out := output.New(cmd.OutOrStdout(), false)
				for _, id := range ids {
					if err := s.DeleteRun(ctx, id); err != nil {
						return err
					}
					out.Successf("Deleted run %d", id)
				}
				return nil
			})
		},
	}
}

func newRunsSearchCmd(root *rootOptions) *cobra.Command {
	var (
		runID      int64
		limit      int
		backend    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the lines of stored runs",
		Long: `Search the lines of stored runs, best match first.

Lines must contain every word of the query. Words are matched case
insensitively, and identifiers such as connectionTimeout or user_login
match their parts.`,
		Example: `  patclust runs search connection reset
  patclust runs search --run 3 --json timeout`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withStore(cmd.Context(), root, func(ctx context.Context, s *store.Store, cfg *config.Config) error {
				if !cmd.Flags().Changed("backend") {
					backend = cfg.Storage.SearchBackend
				}
				searcher, err := store.NewLineSearcher(s, backend)
				if err != nil {
					return err
				}
				defer func() { _ = searcher.Close() }()

				hits, err := searcher.Search(ctx, query, store.SearchOptions{RunID: runID, Limit: limit})
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(hits)
				}

				out := output.New(cmd.OutOrStdout(), false)
				if len(hits) == 0 {
					out.Status("", fmt.Sprintf("No line matches %q.", query))
					return nil
				}
				rows := [][]string{{"run", "row", "cluster", "score", "line"}}
				for _, h := range hits {
					rows = append(rows, []string{
						strconv.FormatInt(h.RunID, 10),
						strconv.Itoa(h.Row),
						strconv.Itoa(h.Cluster),
						strconv.FormatFloat(h.Score, 'f', 3, 64),
						h.Line,
					})
				}
				out.Table(rows)
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&runID, "run", "r", 0, "Search only this run")
	cmd.Flags().IntVarP(&limit, "limit", "l", store.DefaultSearchLimit, "Maximum number of lines")
	cmd.Flags().StringVar(&backend, "backend", "", "Search backend: sqlite or bleve (default from storage.search_backend)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
