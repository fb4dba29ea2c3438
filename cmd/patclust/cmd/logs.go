package cmd

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/logging"
)

type logsOptions struct {
	lines   int
	follow  bool
	level   string
	pattern string
	file    string
	noColor bool
}

func newLogsCmd(root *rootOptions) *cobra.Command {
	o := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the debug log",
		Long: `View the log written by commands run with --debug.

The log lives in ~/.patclust/logs/patclust.log (under the configured data
directory) and is rotated by size.`,
		Example: `  patclust logs
  patclust logs -n 200 --level warn
  patclust logs -f --grep clustering`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, root, o)
		},
	}

	cmd.Flags().IntVarP(&o.lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVarP(&o.follow, "follow", "f", false, "Follow the log as it grows")
	cmd.Flags().StringVar(&o.level, "level", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().StringVar(&o.pattern, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&o.file, "file", "", "Log file to read (default: the patclust log)")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runLogs(cmd *cobra.Command, root *rootOptions, o *logsOptions) error {
	cfg, err := root.config("", nil)
	if err != nil {
		return err
	}

	path, err := logging.FindLogFile(cfg.Storage.DataDir, o.file)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeFileNotFound, err.Error(), err).
			WithSuggestion("run a command with --debug to create the log")
	}

	vc := logging.ViewerConfig{Level: o.level, NoColor: o.noColor}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		vc.NoColor = true
	}
	if o.pattern != "" {
		re, err := regexp.Compile(o.pattern)
		if err != nil {
			return apperrors.ValidationError(fmt.Sprintf("invalid --grep expression %q", o.pattern), err)
		}
		vc.Pattern = re
	}

	viewer := logging.NewViewer(vc, cmd.OutOrStdout())
	entries, err := viewer.Tail(path, o.lines)
	if err != nil {
		return apperrors.IOError("cannot read log file", err)
	}
	viewer.Print(entries)

	if !o.follow {
		return nil
	}

	ch := make(chan logging.LogEntry, 64)
	done := make(chan error, 1)
	go func() {
		done <- viewer.Follow(cmd.Context(), path, ch)
		close(ch)
	}()
	for entry := range ch {
		viewer.Print([]logging.LogEntry{entry})
	}
	return <-done
}
