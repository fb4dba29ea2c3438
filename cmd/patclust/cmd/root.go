// Package cmd provides the CLI commands for patclust.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/config"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/logging"
	"github.com/Aman-CERP/patclust/internal/profiling"
	"github.com/Aman-CERP/patclust/pkg/version"
)

// rootOptions holds the persistent flags and the state shared by the
// subcommands of one invocation.
type rootOptions struct {
	debug   bool
	profile profiling.Options

	session        *profiling.Session
	loggingCleanup func()

	// cfg is the configuration loaded before the subcommand runs: defaults,
	// user configuration, then environment.
	cfg *config.Config
}

// NewRootCmd creates the root command for the patclust CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "patclust",
		Short: "Cluster log lines by their pattern structure",
		Long: `patclust groups lines that share the same structure.

Each line is described by the patterns it contains (integers, floats,
addresses, words...). Two lines are close when their pattern-level
decompositions can be aligned cheaply. Lines are then clustered in order:
a line joins the closest earlier cluster whose normalized distance is
below the threshold, or starts a new one.`,
		Example: `  # Cluster a log file, print the cluster of each line as JSON
  patclust cluster app.log

  # Human readable summary and an HTML report
  patclust cluster app.log --format summary -H report.html

  # How is a line decomposed?
  patclust explain "GET /index.html 200 0.012"`,
		Version:            version.Short(),
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  o.startProfilingAndLogging,
		PersistentPostRunE: o.stopProfilingAndLogging,
	}

	cmd.SetVersionTemplate("patclust version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&o.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&o.profile.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&o.profile.Trace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "Enable debug logging to ~/.patclust/logs/")

	cmd.AddCommand(newClusterCmd(o))
	cmd.AddCommand(newDistanceCmd(o))
	cmd.AddCommand(newGrepCmd(o))
	cmd.AddCommand(newExplainCmd(o))
	cmd.AddCommand(newPatternsCmd(o))
	cmd.AddCommand(newMkconfCmd(o))
	cmd.AddCommand(newRunsCmd(o))
	cmd.AddCommand(newWatchCmd(o))
	cmd.AddCommand(newLogsCmd(o))
	cmd.AddCommand(newVersionCmd())

	return cmd, o
}

// startProfilingAndLogging loads the configuration, then starts logging and
// the requested profiles.
func (o *rootOptions) startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg

	if o.debug {
		cleanup, err := logging.SetupDebug(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		o.loggingCleanup = cleanup
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.LogPath(cfg.Storage.DataDir)),
			slog.String("version", version.Short()))
	} else {
		logging.SetupStderr(cfg.Logging.Level)
	}

	if o.profile.Enabled() {
		session, err := profiling.Start(o.profile)
		if err != nil {
			return err
		}
		o.session = session
	}
	return nil
}

// stopProfilingAndLogging stops profiling, writes the memory profile if
// requested and closes the debug log. Safe to call multiple times.
func (o *rootOptions) stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if o.session != nil {
		err = o.session.Stop()
		o.session = nil
	}
	if o.loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return err
}

// config returns the configuration of a subcommand. Layers, lowest first:
// the configuration loaded by the root command, the flags applied by apply,
// then the explicit configuration file, which supersedes flags.
func (o *rootOptions) config(file string, apply func(*config.Config)) (*config.Config, error) {
	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	if apply != nil {
		apply(cfg)
	}
	if file != "" {
		if err := cfg.LoadFile(file); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command and prints any error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, o := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when the command fails.
	_ = o.stopProfilingAndLogging(cmd, nil)
	if err != nil {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), apperrors.FormatForCLI(err))
	}
	return err
}
