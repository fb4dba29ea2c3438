package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/multigrep"
)

func newGrepCmd(root *rootOptions) *cobra.Command {
	var (
		strategy   string
		separators []string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "grep W",
		Short: "Print the pattern matches found in a line",
		Long: `Search every pattern of the environment in W at once and print the
retained matches, one pattern per line.

Strategies:
  all      every match
  largest  the longest match from each start, then the earliest start
           for each end
  greedy   like largest, but a match is dropped as soon as an earlier
           start already reached its end`,
		Example: `  patclust grep "10.0.0.1 port 8080"
  patclust grep --strategy all "12.5"
  patclust grep --separators spaces "id=12 x 34"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config(configFile, nil)
			if err != nil {
				return err
			}
			env, err := cfg.Env()
			if err != nil {
				return err
			}

			c, err := multigrep.NewCollector(multigrep.Strategy(strategy))
			if err != nil {
				return apperrors.ValidationError(err.Error(), err).
					WithSuggestion(fmt.Sprintf("use one of %v", multigrep.Strategies))
			}

			w := args[0]
			if len(separators) > 0 {
				for _, name := range separators {
					if _, ok := env.Pattern(name); !ok {
						return apperrors.New(apperrors.ErrCodeUnknownPattern,
							fmt.Sprintf("unknown separator pattern %q", name), nil).
							WithDetail("pattern", name)
					}
				}
				multigrep.GrepWithDelimiters(w, env.Searchable(), c.Add, multigrep.Delimiters{Separators: separators})
			} else {
				multigrep.Grep(w, env.Searchable(), c.Add)
			}

			if out := multigrep.Format(w, c); out != "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(multigrep.StrategyLargest), "Match collection strategy: all, largest or greedy")
	cmd.Flags().StringSliceVar(&separators, "separators", nil, "Only report matches delimited by these patterns")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML or JSON configuration file")

	return cmd
}
