package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/distance"
	"github.com/Aman-CERP/patclust/internal/pa"
)

func newDistanceCmd(root *rootOptions) *cobra.Command {
	var (
		normalized bool
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "distance W1 W2",
		Short: "Print the pattern distance between two lines",
		Long: `Print the pattern distance between two lines.

The distance is the cheapest alignment of the pattern decompositions of
the two lines. With --normalized it is divided by the total length of the
lines, which is the value compared to the clustering threshold.`,
		Example: `  patclust distance "user 12 logged in" "user 345 logged in"
  patclust distance -n "a 1" "b 2"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config(configFile, nil)
			if err != nil {
				return err
			}
			env, err := cfg.Env()
			if err != nil {
				return err
			}

			opts := cfg.AutomatonOptions()
			g1, err := pa.Build(args[0], env, opts)
			if err != nil {
				return err
			}
			g2, err := pa.Build(args[1], env, opts)
			if err != nil {
				return err
			}

			var d float64
			if normalized {
				d = distance.Normalized(g1, g2, env.Densities(), distance.Infinity)
			} else {
				d = distance.Distance(g1, g2, env.Densities(), distance.Infinity)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(d, 'g', -1, 64))
			return err
		},
	}

	cmd.Flags().BoolVarP(&normalized, "normalized", "n", false, "Divide by the total length of the lines")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML or JSON configuration file")

	return cmd
}
