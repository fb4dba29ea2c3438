package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/output"
)

func newPatternsCmd(root *rootOptions) *cobra.Command {
	var (
		inclusions bool
		densities  bool
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the patterns used to describe lines",
		Long: `List the patterns of the configured environment with their regular
expression. "any" matches the gaps between the other patterns.`,
		Example: `  patclust patterns
  patclust patterns --densities
  patclust patterns --inclusions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config(configFile, nil)
			if err != nil {
				return err
			}
			env, err := cfg.Env()
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout(), false)
			if inclusions {
				rows := [][]string{{"pattern", "included in"}}
				for _, inc := range env.Inclusions() {
					rows = append(rows, []string{inc.Sub, inc.Super})
				}
				out.Table(rows)
				return nil
			}

			header := []string{"name", "regexp"}
			if densities {
				header = []string{"name", "density", "regexp"}
			}
			rows := [][]string{header}
			for _, p := range env.Patterns() {
				if densities {
					rows = append(rows, []string{p.Name, strconv.FormatFloat(p.Density, 'g', 6, 64), p.Regexp})
				} else {
					rows = append(rows, []string{p.Name, p.Regexp})
				}
			}
			out.Table(rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&inclusions, "inclusions", false, "List the language inclusions between patterns")
	cmd.Flags().BoolVar(&densities, "densities", false, "Show the density of each pattern")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML or JSON configuration file")

	return cmd
}
