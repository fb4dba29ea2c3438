package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patclust/internal/pa"
)

func newExplainCmd(root *rootOptions) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "explain W",
		Short: "Print the pattern automaton of a line and its best decomposition",
		Long: `Print the arcs of the pattern automaton of W, then the cheapest path
through it: the template the clustering uses to describe the line.`,
		Example: `  patclust explain "GET /index.html 200 0.012"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config(configFile, nil)
			if err != nil {
				return err
			}
			env, err := cfg.Env()
			if err != nil {
				return err
			}
			a, err := pa.Build(args[0], env, cfg.AutomatonOptions())
			if err != nil {
				return err
			}
			return writeExplanation(cmd.OutOrStdout(), a, env.Densities())
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML or JSON configuration file")

	return cmd
}

func writeExplanation(w io.Writer, a *pa.Automaton, densities []float64) error {
	path, cost := a.ShortestPath(densities)
	_, err := fmt.Fprintf(w, "vertices: %v\narcs:\n%stemplate: %s\ncost: %.6g\n",
		a.Vertices(), a.String(), a.Template(path), cost)
	return err
}
