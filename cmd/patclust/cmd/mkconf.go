package cmd

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/patclust/configs"
	"github.com/Aman-CERP/patclust/internal/clustering"
	"github.com/Aman-CERP/patclust/internal/config"
	"github.com/Aman-CERP/patclust/internal/output"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

// minimalConfig is the configuration file printed by mkconf: the two keys a
// --config file usually sets.
type minimalConfig struct {
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
}

func newMkconfCmd(root *rootOptions) *cobra.Command {
	var (
		asYAML  bool
		full    bool
		write   bool
		example bool
	)

	cmd := &cobra.Command{
		Use:   "mkconf",
		Short: "Print a default configuration file",
		Long: `Print a default configuration file usable with 'patclust cluster --config'.

By default only the threshold and the pattern names are printed. --full
prints every setting with its effective value. --example prints an
annotated YAML template of every setting. --write saves the effective
configuration as the user configuration, keeping a backup of the previous
one.`,
		Example: `  patclust mkconf > patclust.json
  patclust mkconf --yaml --full
  patclust mkconf --example > patclust.yaml
  patclust mkconf --write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if example {
				_, err := io.WriteString(cmd.OutOrStdout(), configs.ExampleConfig)
				return err
			}
			if write {
				cfg, err := root.config("", nil)
				if err != nil {
					return err
				}
				backup, err := config.SaveUserConfig(cfg)
				if err != nil {
					return err
				}
				out := output.New(cmd.OutOrStdout(), false)
				out.Successf("Wrote %s", config.GetUserConfigPath())
				if backup != "" {
					out.Hint("previous configuration saved to " + backup)
				}
				return nil
			}

			if full {
				cfg, err := root.config("", nil)
				if err != nil {
					return err
				}
				format := "json"
				if asYAML {
					format = "yaml"
				}
				return cfg.Encode(cmd.OutOrStdout(), format)
			}

			return writeMinimalConfig(cmd.OutOrStdout(), asYAML)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	cmd.Flags().BoolVar(&full, "full", false, "Print every setting")
	cmd.Flags().BoolVar(&write, "write", false, "Save the effective configuration as the user configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Print an annotated YAML template")
	cmd.MarkFlagsMutuallyExclusive("example", "full", "write")

	return cmd
}

func writeMinimalConfig(w io.Writer, asYAML bool) error {
	conf := minimalConfig{
		Threshold: clustering.DefaultThreshold,
		Patterns:  slices.Clone(patterns.DefaultNames),
	}
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(conf); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(conf)
}
