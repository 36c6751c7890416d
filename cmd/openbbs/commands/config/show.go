package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/output"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults and OPENBBS_* environment
overrides have been applied.

Examples:
  # Print as YAML
  openbbs config show

  # Print as JSON
  openbbs config show -o json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
