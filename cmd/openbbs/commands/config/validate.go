package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/output"
	"github.com/marmos91/openbbs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the OpenBBS configuration file.

Checks for syntax errors, missing required fields, invalid values and
conflicting settings such as duplicate boards or clashing ports.

Examples:
  # Validate default config
  openbbs config validate

  # Validate specific config file
  openbbs config validate --config /etc/openbbs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	var warnings []string
	if len(cfg.BBS.Operators) == 0 {
		warnings = append(warnings, "No operators configured; moderation commands are unavailable")
	}
	if cfg.Server.MaxConnections == 0 {
		warnings = append(warnings, "server.max_connections is 0 (unlimited)")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", config.ResolvePath(cmdutil.Flags.ConfigFile))
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	boards := make([]string, 0, len(cfg.BBS.Boards))
	for _, b := range cfg.BBS.Boards {
		boards = append(boards, b.Name)
	}

	api := "disabled"
	if cfg.API.Enabled {
		api = strconv.Itoa(cfg.API.Port)
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, [][2]string{
		{"Name", cfg.BBS.Name},
		{"Listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
		{"Database", string(cfg.Database.Type)},
		{"Boards", strings.Join(boards, ", ")},
		{"Operators", cmdutil.EmptyOr(strings.Join(cfg.BBS.Operators, ", "), "-")},
		{"API port", api},
		{"Log level", cfg.Logging.Level},
	})
}
