package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample OpenBBS configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/openbbs/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  openbbs init

  # Initialize with custom path
  openbbs init --config /etc/openbbs/config.yaml

  # Force overwrite existing config
  openbbs init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the boards, texts and operators in the bbs section")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: openbbs start")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: openbbs start --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nConnect with: telnet localhost", config.DefaultPort)

	return nil
}
