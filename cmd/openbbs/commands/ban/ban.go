// Package ban implements the openbbs ban subcommands.
package ban

import "github.com/spf13/cobra"

// Cmd is the parent command for ban management.
var Cmd = &cobra.Command{
	Use:   "ban",
	Short: "Manage bans",
	Long: `Manage username and IP bans directly in the configured database.

A banned user or address is refused at login. Existing sessions are not
disconnected.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(removeCmd)
}
