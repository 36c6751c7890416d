// Package user implements the openbbs user subcommands.
package user

import "github.com/spf13/cobra"

// Cmd is the parent command for account management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage BBS accounts",
	Long: `Manage BBS accounts directly in the configured database.

These commands open the store themselves and can run while the server is
stopped. With SQLite, stop the server first to avoid lock contention.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(roleCmd)
}
