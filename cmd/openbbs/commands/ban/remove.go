package ban

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/prompt"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var (
	removeUser  string
	removeIP    string
	removeForce bool
)

var removeCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm"},
	Short:   "Lift bans matching a username or an IP address",
	Long: `Remove every ban whose username or IP matches.

Examples:
  openbbs ban remove --user troll
  openbbs ban remove --ip 203.0.113.7 --yes`,
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().StringVarP(&removeUser, "user", "u", "", "Username to unban")
	removeCmd.Flags().StringVar(&removeIP, "ip", "", "IP address to unban")
	removeCmd.Flags().BoolVarP(&removeForce, "yes", "y", false, "Skip confirmation")
	removeCmd.MarkFlagsOneRequired("user", "ip")
}

func runRemove(cmd *cobra.Command, args []string) error {
	user, ip := cmdutil.Optional(removeUser), cmdutil.Optional(removeIP)
	if user == nil && ip == nil {
		return fmt.Errorf("--user or --ip must be non-empty")
	}

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Remove bans matching %s", describe(user, ip)), removeForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !ok {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		n, err := s.Unban(ctx, user, ip)
		if err != nil {
			return fmt.Errorf("failed to remove bans: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Removed %d ban(s)", n))
		return nil
	})
}
