package ban

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var (
	addUser   string
	addIP     string
	addReason string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Ban a username, an IP address, or both",
	Long: `Insert a ban. At least one of --user and --ip is required.

Examples:
  openbbs ban add --user troll --reason "spam"
  openbbs ban add --ip 203.0.113.7 --reason "flooding"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addUser, "user", "u", "", "Username to ban")
	addCmd.Flags().StringVar(&addIP, "ip", "", "IP address to ban")
	addCmd.Flags().StringVarP(&addReason, "reason", "r", "", "Reason shown to the banned user")
	addCmd.MarkFlagsOneRequired("user", "ip")
	_ = addCmd.MarkFlagRequired("reason")
}

func runAdd(cmd *cobra.Command, args []string) error {
	user, ip := cmdutil.Optional(addUser), cmdutil.Optional(addIP)
	if user == nil && ip == nil {
		return fmt.Errorf("--user or --ip must be non-empty")
	}

	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		if err := s.Ban(ctx, addReason, user, ip); err != nil {
			return fmt.Errorf("failed to add ban: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Banned %s", describe(user, ip)))
		return nil
	})
}

func describe(user, ip *string) string {
	switch {
	case user != nil && ip != nil:
		return fmt.Sprintf("user %s and ip %s", *user, *ip)
	case user != nil:
		return "user " + *user
	default:
		return "ip " + *ip
	}
}
