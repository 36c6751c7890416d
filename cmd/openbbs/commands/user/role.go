package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/prompt"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var roleCmd = &cobra.Command{
	Use:   "role <username> [member|operator]",
	Short: "Change the role of an account",
	Long: `Grant or revoke operator privileges. This is the offline equivalent
of the op and deop commands.

Names on the operator allow-list are promoted again on their next login.

Examples:
  openbbs user role alice operator
  openbbs user role alice member`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{string(models.RoleMember), string(models.RoleOperator)},
	RunE:      runRole,
}

func runRole(cmd *cobra.Command, args []string) error {
	name := args[0]

	var role models.Role
	if len(args) == 2 {
		role = models.Role(args[1])
	} else {
		v, err := prompt.Select("Role", []prompt.Option{
			{Label: "member", Value: string(models.RoleMember), Description: "Can post and send messages"},
			{Label: "operator", Value: string(models.RoleOperator), Description: "Can also delete posts, ban and grant roles"},
		})
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		role = models.Role(v)
	}
	if !role.Persistable() {
		return fmt.Errorf("invalid role %q: must be %s or %s", role, models.RoleMember, models.RoleOperator)
	}

	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		// SetRole ignores unknown names, so check first.
		u, err := s.GetUser(ctx, name)
		if err != nil {
			return fmt.Errorf("user %q: %w", name, err)
		}
		if err := s.SetRole(ctx, u.Username, role); err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		u.Role = role
		return cmdutil.PrintResourceWithSuccess(cmd.OutOrStdout(), u,
			fmt.Sprintf("User %s is now %s", u.Username, role))
	})
}
