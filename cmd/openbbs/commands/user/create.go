package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/prompt"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var createPassword string

var createCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create an account",
	Long: `Create a member account. Names on the operator allow-list get the
operator role.

Missing values are prompted for interactively.

Examples:
  # Prompt for everything
  openbbs user create

  # Non-interactive
  openbbs user create alice --password s3cret`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createPassword, "password", "p", "", "Password (prompted if omitted)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	var (
		name string
		err  error
	)
	if len(args) > 0 {
		name = args[0]
	} else if name, err = prompt.InputRequired("Username"); err != nil {
		return cmdutil.HandleAbort(err)
	}

	password := createPassword
	if password == "" {
		if password, err = prompt.NewPassword("Password"); err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		role, err := s.CreateUser(ctx, name, password)
		switch {
		case errors.Is(err, models.ErrDuplicateUser):
			return fmt.Errorf("user %q already exists", name)
		case err != nil:
			return fmt.Errorf("failed to create user: %w", err)
		}

		u, err := s.GetUser(ctx, name)
		if err != nil {
			return err
		}
		return cmdutil.PrintResourceWithSuccess(cmd.OutOrStdout(), u,
			fmt.Sprintf("User %s created with role %s", u.Username, role))
	})
}
