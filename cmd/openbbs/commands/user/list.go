package user

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/timeutil"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List accounts",
	RunE:    runList,
}

// UserList renders accounts as a table.
type UserList []*models.User

// Headers implements output.TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"USERNAME", "ROLE", "LAST LOGIN", "CREATED"}
}

// Rows implements output.TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		rows = append(rows, []string{
			u.Username,
			string(u.Role),
			timeutil.Since(u.LastLogin),
			u.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return err
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), users, len(users) == 0, "No users found.", UserList(users))
	})
}
