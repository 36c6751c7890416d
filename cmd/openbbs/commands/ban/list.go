package ban

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bans",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

// BanList renders bans as a table.
type BanList []*models.Ban

// Headers implements output.TableRenderer.
func (bl BanList) Headers() []string {
	return []string{"ID", "USER", "IP", "REASON"}
}

// Rows implements output.TableRenderer.
func (bl BanList) Rows() [][]string {
	rows := make([][]string, 0, len(bl))
	for _, b := range bl {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(b.ID), 10),
			cmdutil.Deref(b.Username, "-"),
			cmdutil.Deref(b.IP, "-"),
			b.Reason,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	return cmdutil.WithStore(cmd.Context(), func(ctx context.Context, s *store.GORMStore) error {
		bans, err := s.ListBans(ctx)
		if err != nil {
			return err
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), bans, len(bans) == 0, "No bans.", BanList(bans))
	})
}
