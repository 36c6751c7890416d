package format

import (
	"strings"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

const helpHeader = "==================\nAVAILABLE COMMANDS\n=================="

var (
	helpCommon = []string{
		"[R]ULES\t\tPrint the rules of the BBS.",
		"[B]OARD\t\tChange to a specified board.",
		"[T]HREAD\tOpen a given thread number.",
		"[RE]FRESH\tRefresh the current listing.",
		"[P]OST\t\tMake a post or reply.",
		"[IN]FO\t\tPrint information about this BBS software.",
		"[Q]UIT\t\tExit the BBS.",
	}
	helpMember = []string{
		"[I]NBOX\t\tGet private messages.",
		"[S]END\t\tSend a private message.",
	}
	helpOperator = []string{
		"[D]ELETE\tDelete a post.",
		"[BA]N\t\tBan a username.",
		"[U]NBAN\t\tUnban a username.",
		"[O]P\t\tGive a user operator privileges.",
		"[DE]OP\t\tRevoke operator privileges from a user.",
	}
)

// Help lists the commands available to role.
func Help(role models.Role) string {
	lines := append([]string{helpHeader}, helpCommon...)
	if role != models.RoleGuest {
		lines = append(lines, helpMember...)
	}
	if role == models.RoleOperator {
		lines = append(lines, helpOperator...)
	}
	return strings.Join(lines, "\n")
}

// LoginMenu is shown once before the login prompt.
const LoginMenu = "=======================\n" +
	"PLEASE SELECT AN OPTION\n" +
	"=======================\n" +
	"[L]OGIN\t\tLogin to an existing account.\n" +
	"[R]EGISTER\tCreate a new account on this BBS.\n" +
	"[A]NONYMOUS\tUse the BBS anonymously.\n" +
	"[Q]UIT\t\tExit the BBS."
