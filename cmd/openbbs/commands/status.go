package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/cli/health"
	"github.com/marmos91/openbbs/internal/cli/output"
	"github.com/marmos91/openbbs/internal/cli/timeutil"
)

var statusAPIURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Query the admin API of a running server and show its health, uptime
and counters. Requires api.enabled in the server's configuration.

Examples:
  # Use the API port from the configuration file
  openbbs status

  # Query another host
  openbbs status --api-url http://bbs.example.com:8080 -o json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAPIURL, "api-url", "", "Admin API base URL (default: http://localhost:<api.port>)")
}

// ServerStatus is the result of a status probe.
type ServerStatus struct {
	Running        bool   `json:"running" yaml:"running"`
	Healthy        bool   `json:"healthy" yaml:"healthy"`
	Message        string `json:"message" yaml:"message"`
	StartedAt      string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime         string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Posts          int64  `json:"posts" yaml:"posts"`
	Users          int64  `json:"users" yaml:"users"`
	ActiveSessions int32  `json:"active_sessions" yaml:"active_sessions"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	baseURL := statusAPIURL
	if baseURL == "" {
		cfg, err := cmdutil.LoadConfig()
		if err != nil {
			return err
		}
		baseURL = "http://localhost:" + strconv.Itoa(cfg.API.Port)
	}

	status := probe(cmd, health.NewClient(baseURL, 2*time.Second))

	w := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, status)
	case output.FormatYAML:
		return output.PrintYAML(w, status)
	default:
		return printStatusTable(w, status)
	}
}

func probe(cmd *cobra.Command, c *health.Client) ServerStatus {
	status := ServerStatus{Message: "Server is not running or the API is disabled"}

	h, err := c.Health(cmd.Context())
	if err != nil {
		return status
	}
	status.Running = true
	status.Healthy = h.Healthy()
	status.StartedAt = h.Data.StartedAt
	status.Uptime = h.Data.Uptime
	if !status.Healthy {
		status.Message = "Server is running but unhealthy: " + h.Error
		return status
	}
	status.Message = "Server is running and healthy"

	if s, err := c.Stats(cmd.Context()); err == nil {
		status.Posts = s.Data.Posts
		status.Users = s.Data.Users
		status.ActiveSessions = s.Data.ActiveSessions
	}
	return status
}

func printStatusTable(w io.Writer, s ServerStatus) error {
	state := "stopped"
	if s.Running {
		state = "running"
		if !s.Healthy {
			state = "running (unhealthy)"
		}
	}

	rows := [][2]string{{"Status", state}}
	if s.Running {
		rows = append(rows,
			[2]string{"Started", timeutil.FormatTime(s.StartedAt)},
			[2]string{"Uptime", timeutil.FormatUptime(s.Uptime)},
			[2]string{"Sessions", strconv.Itoa(int(s.ActiveSessions))},
			[2]string{"Users", strconv.FormatInt(s.Users, 10)},
			[2]string{"Posts", strconv.FormatInt(s.Posts, 10)},
		)
	}
	if err := output.SimpleTable(w, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", s.Message)
	return err
}
