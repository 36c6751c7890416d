package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "config.yaml")
	content := "database:\n" +
		"  type: sqlite\n" +
		"  sqlite:\n" +
		"    path: " + filepath.ToSlash(filepath.Join(dir, "bbs.db")) + "\n" +
		"credentials:\n" +
		"  hash_iterations: 1000\n" +
		"bbs:\n" +
		"  operators: [root]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range GetRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "status", "init", "version", "config", "user", "ban", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "openbbs "+Version)
}

func TestConfigValidate(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "config", "validate", "--config", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "Technology")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "OpenBBS Configuration", schema["title"])
}

func TestUserCommands(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "user", "create", "alice", "--password", "pw", "--config", path, "-o", "json")
	require.NoError(t, err)
	var created models.User
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, models.RoleMember, created.Role)

	_, err = execute(t, "user", "create", "root", "--password", "pw", "--config", path, "-o", "json")
	require.NoError(t, err)

	_, err = execute(t, "user", "create", "alice", "--password", "pw", "--config", path, "-o", "json")
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "user", "list", "--config", path, "-o", "json")
	require.NoError(t, err)
	var users []models.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 2)
	roles := map[string]models.Role{}
	for _, u := range users {
		roles[u.Username] = u.Role
	}
	assert.Equal(t, models.RoleMember, roles["alice"])
	assert.Equal(t, models.RoleOperator, roles["root"])

	out, err = execute(t, "user", "role", "alice", "operator", "--config", path, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "operator"`)

	_, err = execute(t, "user", "role", "ghost", "operator", "--config", path, "-o", "json")
	assert.Error(t, err)

	_, err = execute(t, "user", "role", "alice", "guest", "--config", path, "-o", "json")
	assert.ErrorContains(t, err, "invalid role")
}

func TestBanCommands(t *testing.T) {
	path := testConfig(t)

	_, err := execute(t, "ban", "add", "--user", "troll", "--reason", "spam", "--config", path, "-o", "table")
	require.NoError(t, err)

	out, err := execute(t, "ban", "list", "--config", path, "-o", "json")
	require.NoError(t, err)
	var bans []models.Ban
	require.NoError(t, json.Unmarshal([]byte(out), &bans))
	require.Len(t, bans, 1)
	require.NotNil(t, bans[0].Username)
	assert.Equal(t, "troll", *bans[0].Username)
	assert.Nil(t, bans[0].IP)
	assert.Equal(t, "spam", bans[0].Reason)

	_, err = execute(t, "ban", "remove", "--user", "troll", "--yes", "--config", path, "-o", "table")
	require.NoError(t, err)

	out, err = execute(t, "ban", "list", "--config", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "No bans.")
}

func TestStatusCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy","data":{"service":"openbbs","started_at":"2026-01-02T03:04:05Z","uptime":"90s"}}`))
		case "/api/v1/stats":
			_, _ = w.Write([]byte(`{"status":"ok","data":{"posts":7,"users":2,"active_sessions":1}}`))
		}
	}))
	defer srv.Close()

	out, err := execute(t, "status", "--api-url", srv.URL, "-o", "json")
	require.NoError(t, err)

	var status ServerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Running)
	assert.True(t, status.Healthy)
	assert.EqualValues(t, 7, status.Posts)
	assert.EqualValues(t, 1, status.ActiveSessions)

	url := srv.URL
	srv.Close()
	out, err = execute(t, "status", "--api-url", url, "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Running)
}
