package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/openbbs/pkg/bbs/settings"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_MinimalConfig(t *testing.T) {
	dbPath := yamlSafePath(filepath.Join(t.TempDir(), "bbs.db"))
	path := writeConfig(t, `
logging:
  level: "debug"

server:
  port: 2323
  idle_timeout: 90s

database:
  type: sqlite
  sqlite:
    path: "`+dbPath+`"

bbs:
  name: "Retro"
  rules: "Be nice."
  boards:
    - name: Games
      description: All about games.
    - "Music:Songs and such"
  operators: [alice]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Port != 2323 {
		t.Errorf("Expected port 2323, got %d", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 90*time.Second {
		t.Errorf("Expected idle timeout 90s, got %v", cfg.Server.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}

	wantBoards := []BoardConfig{
		{Name: "Games", Description: "All about games."},
		{Name: "Music", Description: "Songs and such"},
	}
	if !reflect.DeepEqual(cfg.BBS.Boards, wantBoards) {
		t.Errorf("Expected boards %+v, got %+v", wantBoards, cfg.BBS.Boards)
	}
	if !reflect.DeepEqual(cfg.BBS.Operators, []string{"alice"}) {
		t.Errorf("Expected operators [alice], got %v", cfg.BBS.Operators)
	}
	if cfg.BBS.MOTD != DefaultMOTD {
		t.Errorf("Expected default MOTD, got %q", cfg.BBS.MOTD)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if !reflect.DeepEqual(cfg, GetDefaultConfig()) {
		t.Errorf("Expected default config, got %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [port: 1\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: xml
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Expected validation failure, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 2323
`)

	t.Setenv("OPENBBS_SERVER_PORT", "4000")
	t.Setenv("OPENBBS_SERVER_MAX_CONNECTIONS", "25")
	t.Setenv("OPENBBS_BBS_NAME", "EnvBBS")
	t.Setenv("OPENBBS_BBS_OPERATORS", "alice,bob")
	t.Setenv("OPENBBS_MESSAGES_MAX_AGE", "720h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Expected env port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 25 {
		t.Errorf("Expected env max connections 25, got %d", cfg.Server.MaxConnections)
	}
	if cfg.BBS.Name != "EnvBBS" {
		t.Errorf("Expected env name, got %q", cfg.BBS.Name)
	}
	if !reflect.DeepEqual(cfg.BBS.Operators, []string{"alice", "bob"}) {
		t.Errorf("Expected operators from env, got %v", cfg.BBS.Operators)
	}
	if cfg.Messages.MaxAge != 720*time.Hour {
		t.Errorf("Expected max age 720h, got %v", cfg.Messages.MaxAge)
	}
}

func TestLoad_BoardsFromEnvironment(t *testing.T) {
	t.Setenv("OPENBBS_BBS_BOARDS", "A:a,B:b")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := []BoardConfig{{Name: "A", Description: "a"}, {Name: "B", Description: "b"}}
	if !reflect.DeepEqual(cfg.BBS.Boards, want) {
		t.Errorf("Expected boards %+v, got %+v", want, cfg.BBS.Boards)
	}
}

func TestParseBoard(t *testing.T) {
	tests := []struct {
		in      string
		want    BoardConfig
		wantErr bool
	}{
		{in: "Random:Posts without a home.", want: BoardConfig{Name: "Random", Description: "Posts without a home."}},
		{in: " Tech : Install Gentoo. ", want: BoardConfig{Name: "Tech", Description: "Install Gentoo."}},
		{in: "Bare", want: BoardConfig{Name: "Bare"}},
		{in: "Time:12:30", want: BoardConfig{Name: "Time", Description: "12:30"}},
		{in: ":nameless", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoard(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "openbbs init --config") {
		t.Errorf("Expected init instructions, got %v", err)
	}
}

func TestMustLoad_MissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := MustLoad("")
	if err == nil {
		t.Fatal("Expected error when no default config exists")
	}
	if !strings.Contains(err.Error(), "openbbs init") {
		t.Errorf("Expected init instructions, got %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.BBS.Name = "Saved"
	cfg.BBS.Operators = []string{"carol"}
	cfg.Server.IdleTimeout = 3 * time.Minute

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("Round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := GetConfigDir(); got != filepath.Join(dir, "openbbs") {
		t.Errorf("Expected %s, got %s", filepath.Join(dir, "openbbs"), got)
	}
	if got := GetDefaultConfigPath(); got != filepath.Join(dir, "openbbs", "config.yaml") {
		t.Errorf("Unexpected default path %s", got)
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in an empty directory")
	}
	if got := ResolvePath(""); got != GetDefaultConfigPath() {
		t.Errorf("Expected empty path to resolve to default, got %s", got)
	}
}

func TestConfig_Settings(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BBS.Rules = "No spam."

	s := cfg.Settings("1.2.3")

	want := &settings.Settings{
		Name:    DefaultName,
		MOTD:    DefaultMOTD,
		Rules:   "No spam.",
		Banned:  DefaultBanned,
		Quit:    DefaultQuit,
		Version: "1.2.3",
		Boards: []settings.Board{
			{Name: "Random", Description: "Posts without a home."},
			{Name: "Technology", Description: "Install Gentoo."},
		},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("Expected %+v, got %+v", want, s)
	}
}

func TestConfig_StoreOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BBS.Operators = []string{"alice"}
	cfg.Messages.MaxAge = time.Hour

	opts := cfg.StoreOptions()

	if opts.Hasher == nil {
		t.Fatal("Expected a hasher")
	}
	if !reflect.DeepEqual(opts.Operators, []string{"alice"}) {
		t.Errorf("Expected operators [alice], got %v", opts.Operators)
	}
	if opts.MessageMaxAge != time.Hour {
		t.Errorf("Expected max age 1h, got %v", opts.MessageMaxAge)
	}
}
