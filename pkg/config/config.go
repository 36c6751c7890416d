package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/internal/telemetry"
	"github.com/marmos91/openbbs/pkg/api"
	"github.com/marmos91/openbbs/pkg/bbs/credential"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "OPENBBS"

// Config represents the OpenBBS configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (OPENBBS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// The bbs section and the operator list can be reloaded while the server
// runs (see Watch). Every other section is read once at startup.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry telemetry.Config `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for sessions to finish
	// after a shutdown signal before their connections are closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the TCP listener that users connect to
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Database configures persistence (SQLite or PostgreSQL)
	Database store.Config `mapstructure:"database" yaml:"database"`

	// BBS holds the texts, boards and operators of the board
	BBS BBSConfig `mapstructure:"bbs" yaml:"bbs"`

	// Credentials tunes password hashing for new accounts
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`

	// Messages controls private message retention
	Messages MessagesConfig `mapstructure:"messages" yaml:"messages"`

	// Metrics enables Prometheus collection, served by the admin API
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the admin HTTP server
	API api.APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the TCP listener.
type ServerConfig struct {
	// Host is the bind address. Empty binds every interface.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the TCP port.
	// Default: 1337
	Port int `mapstructure:"port" validate:"min=1,max=65535" yaml:"port"`

	// MaxConnections caps concurrent sessions. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0" yaml:"max_connections"`

	// IdleTimeout disconnects a session that sends nothing for this long.
	// Default: 10m
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`

	// MetricsLogInterval periodically logs connection counts. 0 disables it.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" validate:"gte=0" yaml:"metrics_log_interval"`
}

// BoardConfig describes one board. In environment variables and plain
// strings a board is written as "Name:Description".
type BoardConfig struct {
	Name        string `mapstructure:"name" validate:"required,max=32,excludesall= #" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
}

// BBSConfig holds the user-facing texts and the board list.
type BBSConfig struct {
	// Name is shown in the prompt of every session.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// MOTD is sent to every connection before login.
	MOTD string `mapstructure:"motd" yaml:"motd"`

	// Rules is printed by the rules command.
	Rules string `mapstructure:"rules" yaml:"rules"`

	// Banned is sent to a banned user before disconnecting them.
	Banned string `mapstructure:"banned" yaml:"banned"`

	// Quit is sent when a user leaves the shell.
	Quit string `mapstructure:"quit" yaml:"quit"`

	// Boards lists the boards in display order.
	Boards []BoardConfig `mapstructure:"boards" validate:"min=1,dive" yaml:"boards"`

	// Operators are promoted to operator on login or registration.
	Operators []string `mapstructure:"operators" yaml:"operators"`
}

// CredentialsConfig tunes PBKDF2 for newly created verifiers.
type CredentialsConfig struct {
	// HashIterations is the PBKDF2 iteration count.
	// Default: 500000
	HashIterations int `mapstructure:"hash_iterations" validate:"min=1000" yaml:"hash_iterations"`

	// SaltLength is the random salt size in bytes.
	// Default: 32
	SaltLength int `mapstructure:"salt_length" validate:"min=8,max=1024" yaml:"salt_length"`
}

// MessagesConfig controls private message retention.
type MessagesConfig struct {
	// MaxAge prunes read messages older than this at startup. 0 keeps them.
	MaxAge time.Duration `mapstructure:"max_age" validate:"gte=0" yaml:"max_age"`
}

// MetricsConfig enables Prometheus collection.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Settings returns the runtime settings described by the bbs section.
func (c *Config) Settings(version string) *settings.Settings {
	boards := make([]settings.Board, len(c.BBS.Boards))
	for i, b := range c.BBS.Boards {
		boards[i] = settings.Board{Name: b.Name, Description: b.Description}
	}
	return &settings.Settings{
		Name:    c.BBS.Name,
		MOTD:    c.BBS.MOTD,
		Rules:   c.BBS.Rules,
		Banned:  c.BBS.Banned,
		Quit:    c.BBS.Quit,
		Version: version,
		Boards:  boards,
	}
}

// StoreOptions returns the store options implied by the configuration.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Hasher:        credential.NewHasher(c.Credentials.HashIterations, c.Credentials.SaltLength),
		Operators:     c.BBS.Operators,
		MessageMaxAge: c.Messages.MaxAge,
	}
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// Load loads configuration from file, environment, and defaults.
//
// A missing config file is not an error: environment variables and
// defaults still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration and fails with instructions when the
// config file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  openbbs init\n\n"+
				"Or specify a custom config file:\n"+
				"  openbbs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  openbbs init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may hold database passwords.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: OPENBBS_SERVER_PORT=2323
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnv registers every leaf key of t with viper. AutomaticEnv alone only
// consults the environment for keys viper already knows about, so keys
// absent from the config file would otherwise ignore their variables.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindEnv(v, field.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
		boardDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// boardDecodeHook converts "Name:Description" strings into a BoardConfig.
func boardDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(BoardConfig{}) || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseBoard(data.(string))
	}
}

// ParseBoard parses the "Name:Description" form of a board.
// The description is optional.
func ParseBoard(s string) (BoardConfig, error) {
	name, desc, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return BoardConfig{}, fmt.Errorf("invalid board %q: name is required", s)
	}
	return BoardConfig{Name: name, Description: strings.TrimSpace(desc)}, nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "openbbs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "openbbs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}

// ResolvePath returns configPath, or the default location when it is empty.
func ResolvePath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return GetDefaultConfigPath()
}
