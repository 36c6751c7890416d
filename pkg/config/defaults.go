package config

import (
	"strings"
	"time"

	"github.com/marmos91/openbbs/internal/telemetry"
	"github.com/marmos91/openbbs/pkg/api"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

// Default texts and limits.
const (
	DefaultName            = "OpenBBS"
	DefaultMOTD            = "Welcome to OpenBBS!"
	DefaultBanned          = "You have been banned!"
	DefaultQuit            = "Thank you for connecting!"
	DefaultPort            = 1337
	DefaultIdleTimeout     = 10 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
	DefaultHashIterations  = 500000
	DefaultSaltLength      = 32
)

// DefaultBoards are used when the configuration names none.
func DefaultBoards() []BoardConfig {
	return []BoardConfig{
		{Name: "Random", Description: "Posts without a home."},
		{Name: "Technology", Description: "Install Gentoo."},
	}
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// Rules has no default and stays empty.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	applyServerDefaults(&cfg.Server)
	cfg.Database.ApplyDefaults()
	applyBBSDefaults(&cfg.BBS)
	applyCredentialDefaults(&cfg.Credentials)
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *telemetry.Config) {
	defaults := telemetry.DefaultConfig()

	if cfg.ServiceName == "" {
		cfg.ServiceName = defaults.ServiceName
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaults.SampleRate
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = defaults.Profiling.Endpoint
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = defaults.Profiling.ProfileTypes
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
}

func applyBBSDefaults(cfg *BBSConfig) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.MOTD == "" {
		cfg.MOTD = DefaultMOTD
	}
	if cfg.Banned == "" {
		cfg.Banned = DefaultBanned
	}
	if cfg.Quit == "" {
		cfg.Quit = DefaultQuit
	}
	if len(cfg.Boards) == 0 {
		cfg.Boards = DefaultBoards()
	}
	if cfg.Operators == nil {
		cfg.Operators = []string{}
	}
}

func applyCredentialDefaults(cfg *CredentialsConfig) {
	if cfg.HashIterations == 0 {
		cfg.HashIterations = DefaultHashIterations
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = DefaultSaltLength
	}
}

// applyAPIDefaults leaves Enabled alone: the admin API is opt-in.
func applyAPIDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// GetDefaultConfig returns a Config with every default applied.
//
// Used by 'openbbs init' and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
