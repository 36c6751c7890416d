package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DatabaseType selects the backend.
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// InMemory is the SQLite path of a throwaway database. Tests use it.
const InMemory = ":memory:"

// DefaultSQLitePath is where the board lives when nothing is configured.
const DefaultSQLitePath = "./database.db"

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"sslmode" yaml:"sslmode"` // disable, require, verify-ca, verify-full
	SSLRootCert  string `mapstructure:"sslrootcert" yaml:"sslrootcert,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN renders the libpq key/value connection string. Empty optional keys
// are left out.
func (c *PostgresConfig) DSN() string {
	pairs := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
	}
	if c.SSLMode != "" {
		pairs = append(pairs, "sslmode="+c.SSLMode)
	}
	if c.SSLRootCert != "" {
		pairs = append(pairs, "sslrootcert="+c.SSLRootCert)
	}
	return strings.Join(pairs, " ")
}

// Config is the database section of the configuration file.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" yaml:"type" validate:"omitempty,oneof=sqlite postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// ApplyDefaults fills zero values. Postgres pool sizes only apply to the
// postgres backend.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			c.SQLite.Path = DefaultSQLitePath
		}
	case DatabaseTypePostgres:
		setDefault(&c.Postgres.Port, 5432)
		setDefault(&c.Postgres.MaxOpenConns, 25)
		setDefault(&c.Postgres.MaxIdleConns, 5)
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// Validate reports every missing field of the selected backend.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
		return nil
	case DatabaseTypePostgres:
		var errs []error
		for _, f := range [][2]string{
			{"host", c.Postgres.Host},
			{"database", c.Postgres.Database},
			{"user", c.Postgres.User},
		} {
			if f[1] == "" {
				errs = append(errs, fmt.Errorf("postgres %s is required", f[0]))
			}
		}
		return errors.Join(errs...)
	}
	return fmt.Errorf("unsupported database type: %q", c.Type)
}

// dialector returns the gorm dialector for the configured backend,
// creating the SQLite parent directory when needed.
func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path != InMemory {
			if err := os.MkdirAll(filepath.Dir(c.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// WAL lets readers proceed next to the writer; busy_timeout waits
		// out short locks instead of failing.
		return sqlite.Open(c.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"), nil
	case DatabaseTypePostgres:
		return postgres.Open(c.Postgres.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database type: %q", c.Type)
}
