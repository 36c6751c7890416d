package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/openbbs/pkg/bbs/credential"
	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// Options tunes the behavior of a store beyond the database connection.
type Options struct {
	// Hasher derives password verifiers. Defaults to credential.NewHasher(0, 0).
	Hasher *credential.Hasher

	// Operators is the initial operator allow-list.
	Operators []string

	// MessageMaxAge prunes read private messages older than this at open.
	// Zero disables pruning.
	MessageMaxAge time.Duration

	// Now overrides the clock. Defaults to time.Now in UTC.
	Now func() time.Time
}

// GORMStore is the Store over gorm. SQLite and PostgreSQL share every query;
// only the dialector and pool sizing differ.
type GORMStore struct {
	db     *gorm.DB
	config *Config
	hasher *credential.Hasher
	now    func() time.Time

	operators atomic.Pointer[map[string]struct{}]

	closeOnce sync.Once
	closeErr  error
}

// New opens the store described by config, migrates the schema and, when
// opts.MessageMaxAge is set, prunes old read messages.
func New(config *Config, opts Options) (*GORMStore, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	dialector, err := config.dialector()
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &GORMStore{db: db, config: config, hasher: opts.Hasher, now: now}
	if s.hasher == nil {
		s.hasher = credential.NewHasher(0, 0)
	}
	s.SetOperators(opts.Operators)

	if err := s.prepare(opts.MessageMaxAge); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// prepare sizes the pool, migrates and prunes.
func (s *GORMStore) prepare(maxAge time.Duration) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if s.config.Type == DatabaseTypeSQLite {
		// One connection serializes every statement and transaction, which
		// is what SQLite's single writer needs.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(s.config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(s.config.Postgres.MaxIdleConns)
	}

	if err := s.db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	if maxAge > 0 {
		if _, err := s.PruneMessages(context.Background(), s.now().Add(-maxAge)); err != nil {
			return fmt.Errorf("failed to prune messages: %w", err)
		}
	}
	return nil
}

// DB exposes the gorm handle for tests and one-off maintenance queries.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// SetOperators replaces the operator allow-list. Names are normalized.
func (s *GORMStore) SetOperators(names []string) {
	ops := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = models.NormalizeUsername(n); n != "" {
			ops[n] = struct{}{}
		}
	}
	s.operators.Store(&ops)
}

func (s *GORMStore) isOperator(name string) bool {
	ops := s.operators.Load()
	if ops == nil {
		return false
	}
	_, ok := (*ops)[name]
	return ok
}

// isUniqueConstraintError recognizes duplicate-key failures from gorm's
// translated error, pgx (SQLSTATE 23505) and the SQLite message text.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// convertNotFoundError maps gorm.ErrRecordNotFound to the domain sentinel.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}
