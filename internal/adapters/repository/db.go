// Package repository persists user identities, roster memberships and the
// player directory in SQLite.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/playerstock/pkg/logger"
	_ "modernc.org/sqlite" // sqlite driver
)

// Config holds database settings.
type Config struct {
	// Path is the SQLite file. Parent directories are created on Open.
	Path string
	// MaxOpenConns bounds the pool. SQLite serialises writers anyway.
	MaxOpenConns int
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration
	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF.
	JournalMode string
	// Logger is optional.
	Logger logger.Logger
}

// DefaultConfig returns a Config with the usual settings for path.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:         path,
		MaxOpenConns: 4,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
	}
}

// DB is the SQLite-backed store.
type DB struct {
	conn   *sql.DB
	logger logger.Logger
}

// Open migrates the schema and opens the pool.
func Open(ctx context.Context, cfg *Config) (*DB, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("open database: %w: path", ErrEmptyKey)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if err := migrateUp(cfg.Path); err != nil {
		return nil, err
	}

	journal := cfg.JournalMode
	if journal == "" {
		journal = "WAL"
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)&_pragma=foreign_keys(1)",
		cfg.Path, cfg.BusyTimeout.Milliseconds(), journal)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	l := logger.OrNop(cfg.Logger).Named("repository")
	l.Info(ctx, "database ready", logger.String("path", cfg.Path), logger.String("journal_mode", journal))
	return &DB{conn: conn, logger: l}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTransaction runs fn in a transaction, committing on success and
// rolling back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
