// Package kv provides the embedded key-value store used by generated
// preference accessors.
//
// A single BadgerDB instance backs any number of stores. Each store is a key
// namespace identified by the schema id, optionally with an expiry applied to
// every write and an encryption key sealing every value.
package kv

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config holds configuration for a DB.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Zero disables the collector.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64

	// Logger receives store and BadgerDB diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the configuration for an on-disk database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests: no disk I/O and no GC.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// DB is an open database. It implements Opener.
type DB struct {
	db     *badger.DB
	gc     *GCRunner
	logger *zap.Logger
}

// Open opens the database described by cfg.
// The caller must call Close when done.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("kv: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("kv: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(&badgerLogger{logger: logger.Sugar()})
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger database: %w", err)
	}

	db := &DB{db: bdb, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := NewGCRunner(bdb, cfg.GCInterval, cfg.GCDiscardRatio, logger)
		if err != nil {
			bdb.Close()
			return nil, fmt.Errorf("kv: create GC runner: %w", err)
		}
		db.gc = runner
		runner.Start()
	}
	return db, nil
}

// Close stops the garbage collector and closes the database.
func (d *DB) Close() error {
	if d.gc != nil {
		d.gc.Stop()
		d.gc = nil
	}
	return d.db.Close()
}

// Store returns the store for the given options. Stores are cheap: they hold
// no state besides their namespace and cipher.
func (d *DB) Store(opts StoreOptions) Store {
	return newStore(d, opts)
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}
