// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package database provides DuckDB-backed persistence for car listings and
// the prediction transaction log, plus the tiered comparable-listing search.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/pricelens/internal/config"
	"github.com/tomtom215/pricelens/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Prepared statement caching
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New creates a new database connection and initializes the schema
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file.
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Build connection string with tuning options.
	// preserve_insertion_order=false reduces memory usage but may change result order.
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network environments
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// Conn returns the underlying SQL database connection.
// This is used by packages that need direct database access, such as the
// transaction log store.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)

	// Note: Connection pool settings:
	// - max_open: NumCPU() for parallelism
	// - max_idle: 2 for connection reuse
	// - max_lifetime: 1h to prevent stale connections
	// - max_idle_time: 5m for idle connection cleanup
}

// initialize creates tables and runs versioned migrations
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}

	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if db.cfg.ListingsCSVPath != "" {
		if err := db.SeedListingsFromCSV(context.Background(), db.cfg.ListingsCSVPath); err != nil {
			// Seeding is best-effort: an unreadable CSV must not keep the
			// service from starting with whatever listings already exist.
			logging.Warn().Err(err).Str("path", db.cfg.ListingsCSVPath).Msg("Failed to seed listings from CSV")
		}
	}

	return nil
}

// Close closes the database connection and all prepared statements.
// It performs a CHECKPOINT before closing to flush the WAL to the main
// database file so the next startup does not replay it.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeQuietly(stmt)
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			// Best effort checkpoint
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()

		return db.conn.Close()
	}
	return nil
}

// getOrPrepareStmt returns a cached prepared statement for the query,
// preparing and caching it on first use. The listings queries are a small
// fixed set of SQL strings, so the cache never grows unbounded.
func (db *DB) getOrPrepareStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()

	// Another goroutine may have prepared it while we waited for the lock
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// Checkpoint forces DuckDB to flush the WAL into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "CHECKPOINT;")
	return err
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// ensureContext returns the given context or a background context with a
// default timeout when nil.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	return ctx, func() {}
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
