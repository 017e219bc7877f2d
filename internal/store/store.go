// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the embedded DuckDB persistent store (C2). It owns the
// single writer connection used for all mutations and serves concurrent
// reads directly against the same pool, mirroring the teacher's
// internal/database package: one *sql.DB, schema created with idempotent
// CREATE TABLE IF NOT EXISTS statements, a checkpoint on Close.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/pitlane-grab/pitlane/internal/config"
	"github.com/pitlane-grab/pitlane/internal/logging"
)

// Store wraps the DuckDB connection. Reads run concurrently against the
// pool; writes are serialized through writeMu so DuckDB's single-writer
// constraint is never violated by overlapping scheduler/operator calls.
type Store struct {
	conn    *sql.DB
	path    string
	writeMu sync.Mutex
}

// Open creates (or attaches to) the DuckDB file at cfg.Path, creating the
// parent directory if needed, and runs schema initialization.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = 4
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	conn.SetMaxOpenConns(8)

	s := &Store{conn: conn, path: cfg.Path}

	if err := s.initSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Conn exposes the underlying *sql.DB for packages that need to compose
// their own queries.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("failed to checkpoint before close")
	}
	return s.conn.Close()
}

// withWrite serializes a write operation against the single writer lock.
func (s *Store) withWrite(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

func closeQuietly(c interface{ Close() error }) {
	if c != nil {
		_ = c.Close()
	}
}
