// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ykarpov/billkeeper/internal/logger"
)

const createKVTable = `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

const (
	getValue = `SELECT value FROM kv WHERE key = ?;`

	setValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP;`
)

// sqliteStore is the SQLite-backed [LocalStore]. One row per key; writes go
// straight to disk so pending work survives a process restart.
type sqliteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path and
// ensures the kv table exists. An empty path selects an in-memory database,
// useful in tests.
func NewSQLiteStore(path string, log *logger.Logger) (LocalStore, error) {
	if path == "" {
		path = ":memory:"
	}

	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// A single writer keeps "write completes before the call returns"
	// trivially true and sidesteps SQLITE_BUSY under concurrent triggers.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	log.Debug().Str("path", path).Msg("local store opened")

	return &sqliteStore{db: db, logger: log}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, getValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get local key %q: %w", key, err)
	}

	return value, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, setValue, key, value); err != nil {
		return fmt.Errorf("set local key %q: %w", key, err)
	}
	return nil
}

// Invalidate is a no-op: the SQLite layer holds no cache of its own.
func (s *sqliteStore) Invalidate(_ context.Context, _ string) error {
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
