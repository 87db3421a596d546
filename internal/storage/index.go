/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "dashstudio/internal/log"
	"dashstudio/internal/version"

	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds per-workspace ephemeral data under the workspace root.
	IndexDirName  = ".dsh"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the embedded index schema. Bump on breaking
	// changes and add a migration.
	schemaVersion = 1
)

// IndexPath returns the workspace's embedded index database file.
func IndexPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, IndexDirName, IndexFileName)
}

// indexDDL is everything the index needs: a meta key/value table, a
// single-row version table, and the canvas snapshot log.
var indexDDL = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS canvas_snapshots (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		menu_item_id  TEXT NOT NULL,
		ts            TEXT NOT NULL,
		widgets_blob  BLOB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_canvas_snapshots_item ON canvas_snapshots(menu_item_id, ts);`,
}

// InitOrOpenIndex opens (creating if needed) the workspace index at
// .dsh/index.sqlite with WAL mode and the schema applied. Callers own
// the returned handle and may close it when done.
func InitOrOpenIndex(workspaceRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", workspaceRoot),
	)
	if strings.TrimSpace(workspaceRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(workspaceRoot, IndexDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(workspaceRoot)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection; the index is embedded and local.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := prepareIndex(ctx, db); err != nil {
		_ = db.Close()
		l.Error("index init failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func prepareIndex(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		return fmt.Errorf("enable foreign_keys: %w", err)
	}
	for _, stmt := range indexDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply index schema: %w", err)
		}
	}
	return stampVersion(ctx, db)
}

// stampVersion inserts the version row on first open and refreshes the
// app/updated_at columns on every subsequent open.
func stampVersion(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)
	app := version.String()

	var current int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx,
			`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`,
			schemaVersion, app, now, now)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, app, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}
