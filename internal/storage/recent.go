/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	RecentFileName = "recent.sqlite"

	// DefaultRecentLimit caps how many documents the index remembers.
	DefaultRecentLimit = 10

	// recentSchemaVersion tracks the SQLite schema of the recent index.
	recentSchemaVersion = 2
)

// RecentEntry is one remembered document.
type RecentEntry struct {
	Path     string
	Pages    int
	Thumb    []byte // PNG, may be nil
	OpenedAt time.Time
}

// Recent is the recent-documents index. Methods are safe to call from one
// goroutine at a time; the pool is limited to a single connection.
type Recent struct {
	db    *sql.DB
	path  string
	limit int
}

// RecentPath returns the database location inside dir.
func RecentPath(dir string) string { return filepath.Join(dir, RecentFileName) }

// OpenRecent opens or creates the index in dir. limit <= 0 means
// DefaultRecentLimit.
func OpenRecent(ctx context.Context, dir string, limit int) (*Recent, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "recent_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("recent index dir is required")
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recent dir: %w", err)
	}
	path := RecentPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureRecentSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := migrateRecent(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("recent index ready", slog.String("path", path))
	return &Recent{db: db, path: path, limit: limit}, nil
}

func (r *Recent) Close() error { return r.db.Close() }

// Path returns the database file.
func (r *Recent) Path() string { return r.path }

func ensureRecentSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recent (
			path       TEXT PRIMARY KEY,
			pages      INTEGER NOT NULL DEFAULT 0,
			opened_at  TEXT    NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database starts at schema 1 and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// migrateRecent applies incremental schema migrations up to recentSchemaVersion.
func migrateRecent(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < recentSchemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`ALTER TABLE recent ADD COLUMN thumb BLOB;`,
				`CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent(opened_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// Touch records path as just opened or saved and evicts entries beyond the
// limit, oldest first.
func (r *Recent) Touch(ctx context.Context, path string, pages int, thumb []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	// INSERT OR REPLACE assigns a fresh rowid, which orders entries by recency.
	if _, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO recent(path, pages, opened_at, thumb) VALUES(?,?,?,?)`,
		abs, pages, now, thumb); err != nil {
		return fmt.Errorf("upsert recent: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recent WHERE rowid NOT IN (SELECT rowid FROM recent ORDER BY rowid DESC LIMIT ?)`, r.limit); err != nil {
		return fmt.Errorf("evict recent: %w", err)
	}
	return nil
}

// List returns remembered documents, most recent first.
func (r *Recent) List(ctx context.Context) ([]RecentEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, pages, opened_at, thumb FROM recent ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	var out []RecentEntry
	for rows.Next() {
		var e RecentEntry
		var ts string
		if err := rows.Scan(&e.Path, &e.Pages, &ts, &e.Thumb); err != nil {
			return nil, err
		}
		e.OpenedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove forgets path. Missing entries are not an error.
func (r *Recent) Remove(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recent WHERE path=?`, abs); err != nil {
		return fmt.Errorf("delete recent: %w", err)
	}
	return nil
}

// Prune forgets entries whose file no longer exists or is not a board and
// returns the remaining ones, most recent first.
func (r *Recent) Prune(ctx context.Context) ([]RecentEntry, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	kept := all[:0]
	for _, e := range all {
		_, serr := os.Stat(e.Path)
		if IsDocumentPath(e.Path) && !errors.Is(serr, fs.ErrNotExist) {
			kept = append(kept, e)
			continue
		}
		if err := r.Remove(ctx, e.Path); err != nil {
			return nil, err
		}
		applog.WithComponent("storage").Debug("recent entry dropped", slog.String("path", e.Path))
	}
	return kept, nil
}

// WriteThumbs stores the thumbnail of each entry as a PNG in dir and returns
// the written files. Entries without a thumbnail are skipped.
func WriteThumbs(entries []RecentEntry, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbs dir: %w", err)
	}
	var out []string
	for i, e := range entries {
		if len(e.Thumb) == 0 {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(e.Path), filepath.Ext(e.Path))
		name := filepath.Join(dir, fmt.Sprintf("%02d-%s.png", i+1, base))
		if err := os.WriteFile(name, e.Thumb, 0o644); err != nil {
			return out, fmt.Errorf("write thumb: %w", err)
		}
		out = append(out, name)
	}
	return out, nil
}
