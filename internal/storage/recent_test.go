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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestRecentTouchListOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := OpenRecent(ctx, dir, 0)
	if err != nil {
		t.Fatalf("OpenRecent: %v", err)
	}
	defer r.Close()

	a := filepath.Join(dir, "a.wb")
	b := filepath.Join(dir, "b.wb")
	if err := r.Touch(ctx, a, 1, []byte{1, 2, 3}); err != nil {
		t.Fatalf("touch a: %v", err)
	}
	if err := r.Touch(ctx, b, 3, nil); err != nil {
		t.Fatalf("touch b: %v", err)
	}
	if err := r.Touch(ctx, a, 2, nil); err != nil {
		t.Fatalf("touch a again: %v", err)
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Path != a || list[1].Path != b {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Pages != 2 {
		t.Fatalf("pages not updated: %d", list[0].Pages)
	}
	if list[0].OpenedAt.IsZero() {
		t.Fatalf("opened_at not parsed")
	}
}

func TestRecentEvictsBeyondLimit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := OpenRecent(ctx, dir, 3)
	if err != nil {
		t.Fatalf("OpenRecent: %v", err)
	}
	defer r.Close()
	for i := 0; i < 5; i++ {
		if err := r.Touch(ctx, filepath.Join(dir, fmt.Sprintf("%d.wb", i)), 1, nil); err != nil {
			t.Fatalf("touch %d: %v", i, err)
		}
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Path != filepath.Join(dir, "4.wb") || list[2].Path != filepath.Join(dir, "2.wb") {
		t.Fatalf("eviction kept %+v", list)
	}
	if err := r.Remove(ctx, filepath.Join(dir, "3.wb")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if list, _ = r.List(ctx); len(list) != 2 {
		t.Fatalf("remove failed: %+v", list)
	}
}

func TestRecentPruneDropsMissingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := OpenRecent(ctx, dir, 0)
	if err != nil {
		t.Fatalf("OpenRecent: %v", err)
	}
	defer r.Close()

	kept := filepath.Join(dir, "kept.wb")
	if err := os.WriteFile(kept, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{kept, filepath.Join(dir, "gone.wb"), notes} {
		if err := r.Touch(ctx, p, 1, nil); err != nil {
			t.Fatalf("touch %s: %v", p, err)
		}
	}
	list, err := r.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(list) != 1 || list[0].Path != kept {
		t.Fatalf("prune kept %+v", list)
	}
	if all, _ := r.List(ctx); len(all) != 1 {
		t.Fatalf("pruned entries still indexed: %+v", all)
	}
}

func TestWriteThumbs(t *testing.T) {
	dir := t.TempDir()
	entries := []RecentEntry{
		{Path: "/boards/plan.wb", Thumb: []byte("png-a")},
		{Path: "/boards/empty.wb"},
		{Path: "/other/plan.wb", Thumb: []byte("png-b")},
	}
	files, err := WriteThumbs(entries, filepath.Join(dir, "thumbs"))
	if err != nil {
		t.Fatalf("WriteThumbs: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "01-plan.png" || filepath.Base(files[1]) != "03-plan.png" {
		t.Fatalf("files %v", files)
	}
	got, err := os.ReadFile(files[1])
	if err != nil || !bytes.Equal(got, []byte("png-b")) {
		t.Fatalf("thumb content %q err=%v", got, err)
	}
}

func TestRecentSchemaMigrated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := OpenRecent(ctx, dir, 0)
	if err != nil {
		t.Fatalf("OpenRecent: %v", err)
	}
	r.Close()

	// reopening an up-to-date database must not re-run migrations
	r, err = OpenRecent(ctx, dir, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()

	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(r.Path()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	var schema int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if schema != recentSchemaVersion {
		t.Fatalf("schema=%d want %d", schema, recentSchemaVersion)
	}
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL, got %s", mode)
	}
}
