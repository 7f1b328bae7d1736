/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a recovery copy of
// the open board.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/version"
)

// Source is the open board as seen by the crash handler.
type Source interface {
	Document() domain.Document
	Path() string
}

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and saves a recovery copy of the board
// (if provided and not empty).
//
// Usage: defer crash.Recover(b)
func Recover(src Source) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(src, r, stack)
		if src != nil && src.Document().ElementCount() > 0 {
			if path, err := autosave(src); err != nil {
				l.Error("recovery autosave failed", slog.Any("err", err))
			} else {
				l.Info("recovery autosave written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// reportDir is the backups dir next to the open document, or the temp dir
// for an unsaved board.
func reportDir(src Source) string {
	if src == nil || src.Path() == "" {
		return os.TempDir()
	}
	dir := storage.BackupDir(src.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

// autosave writes the board to recovery-<stamp>.wb next to the report.
// The document itself is left untouched.
func autosave(src Source) (string, error) {
	path := filepath.Join(reportDir(src), fmt.Sprintf("recovery-%s%s", time.Now().Format("20060102-150405"), storage.Ext))
	if err := storage.Save(path, src.Document()); err != nil {
		return "", fmt.Errorf("autosave recovery: %w", err)
	}
	return path, nil
}

func writeReport(src Source, panicVal any, stack []byte) (string, error) {
	dir := reportDir(src)
	stamp := time.Now().Format("20060102-150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Go Whiteboard Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if src != nil {
		doc := src.Document()
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", src.Path())
		_, _ = fmt.Fprintf(&buf, "Pages: %d (active %d)\n", len(doc.Pages), doc.CurrentPageIndex+1)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
