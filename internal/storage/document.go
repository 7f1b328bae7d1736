/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/version"
)

const (
	// Ext is the extension written by Save dialogs.
	Ext = ".wb"
	// LegacyExt is the extension older builds offered in their open dialog.
	LegacyExt      = ".wbrd"
	BackupsDirName = ".wb-backups"
)

// ErrInvalidDocument reports a file that is not a readable whiteboard document.
var ErrInvalidDocument = errors.New("invalid whiteboard document")

//go:embed schema/whiteboard.schema.json
var schemaJSON []byte

var documentSchema = gojsonschema.NewBytesLoader(schemaJSON)

// EnsureExt appends Ext when path carries no extension.
func EnsureExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + Ext
	}
	return path
}

// IsDocumentPath reports whether path has one of the whiteboard extensions.
func IsDocumentPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case Ext, LegacyExt:
		return true
	}
	return false
}

// Save writes doc to path as indented JSON. The previous file, if any, is
// copied to a timestamped backup first; the new content goes to a temp file
// that is renamed over path.
func Save(path string, doc domain.Document) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	if doc.Version == "" {
		doc.Version = version.FormatVersion
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		bpath := backupPath(path, time.Now())
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
		l.Debug("backup written", slog.String("backup", bpath))
	}

	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	l.Info("document saved", slog.Int("pages", len(doc.Pages)), slog.Int("bytes", len(data)))
	return nil
}

// Open reads, validates and decodes a document. When the file is missing,
// unreadable or invalid, the newest backup is tried before giving up.
func Open(path string) (domain.Document, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	doc, err := readDocument(path)
	if err == nil {
		return doc, nil
	}
	bdoc, bpath, berr := openFromLatestBackup(path)
	if berr != nil {
		l.Warn("open failed", slog.Any("err", err), slog.Any("backup_err", berr))
		return domain.Document{}, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
	}
	l.Warn("opened from backup", slog.Any("err", err), slog.String("backup", bpath))
	return bdoc, nil
}

// Decode validates and decodes raw document bytes.
func Decode(data []byte) (domain.Document, error) {
	res, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Document{}, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for pi, p := range doc.Pages {
		for ei, e := range p.Elements {
			if err := e.Validate(); err != nil {
				return domain.Document{}, fmt.Errorf("%w: page %d element %d: %v", ErrInvalidDocument, pi, ei, err)
			}
		}
	}
	doc.Normalize()
	if doc.Version == "" {
		doc.Version = version.FormatVersion
	}
	return doc, nil
}

func readDocument(path string) (domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read document: %w", err)
	}
	return Decode(b)
}

// BackupDir returns the backup folder used for the document at path.
func BackupDir(path string) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName)
}

func backupPath(path string, ts time.Time) string {
	stamp := ts.Format("20060102-150405.000")
	return filepath.Join(BackupDir(path), fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := BackupDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func openFromLatestBackup(path string) (domain.Document, string, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Document{}, "", err
	}
	if len(candidates) == 0 {
		return domain.Document{}, "", errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	doc, err := readDocument(latest)
	if err != nil {
		return domain.Document{}, latest, fmt.Errorf("latest backup: %w", err)
	}
	return doc, latest, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
