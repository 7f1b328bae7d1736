/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a board into a single .zip for sharing: the .wb
// document plus a rendered PNG of every page.
package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
)

const (
	Ext          = ".zip"
	DocumentName = "board" + storage.Ext
	ManifestName = "bundle.manifest.txt"
	pagesDir     = "pages/"
)

// ErrNoDocument is returned when an archive has no board document.
var ErrNoDocument = errors.New("bundle has no " + DocumentName)

// Options controls page rendering inside the bundle.
type Options struct {
	Source string // original document path, recorded in the manifest
	Grid   bool
}

// Export writes doc and one PNG per page to destZipPath. An existing file at
// destZipPath is replaced.
func Export(doc domain.Document, destZipPath string, opt Options) error {
	l := applog.WithOperation(applog.WithComponent("bundle"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if len(doc.Pages) == 0 {
		return export.ErrNoPages
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)
	if err := writeBundle(zw, doc, opt); err != nil {
		_ = zw.Close()
		_ = zf.Close()
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = zf.Close()
		return fmt.Errorf("finish zip: %w", err)
	}
	if err := zf.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Info("bundle exported", slog.Int("pages", len(doc.Pages)))
	return nil
}

func writeBundle(zw *zip.Writer, doc domain.Document, opt Options) error {
	manifest := fmt.Sprintf("Go Whiteboard Bundle\nCreated: %s\nSource: %s\nPages: %d\n\n%s holds the board; %s has one PNG per page.\n",
		time.Now().Format(time.RFC3339), opt.Source, len(doc.Pages), DocumentName, pagesDir)
	if err := addFile(zw, ManifestName, []byte(manifest)); err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := addFile(zw, DocumentName, append(data, '\n')); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	for i, p := range doc.Pages {
		img, err := export.RenderPage(p, export.RenderOptions{Fit: true, Grid: opt.Grid || doc.GridVisible})
		if err != nil {
			return fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if err := addFile(zw, PageName(i), buf.Bytes()); err != nil {
			return fmt.Errorf("add page %d: %w", i+1, err)
		}
	}
	return nil
}

// PageName is the archive path of page i (zero-based).
func PageName(i int) string { return fmt.Sprintf("%spage-%03d.png", pagesDir, i+1) }

func addFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Import reads the board document back out of a bundle. Page images are
// ignored; the document is validated like any .wb file.
func Import(zipPath string) (domain.Document, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "import").With(slog.String("zip", zipPath))
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name != DocumentName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Document{}, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return domain.Document{}, fmt.Errorf("read %s: %w", f.Name, err)
		}
		doc, err := storage.Decode(data)
		if err != nil {
			return domain.Document{}, err
		}
		l.Info("bundle imported", slog.Int("pages", len(doc.Pages)))
		return doc, nil
	}
	return domain.Document{}, ErrNoDocument
}

// Unpack extracts the board from zipPath and saves it as a .wb at destPath.
func Unpack(zipPath, destPath string) (string, error) {
	doc, err := Import(zipPath)
	if err != nil {
		return "", err
	}
	destPath = storage.EnsureExt(destPath)
	if err := storage.Save(destPath, doc); err != nil {
		return "", err
	}
	return destPath, nil
}
