/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"gowhiteboard/internal/bundle"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/version"
)

// RecentIndex remembers opened and saved documents.
type RecentIndex interface {
	Touch(ctx context.Context, path string, pages int, thumb []byte) error
}

// SetRecent attaches a recent-documents index; nil detaches it.
func (b *Board) SetRecent(r RecentIndex) { b.recent = r }

// AddPage inserts a blank page after the active one and switches to it.
func (b *Board) AddPage() {
	b.endGesture()
	b.pages.AddPage()
	b.drawGrid()
	b.applyTheme()
	b.touch()
}

// NextPage switches to the following page, if any.
func (b *Board) NextPage() bool {
	b.endGesture()
	if !b.pages.NextPage() {
		return false
	}
	b.applyTheme()
	return true
}

// PrevPage switches to the preceding page, if any. An empty page being left
// is dropped.
func (b *Board) PrevPage() bool {
	b.endGesture()
	n := b.pages.Len()
	if !b.pages.PrevPage() {
		return false
	}
	if b.pages.Len() < n {
		b.touch()
	}
	b.applyTheme()
	return true
}

func (b *Board) endGesture() {
	b.pressed = false
	b.surf.DeleteTag(surface.TagTempShape)
}

// Document captures the active page and returns the whole board in its
// persisted form.
func (b *Board) Document() domain.Document {
	return domain.Document{
		Pages:            b.pages.Pages(),
		CurrentPageIndex: b.pages.Index(),
		IsDarkMode:       b.darkMode,
		GridVisible:      b.gridVisible,
		Version:          version.FormatVersion,
	}
}

// Save writes the board to path and remembers path for later saves.
func (b *Board) Save(path string) error {
	path = storage.EnsureExt(path)
	doc := b.Document()
	if err := storage.Save(path, doc); err != nil {
		return fmt.Errorf("save whiteboard: %w", err)
	}
	b.path = path
	b.dirty = false
	b.remember(path, doc)
	return nil
}

// Load replaces the board content with the document at path. Histories start
// empty on every page.
func (b *Board) Load(path string) error {
	doc, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("load whiteboard: %w", err)
	}
	b.Apply(doc)
	b.path = path
	b.dirty = false
	b.remember(path, doc)
	return nil
}

// Apply shows doc on the board: pages are replaced, the active page is drawn
// and the dark-mode and grid flags restored.
func (b *Board) Apply(doc domain.Document) {
	b.endGesture()
	b.darkMode = doc.IsDarkMode
	b.gridVisible = doc.GridVisible
	b.pages.Replace(doc.Pages, doc.CurrentPageIndex)
	b.drawGrid()
	b.applyTheme()
	b.dirty = true
}

// Reset starts a fresh untitled document, keeping the tool settings and theme.
func (b *Board) Reset() {
	doc := domain.NewDocument(version.FormatVersion)
	doc.IsDarkMode = b.darkMode
	doc.GridVisible = b.gridVisible
	b.Apply(doc)
	b.path = ""
	b.dirty = false
}

// ExportPNG writes a captured image of the board to path.
func (b *Board) ExportPNG(path string, img image.Image) error {
	if err := export.WritePNG(path, img); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	b.log.Info("png exported", slog.String("path", path), slog.String("source", "capture"))
	return nil
}

// RenderPNG rasterizes the active page without a display and writes it to
// path.
func (b *Board) RenderPNG(path string) error {
	doc := b.Document()
	opt := export.PNGOptions{Page: -1, Render: export.RenderOptions{
		Width:       int(b.gridW),
		Height:      int(b.gridH),
		Fit:         true,
		GridSpacing: b.gridSpacing,
	}}
	if err := export.DocumentPNG(doc, path, opt); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	b.log.Info("png exported", slog.String("path", path), slog.String("source", "render"))
	return nil
}

// ExportPDF writes every page to a PDF at path.
func (b *Board) ExportPDF(path string) error {
	if err := export.PDF(b.Document(), path, export.PDFOptions{}); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	b.log.Info("pdf exported", slog.String("path", path))
	return nil
}

// ExportBundle writes a shareable .zip with the document and page images.
func (b *Board) ExportBundle(path string) error {
	if err := bundle.Export(b.Document(), path, bundle.Options{Source: b.path}); err != nil {
		return fmt.Errorf("export bundle: %w", err)
	}
	b.log.Info("bundle exported", slog.String("path", path))
	return nil
}

func (b *Board) remember(path string, doc domain.Document) {
	if b.recent == nil {
		return
	}
	var thumb []byte
	if len(doc.Pages) > 0 {
		t, err := export.Thumbnail(doc.Pages[0], 160, 120)
		if err != nil {
			b.log.Warn("thumbnail failed", slog.Any("err", err))
		}
		thumb = t
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.recent.Touch(ctx, path, len(doc.Pages), thumb); err != nil {
		b.log.Warn("recent index update failed", slog.Any("err", err))
	}
}
