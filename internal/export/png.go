/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"gowhiteboard/internal/domain"
)

// PNGOptions controls document PNG export.
//   - Page: zero-based page to export; negative means the document's active page
//   - Render: rasterizer options
type PNGOptions struct {
	Page   int
	Render RenderOptions
}

// WritePNG encodes img to path, creating parent folders. The GUI passes its
// screen capture here; headless callers pass RenderPage output.
func WritePNG(path string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("no image to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// DocumentPNG rasterizes one page of doc and writes it to path.
func DocumentPNG(doc domain.Document, path string, opt PNGOptions) error {
	if len(doc.Pages) == 0 {
		return ErrNoPages
	}
	idx := opt.Page
	if idx < 0 {
		idx = doc.CurrentPageIndex
	}
	if idx < 0 || idx >= len(doc.Pages) {
		return fmt.Errorf("page %d out of range (1..%d)", idx+1, len(doc.Pages))
	}
	ro := opt.Render
	ro.Grid = ro.Grid || doc.GridVisible
	img, err := RenderPage(doc.Pages[idx], ro)
	if err != nil {
		return fmt.Errorf("render page %d: %w", idx+1, err)
	}
	return WritePNG(path, img)
}

// Thumbnail renders p scaled into a w x h PNG.
func Thumbnail(p domain.Page, w, h int) ([]byte, error) {
	scale := min(float64(w)/DefaultWidth, float64(h)/DefaultHeight)
	img, err := RenderPage(p, RenderOptions{Width: w, Height: h, Scale: scale})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
