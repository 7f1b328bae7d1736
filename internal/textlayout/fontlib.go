/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family used when a requested family is not loaded.
const FallbackFamily = "Go"

// FontLibrary stores parsed OpenType fonts keyed by family, weight and slant,
// and caches the faces built from them per size.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

type faceKey struct {
	fontKey
	size float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

var (
	defaultOnce sync.Once
	defaultLib  *FontLibrary
)

// Default returns the shared library preloaded with the Go font family.
func Default() *FontLibrary {
	defaultOnce.Do(func() {
		defaultLib = NewFontLibrary()
		if err := defaultLib.LoadGoFonts(); err != nil {
			// gofont data is compiled in; a parse failure leaves the basic fallback.
			defaultLib = NewFontLibrary()
		}
	})
	return defaultLib
}

// LoadGoFonts registers the bundled Go fonts under the "Go" and "Go Mono" families.
func (fl *FontLibrary) LoadGoFonts() error {
	sets := []struct {
		family       string
		bold, italic bool
		data         []byte
	}{
		{FallbackFamily, false, false, goregular.TTF},
		{FallbackFamily, true, false, gobold.TTF},
		{FallbackFamily, false, true, goitalic.TTF},
		{FallbackFamily, true, true, gobolditalic.TTF},
		{"Go Mono", false, false, gomono.TTF},
	}
	for _, s := range sets {
		if err := fl.LoadBytes(s.family, s.bold, s.italic, s.data); err != nil {
			return err
		}
	}
	return nil
}

// LoadTTF loads a font file into the library under the given family and style.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, bold, italic, data)
}

// LoadBytes parses raw TTF/OTF data into the library.
func (fl *FontLibrary) LoadBytes(family string, bold, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: normFamily(family), bold: bold, italic: italic}] = f
	return nil
}

// Families lists the loaded family names.
func (fl *FontLibrary) Families() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

// find resolves a spec to a loaded font. Unknown families map to the Go
// family; monospace-like names map to Go Mono when present.
func (fl *FontLibrary) find(spec FontSpec) (*opentype.Font, fontKey) {
	want := fontKey{family: normFamily(spec.Family), bold: spec.Bold(), italic: spec.Italic}
	if f, ok := fl.fonts[want]; ok {
		return f, want
	}
	if isMono(want.family) {
		k := fontKey{family: normFamily("Go Mono")}
		if f, ok := fl.fonts[k]; ok {
			return f, k
		}
	}
	for _, k := range []fontKey{
		{family: normFamily(FallbackFamily), bold: want.bold, italic: want.italic},
		{family: want.family},
		{family: normFamily(FallbackFamily)},
	} {
		if f, ok := fl.fonts[k]; ok {
			return f, k
		}
	}
	return nil, fontKey{}
}

func (fl *FontLibrary) face(spec FontSpec, dpi float64) font.Face {
	if fl == nil {
		return nil
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	f, k := fl.find(spec)
	if f == nil {
		return nil
	}
	fk := faceKey{fontKey: k, size: float64(spec.SizePt) * dpi / 72}
	if face, ok := fl.faces[fk]; ok {
		return face
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingNone})
	if err != nil {
		return nil
	}
	if fl.faces == nil {
		fl.faces = make(map[faceKey]font.Face)
	}
	fl.faces[fk] = face
	return face
}

func normFamily(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func isMono(family string) bool {
	switch family {
	case "courier", "courier new", "consolas", "menlo", "monaco", "monospace", "go mono", "fixed":
		return true
	}
	return false
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = DefaultSize
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if face := p.Lib.face(spec, dpi); face != nil {
		return face, metricsOf(face)
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

func metricsOf(face font.Face) Metrics {
	m := face.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}
