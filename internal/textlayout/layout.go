/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement for board labels. Everything that needs the extent of a
// text item (hit testing, the eraser, bounding boxes) goes through Measure so
// the numbers do not depend on the GUI toolkit.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// DefaultSize is the point size used when a label has none.
const DefaultSize = 12

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePt float32
	Weight int // 400 normal, 700 bold
	Italic bool
}

// Bold reports whether the weight asks for a bold face.
func (s FontSpec) Bold() bool { return s.Weight >= 600 }

// Spec builds a FontSpec from the document's font fields.
func Spec(family string, size float64, weight, slant string) FontSpec {
	fs := FontSpec{Family: family, SizePt: float32(size), Weight: 400}
	if weight == "bold" {
		fs.Weight = 700
	}
	fs.Italic = slant == "italic"
	return fs
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the advance between two baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

// DefaultProvider resolves against the bundled Go fonts.
func DefaultProvider() Provider { return OTProvider{Lib: Default()} }

// Measure returns the width and height of text set in spec. Lines are split
// on '\n'; the width is the widest line.
func Measure(p Provider, spec FontSpec, text string) (w, h float32) {
	if p == nil {
		p = BasicProvider{}
	}
	face, m := p.Resolve(spec)
	lines := strings.Split(text, "\n")
	for _, ln := range lines {
		adv := font.MeasureString(face, ln)
		if lw := float32(adv) / 64; lw > w {
			w = lw
		}
	}
	lh := m.LineHeight()
	if lh <= 0 {
		lh = m.Ascent + m.Descent
	}
	h = lh * float32(len(lines))
	return w, h
}
