/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns whiteboard pages into files: PNG images rasterized with gogpu/gg (or a
// screen capture handed in by the GUI) and multi-page vector PDFs via gofpdf.
package export

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

var (
	// ErrNoPages is returned when a document has nothing to export.
	ErrNoPages = errors.New("document has no pages")
	// ErrBadGeometry is returned when element coordinates are not finite.
	ErrBadGeometry = errors.New("element coordinates are not finite")
)

// Default raster size, matching the on-screen board.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	// MaxRasterSide bounds either side of a rendered image. Fitted content
	// that would exceed it is scaled down to fit.
	MaxRasterSide = 8192
	fitMargin     = 20
)

// RenderOptions controls headless rasterization.
//   - Width/Height: output size; zero means DefaultWidth/DefaultHeight
//   - Fit: grow the image so every element is inside it, up to MaxRasterSide
//   - Scale: multiplies all coordinates (thumbnails); zero means 1
//   - Grid: draw grid lines every GridSpacing units
type RenderOptions struct {
	Width       int
	Height      int
	Fit         bool
	Scale       float64
	Grid        bool
	GridSpacing float64
}

// RenderPage rasterizes one page.
func RenderPage(p domain.Page, opt RenderOptions) (image.Image, error) {
	w, h := opt.Width, opt.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	w, h = min(w, MaxRasterSide), min(h, MaxRasterSide)
	scale := opt.Scale
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		scale = 1
	}
	if opt.Fit {
		if b, ok := pageBounds(p.Elements); ok {
			var err error
			if w, h, scale, err = fitRaster(b, w, h, scale); err != nil {
				return nil, err
			}
		}
	}
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.FromColor(vector.MustColor(orDefault(p.BackgroundColor, "white")).RGBA()))
	if opt.Grid {
		spacing := opt.GridSpacing
		if spacing <= 0 {
			spacing = 20
		}
		if err := Paint(dc, GridLines(float64(w), float64(h), spacing*scale)); err != nil {
			return nil, err
		}
	}
	if err := Paint(dc, scaleElements(p.Elements, scale)); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// fitRaster grows w x h to cover b at the given scale. When the result would
// exceed MaxRasterSide the scale shrinks so the content still fits.
func fitRaster(b vector.Rect, w, h int, scale float64) (int, int, float64, error) {
	right, bottom := b.X+b.W, b.Y+b.H
	for _, v := range []float64{right, bottom} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, 0, 0, ErrBadGeometry
		}
	}
	limit := float64(MaxRasterSide - fitMargin)
	if ext := max(right, bottom) * scale; ext > limit {
		scale *= limit / ext
	}
	w = min(MaxRasterSide, max(w, int(math.Ceil(right*scale))+fitMargin))
	h = min(MaxRasterSide, max(h, int(math.Ceil(bottom*scale))+fitMargin))
	return w, h, scale, nil
}

// scaleElements returns copies of els scaled about the origin. Text is drawn
// straight into the pixmap, so scaling goes into the data instead of the
// context transform.
func scaleElements(els []domain.Element, s float64) []domain.Element {
	if s == 1 {
		return els
	}
	m := vector.Scale(s, s)
	out := make([]domain.Element, len(els))
	for i, e := range els {
		e = e.Clone()
		m.ApplyCoords(e.Coords)
		e.Width *= s
		if e.Type == domain.TypeText && e.FontSize <= 0 {
			e.FontSize = 12
		}
		e.FontSize *= s
		out[i] = e
	}
	return out
}

// GridLines returns the grid as line elements every spacing units across a
// w x h area.
func GridLines(w, h, spacing float64) []domain.Element {
	var out []domain.Element
	grid := vector.GridLine.Hex()
	for x := 0.0; x < w; x += spacing {
		out = append(out, domain.Element{Type: domain.TypeLine, Coords: []float64{x, 0, x, h}, Fill: grid, Width: 1})
	}
	for y := 0.0; y < h; y += spacing {
		out = append(out, domain.Element{Type: domain.TypeLine, Coords: []float64{0, y, w, y}, Fill: grid, Width: 1})
	}
	return out
}

// Paint draws elements onto dc in order.
func Paint(dc *gg.Context, els []domain.Element) error {
	for i, e := range els {
		if err := paintElement(dc, e); err != nil {
			return fmt.Errorf("element %d (%s): %w", i, e.Type, err)
		}
	}
	return nil
}

func paintElement(dc *gg.Context, e domain.Element) error {
	if e.Validate() != nil {
		return nil
	}
	width := e.Width
	if width <= 0 {
		width = 1
	}
	switch e.Type {
	case domain.TypeLine:
		col, ok := parsePaint(e.Fill)
		if !ok {
			return nil
		}
		dc.SetColor(col.RGBA())
		dc.SetLineWidth(width)
		if e.CapStyle == "round" {
			dc.SetLineCap(gg.LineCapRound)
			dc.SetLineJoin(gg.LineJoinRound)
		} else {
			dc.SetLineCap(gg.LineCapButt)
			dc.SetLineJoin(gg.LineJoinMiter)
		}
		for _, op := range linePath(e.Coords, e.Smooth) {
			switch op.kind {
			case opMove:
				dc.MoveTo(op.p.X, op.p.Y)
			case opLine:
				dc.LineTo(op.p.X, op.p.Y)
			case opQuad:
				dc.QuadraticTo(op.c.X, op.c.Y, op.p.X, op.p.Y)
			}
		}
		return dc.Stroke()
	case domain.TypeRectangle, domain.TypeOval:
		r := vector.FromCorners(e.Coords[0], e.Coords[1], e.Coords[2], e.Coords[3])
		shape := func() {
			if e.Type == domain.TypeRectangle {
				dc.DrawRectangle(r.X, r.Y, r.W, r.H)
			} else {
				c := r.Center()
				dc.DrawEllipse(c.X, c.Y, r.W/2, r.H/2)
			}
		}
		if fill, ok := parsePaint(e.Fill); ok {
			shape()
			dc.SetColor(fill.RGBA())
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		if outline, ok := parsePaint(e.Outline); ok {
			shape()
			dc.SetColor(outline.RGBA())
			dc.SetLineWidth(width)
			dc.SetLineJoin(gg.LineJoinMiter)
			return dc.Stroke()
		}
		return nil
	case domain.TypeText:
		col, ok := parsePaint(orDefault(e.Fill, "black"))
		if !ok || e.Text == "" {
			return nil
		}
		face, err := fontFace(e.FontFamily, e.FontWeight, e.FontSlant, e.FontSize)
		if err != nil {
			return err
		}
		dc.SetFont(face)
		dc.SetColor(col.RGBA())
		dc.DrawStringAnchored(e.Text, e.Coords[0], e.Coords[1], 0.5, 0.5)
	}
	return nil
}

// parsePaint resolves a stored color. Empty or unknown names do not paint.
func parsePaint(s string) (vector.Color, bool) {
	c, err := vector.ParseColor(s)
	if err != nil || c.IsTransparent() {
		return vector.Color{}, false
	}
	return c, true
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func pageBounds(els []domain.Element) (vector.Rect, bool) {
	var out vector.Rect
	found := false
	for _, e := range els {
		b, ok := vector.Bounds(e.Coords)
		if !ok {
			continue
		}
		if found {
			out = out.Union(b)
		} else {
			out, found = b, true
		}
	}
	return out, found
}

type opKind uint8

const (
	opMove opKind = iota
	opLine
	opQuad
)

type pathOp struct {
	kind opKind
	c, p vector.Pt
}

// linePath converts a polyline into path operations. Smooth lines with more
// than two points become a quadratic B-spline through the segment
// midpoints, pinned to the first and last point.
func linePath(coords []float64, smooth bool) []pathOp {
	pts := vector.Points(coords)
	if len(pts) == 0 {
		return nil
	}
	ops := []pathOp{{kind: opMove, p: pts[0]}}
	if !smooth || len(pts) < 3 {
		for _, p := range pts[1:] {
			ops = append(ops, pathOp{kind: opLine, p: p})
		}
		return ops
	}
	mid := func(a, b vector.Pt) vector.Pt { return vector.Pt{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2} }
	ops = append(ops, pathOp{kind: opLine, p: mid(pts[0], pts[1])})
	for i := 1; i < len(pts)-1; i++ {
		ops = append(ops, pathOp{kind: opQuad, c: pts[i], p: mid(pts[i], pts[i+1])})
	}
	ops = append(ops, pathOp{kind: opLine, p: pts[len(pts)-1]})
	return ops
}

var (
	fontMu      sync.Mutex
	fontSources = map[string]*text.FontSource{}
)

// fontFace maps a stored font description onto the bundled Go fonts.
// Monospace families use Go Mono; everything else uses the Go sans faces.
func fontFace(family, weight, slant string, size float64) (text.Face, error) {
	if size <= 0 {
		size = 12
	}
	key, ttf := "regular", goregular.TTF
	bold := strings.EqualFold(weight, "bold")
	italic := strings.EqualFold(slant, "italic")
	switch {
	case isMono(family):
		key, ttf = "mono", gomono.TTF
	case bold && italic:
		key, ttf = "bolditalic", gobolditalic.TTF
	case bold:
		key, ttf = "bold", gobold.TTF
	case italic:
		key, ttf = "italic", goitalic.TTF
	}
	fontMu.Lock()
	defer fontMu.Unlock()
	src, ok := fontSources[key]
	if !ok {
		var err error
		src, err = text.NewFontSource(ttf)
		if err != nil {
			return nil, fmt.Errorf("load %s font: %w", key, err)
		}
		fontSources[key] = src
	}
	return src.Face(size), nil
}

func isMono(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "courier") || strings.Contains(f, "mono")
}
