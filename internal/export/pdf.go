/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// PDFOptions controls PDF export behavior.
// Units are points; one board unit maps to one point, so a default board
// page becomes an 800x600pt sheet. Text uses the PDF core fonts.
type PDFOptions struct {
	Width  float64 // page width in pt; zero means fit to content, at least DefaultWidth
	Height float64
	Grid   bool
	Title  string
	Pages  []int // if empty, export all pages
}

// PDF writes doc as a multi-page vector PDF at outPath.
func PDF(doc domain.Document, outPath string, opt PDFOptions) error {
	if len(doc.Pages) == 0 {
		return ErrNoPages
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: DefaultWidth, Ht: DefaultHeight},
	})
	title := opt.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("gowhiteboard", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, pidx := range pageIndexes(len(doc.Pages), opt.Pages) {
		if pidx < 0 || pidx >= len(doc.Pages) {
			continue
		}
		pg := doc.Pages[pidx]
		w, h := opt.Width, opt.Height
		if w <= 0 || h <= 0 {
			w, h = DefaultWidth, DefaultHeight
			if b, ok := pageBounds(pg.Elements); ok {
				w = max(w, b.X+b.W+fitMargin)
				h = max(h, b.Y+b.H+fitMargin)
			}
		}
		// "P" keeps Wd/Ht as given; "L" would swap them
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

		if bg, ok := parsePaint(orDefault(pg.BackgroundColor, "white")); ok && bg != vector.White {
			setFillColor(pdf, bg)
			pdf.Rect(0, 0, w, h, "F")
		}
		els := pg.Elements
		if opt.Grid || doc.GridVisible {
			els = append(GridLines(w, h, 20), els...)
		}
		for _, e := range els {
			pdfElement(pdf, tr, e)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfElement(pdf *gofpdf.Fpdf, tr func(string) string, e domain.Element) {
	if e.Validate() != nil {
		return
	}
	width := e.Width
	if width <= 0 {
		width = 1
	}
	switch e.Type {
	case domain.TypeLine:
		col, ok := parsePaint(e.Fill)
		if !ok {
			return
		}
		setDrawColor(pdf, col)
		pdf.SetLineWidth(width)
		if e.CapStyle == "round" {
			pdf.SetLineCapStyle("round")
			pdf.SetLineJoinStyle("round")
		} else {
			pdf.SetLineCapStyle("butt")
			pdf.SetLineJoinStyle("miter")
		}
		for _, op := range linePath(e.Coords, e.Smooth) {
			switch op.kind {
			case opMove:
				pdf.MoveTo(op.p.X, op.p.Y)
			case opLine:
				pdf.LineTo(op.p.X, op.p.Y)
			case opQuad:
				pdf.CurveTo(op.c.X, op.c.Y, op.p.X, op.p.Y)
			}
		}
		pdf.DrawPath("D")
	case domain.TypeRectangle, domain.TypeOval:
		r := vector.FromCorners(e.Coords[0], e.Coords[1], e.Coords[2], e.Coords[3])
		style := ""
		if fill, ok := parsePaint(e.Fill); ok {
			setFillColor(pdf, fill)
			style += "F"
		}
		if outline, ok := parsePaint(e.Outline); ok {
			setDrawColor(pdf, outline)
			pdf.SetLineWidth(width)
			pdf.SetLineJoinStyle("miter")
			style += "D"
		}
		if style == "" {
			return
		}
		if e.Type == domain.TypeRectangle {
			pdf.Rect(r.X, r.Y, r.W, r.H, style)
		} else {
			c := r.Center()
			pdf.Ellipse(c.X, c.Y, r.W/2, r.H/2, 0, style)
		}
	case domain.TypeText:
		col, ok := parsePaint(orDefault(e.Fill, "black"))
		if !ok || e.Text == "" {
			return
		}
		size := e.FontSize
		if size <= 0 {
			size = 12
		}
		pdf.SetFont(pdfFamily(e.FontFamily), pdfStyle(e.FontWeight, e.FontSlant), size)
		pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
		s := tr(e.Text)
		// center anchor: shift left by half the width, down to the baseline
		tw := pdf.GetStringWidth(s)
		pdf.Text(e.Coords[0]-tw/2, e.Coords[1]+size*0.35, s)
	}
}

func pdfFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case isMono(f):
		return "Courier"
	case strings.Contains(f, "times") || strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	default:
		return "Helvetica"
	}
}

func pdfStyle(weight, slant string) string {
	s := ""
	if strings.EqualFold(weight, "bold") {
		s += "B"
	}
	if strings.EqualFold(slant, "italic") {
		s += "I"
	}
	return s
}

func pageIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
