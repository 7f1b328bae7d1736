/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persisted whiteboard model. Field names mirror the
// .wb JSON document one-to-one so older files stay readable.

import (
	"errors"
	"fmt"
)

// ElementType names a drawn item kind as stored in a document.
type ElementType string

const (
	TypeLine      ElementType = "line"
	TypeRectangle ElementType = "rectangle"
	TypeOval      ElementType = "oval"
	TypeText      ElementType = "text"
)

// Document is the persisted form of a whole whiteboard.
type Document struct {
	Pages            []Page `json:"pages"`
	CurrentPageIndex int    `json:"current_page_index"`
	IsDarkMode       bool   `json:"is_dark_mode"`
	GridVisible      bool   `json:"grid_visible"`
	Version          string `json:"version"`
}

// Page is one sheet of a document.
type Page struct {
	Elements        []Element `json:"elements"`
	BackgroundColor string    `json:"background_color"`
}

// Element is one drawn item. Lines use Fill as their stroke color, shapes use
// Outline, text uses Fill for the glyph color.
type Element struct {
	Type     ElementType `json:"type"`
	Coords   []float64   `json:"coords"`
	Fill     string      `json:"fill,omitempty"`
	Outline  string      `json:"outline,omitempty"`
	Width    float64     `json:"width,omitempty"`
	CapStyle string      `json:"capstyle,omitempty"`
	Smooth   bool        `json:"smooth,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FontWeight string  `json:"font_weight,omitempty"` // normal | bold
	FontSlant  string  `json:"font_slant,omitempty"`  // roman | italic
}

var ErrBadGeometry = errors.New("bad element geometry")

// Validate checks that the coordinate count fits the element type.
func (e Element) Validate() error {
	n := len(e.Coords)
	switch e.Type {
	case TypeLine:
		if n < 4 || n%2 != 0 {
			return fmt.Errorf("%w: line needs an even number of at least 4 coords, got %d", ErrBadGeometry, n)
		}
	case TypeRectangle, TypeOval:
		if n != 4 {
			return fmt.Errorf("%w: %s needs 4 coords, got %d", ErrBadGeometry, e.Type, n)
		}
	case TypeText:
		if n != 2 {
			return fmt.Errorf("%w: text needs 2 coords, got %d", ErrBadGeometry, n)
		}
	default:
		return fmt.Errorf("unknown element type %q", e.Type)
	}
	return nil
}

// StrokeColor returns the color that draws the element's visible outline.
func (e Element) StrokeColor() string {
	if e.Type == TypeRectangle || e.Type == TypeOval {
		return e.Outline
	}
	return e.Fill
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	e.Coords = append([]float64(nil), e.Coords...)
	return e
}

// NewDocument returns a document with a single blank page.
func NewDocument(version string) Document {
	return Document{Pages: []Page{BlankPage("white")}, Version: version}
}

// BlankPage returns an empty page with the given background.
func BlankPage(background string) Page {
	return Page{Elements: []Element{}, BackgroundColor: background}
}

// Normalize makes a decoded document usable: at least one page, non-nil
// element slices and an in-range active index.
func (d *Document) Normalize() {
	if len(d.Pages) == 0 {
		d.Pages = []Page{BlankPage("white")}
	}
	for i := range d.Pages {
		if d.Pages[i].Elements == nil {
			d.Pages[i].Elements = []Element{}
		}
		if d.Pages[i].BackgroundColor == "" {
			d.Pages[i].BackgroundColor = "white"
		}
	}
	if d.CurrentPageIndex < 0 {
		d.CurrentPageIndex = 0
	}
	if d.CurrentPageIndex >= len(d.Pages) {
		d.CurrentPageIndex = len(d.Pages) - 1
	}
}

// ElementCount sums elements over all pages.
func (d Document) ElementCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Elements)
	}
	return n
}
