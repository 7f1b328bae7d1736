/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"gowhiteboard/internal/domain"
)

// StyleOf extracts the visual options of a persisted element.
func StyleOf(e domain.Element) Style {
	return Style{
		Fill:     e.Fill,
		Outline:  e.Outline,
		Width:    e.Width,
		CapStyle: e.CapStyle,
		Smooth:   e.Smooth,
		Text:     e.Text,
		Font: Font{
			Family: e.FontFamily,
			Size:   e.FontSize,
			Weight: e.FontWeight,
			Slant:  e.FontSlant,
		},
	}
}

// Create re-issues the create call matching e's type and returns the new id.
// Unknown types and malformed geometry yield 0.
func Create(s Surface, e domain.Element, tags ...string) ItemID {
	if e.Validate() != nil {
		return 0
	}
	st := StyleOf(e)
	switch e.Type {
	case domain.TypeLine:
		return s.CreateLine(e.Coords, st, tags...)
	case domain.TypeRectangle:
		return s.CreateRectangle(e.Coords, st, tags...)
	case domain.TypeOval:
		return s.CreateOval(e.Coords, st, tags...)
	case domain.TypeText:
		return s.CreateText(e.Coords[0], e.Coords[1], st, tags...)
	}
	return 0
}

// ElementOf reads an item back into its persisted form.
func ElementOf(s Surface, id ItemID) (domain.Element, bool) {
	kind, ok := s.Type(id)
	if !ok {
		return domain.Element{}, false
	}
	st, _ := s.Style(id)
	e := domain.Element{
		Type:   kind,
		Coords: s.Coords(id),
		Fill:   st.Fill,
		Width:  st.Width,
	}
	switch kind {
	case domain.TypeLine:
		e.CapStyle = st.CapStyle
		e.Smooth = st.Smooth
	case domain.TypeRectangle, domain.TypeOval:
		e.Outline = st.Outline
	case domain.TypeText:
		e.Width = 0
		e.Text = st.Text
		e.FontFamily = st.Font.Family
		e.FontSize = st.Font.Size
		e.FontWeight = st.Font.Weight
		e.FontSlant = st.Font.Slant
	}
	return e, true
}

// Drawn reports whether id is user content: neither grid nor preview.
func Drawn(s Surface, id ItemID) bool {
	return !s.HasTag(id, TagGrid) && !s.HasTag(id, TagTempShape)
}

// DrawnItems returns the ids of user content in paint order.
func DrawnItems(s Surface) []ItemID {
	var out []ItemID
	for _, id := range s.Items() {
		if Drawn(s, id) {
			out = append(out, id)
		}
	}
	return out
}

// Elements serializes all user content in paint order.
func Elements(s Surface) []domain.Element {
	els, _ := Snapshot(s)
	return els
}

// Snapshot serializes user content and returns the matching ids alongside.
func Snapshot(s Surface) ([]domain.Element, []ItemID) {
	els := []domain.Element{}
	var ids []ItemID
	for _, id := range DrawnItems(s) {
		if e, ok := ElementOf(s, id); ok {
			els = append(els, e)
			ids = append(ids, id)
		}
	}
	return els, ids
}

// ClearDrawing deletes every item that is not a grid line.
func ClearDrawing(s Surface) int {
	n := 0
	for _, id := range s.Items() {
		if s.HasTag(id, TagGrid) {
			continue
		}
		if s.Delete(id) {
			n++
		}
	}
	return n
}

// Restore clears the drawing and re-creates elements in order. The returned
// ids line up with elements; rejected elements get 0.
func Restore(s Surface, elements []domain.Element) []ItemID {
	ClearDrawing(s)
	ids := make([]ItemID, len(elements))
	for i, e := range elements {
		ids[i] = Create(s, e)
	}
	return ids
}
