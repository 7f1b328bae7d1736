/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"slices"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/textlayout"
	"gowhiteboard/internal/vector"
)

type item struct {
	id     ItemID
	kind   domain.ElementType
	coords []float64
	style  Style
	tags   []string
}

// Scene is an in-memory Surface. Items keep creation order, which is also
// the paint order. Not safe for concurrent use.
type Scene struct {
	items      map[ItemID]*item
	order      []ItemID
	next       ItemID
	background string

	// Fonts measures text items. Nil uses the fixed 7x13 face.
	Fonts textlayout.Provider

	// OnChange, when set, is called after every mutation.
	OnChange func()
}

var _ Surface = (*Scene)(nil)

// NewScene returns an empty scene with a white background.
func NewScene() *Scene {
	return &Scene{items: map[ItemID]*item{}, background: "white", Fonts: textlayout.DefaultProvider()}
}

func (s *Scene) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

func (s *Scene) create(kind domain.ElementType, coords []float64, st Style, tags []string) ItemID {
	s.next++
	it := &item{
		id:     s.next,
		kind:   kind,
		coords: append([]float64(nil), coords...),
		style:  st,
		tags:   append([]string(nil), tags...),
	}
	s.items[it.id] = it
	s.order = append(s.order, it.id)
	s.changed()
	return it.id
}

func (s *Scene) CreateLine(coords []float64, st Style, tags ...string) ItemID {
	return s.create(domain.TypeLine, coords, st, tags)
}

func (s *Scene) CreateRectangle(coords []float64, st Style, tags ...string) ItemID {
	return s.create(domain.TypeRectangle, coords, st, tags)
}

func (s *Scene) CreateOval(coords []float64, st Style, tags ...string) ItemID {
	return s.create(domain.TypeOval, coords, st, tags)
}

func (s *Scene) CreateText(x, y float64, st Style, tags ...string) ItemID {
	return s.create(domain.TypeText, []float64{x, y}, st, tags)
}

// Delete removes one item. Unknown ids report false.
func (s *Scene) Delete(id ItemID) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(v ItemID) bool { return v == id })
	s.changed()
	return true
}

// DeleteTag removes every item carrying tag and returns how many went.
func (s *Scene) DeleteTag(tag string) int {
	n := 0
	s.order = slices.DeleteFunc(s.order, func(id ItemID) bool {
		if slices.Contains(s.items[id].tags, tag) {
			delete(s.items, id)
			n++
			return true
		}
		return false
	})
	if n > 0 {
		s.changed()
	}
	return n
}

// FindOverlapping returns ids of items whose bounding box touches r, in
// paint order.
func (s *Scene) FindOverlapping(r vector.Rect) []ItemID {
	var out []ItemID
	for _, id := range s.order {
		if b, ok := s.bbox(s.items[id]); ok && b.Intersects(r) {
			out = append(out, id)
		}
	}
	return out
}

// Items returns all ids in paint order.
func (s *Scene) Items() []ItemID { return slices.Clone(s.order) }

// Len reports the number of items, grid included.
func (s *Scene) Len() int { return len(s.order) }

func (s *Scene) Type(id ItemID) (domain.ElementType, bool) {
	it, ok := s.items[id]
	if !ok {
		return "", false
	}
	return it.kind, true
}

func (s *Scene) Coords(id ItemID) []float64 {
	if it, ok := s.items[id]; ok {
		return slices.Clone(it.coords)
	}
	return nil
}

func (s *Scene) Style(id ItemID) (Style, bool) {
	it, ok := s.items[id]
	if !ok {
		return Style{}, false
	}
	return it.style, true
}

func (s *Scene) SetStyle(id ItemID, st Style) bool {
	it, ok := s.items[id]
	if !ok {
		return false
	}
	it.style = st
	s.changed()
	return true
}

func (s *Scene) Tags(id ItemID) []string {
	if it, ok := s.items[id]; ok {
		return slices.Clone(it.tags)
	}
	return nil
}

func (s *Scene) HasTag(id ItemID, tag string) bool {
	it, ok := s.items[id]
	return ok && slices.Contains(it.tags, tag)
}

// Scale multiplies every item's coordinates about origin. Widths and font
// sizes stay as they are.
func (s *Scene) Scale(origin vector.Pt, sx, sy float64) {
	m := vector.ScaleAbout(origin, sx, sy)
	for _, id := range s.order {
		m.ApplyCoords(s.items[id].coords)
	}
	s.changed()
}

func (s *Scene) Background() string { return s.background }

func (s *Scene) SetBackground(color string) {
	s.background = color
	s.changed()
}

// Visit calls fn for every item in paint order.
func (s *Scene) Visit(fn func(id ItemID, kind domain.ElementType, coords []float64, st Style, tags []string)) {
	for _, id := range s.order {
		it := s.items[id]
		fn(id, it.kind, it.coords, it.style, it.tags)
	}
}

// bbox approximates the extent of an item. Text is measured with the bundled
// fonts around its center anchor.
func (s *Scene) bbox(it *item) (vector.Rect, bool) {
	if it.kind == domain.TypeText {
		if len(it.coords) < 2 {
			return vector.Rect{}, false
		}
		f := it.style.Font
		fw, fh := textlayout.Measure(s.Fonts, textlayout.Spec(f.Family, f.Size, f.Weight, f.Slant), it.style.Text)
		w, h := float64(fw), float64(fh)
		return vector.R(it.coords[0]-w/2, it.coords[1]-h/2, w, h), true
	}
	b, ok := vector.Bounds(it.coords)
	if !ok {
		return b, false
	}
	half := it.style.Width / 2
	return b.Inset(-half, -half), true
}
