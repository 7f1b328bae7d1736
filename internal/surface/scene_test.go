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
	"testing"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

func TestSceneCreateAndIntrospect(t *testing.T) {
	s := NewScene()
	a := s.CreateLine([]float64{0, 0, 10, 10}, Style{Fill: "red", Width: 2})
	b := s.CreateRectangle([]float64{20, 20, 40, 40}, Style{Outline: "blue", Width: 1}, "x")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("bad ids %d %d", a, b)
	}
	if k, ok := s.Type(b); !ok || k != domain.TypeRectangle {
		t.Fatalf("type: %v %v", k, ok)
	}
	if got := s.Coords(a); !slices.Equal(got, []float64{0, 0, 10, 10}) {
		t.Fatalf("coords: %v", got)
	}
	if !s.HasTag(b, "x") || s.HasTag(a, "x") {
		t.Fatalf("tags wrong")
	}
	if !slices.Equal(s.Items(), []ItemID{a, b}) {
		t.Fatalf("order: %v", s.Items())
	}
}

func TestSceneCoordsAreCopied(t *testing.T) {
	s := NewScene()
	in := []float64{0, 0, 5, 5}
	id := s.CreateLine(in, Style{})
	in[0] = 99
	out := s.Coords(id)
	out[1] = 42
	if got := s.Coords(id); got[0] != 0 || got[1] != 0 {
		t.Fatalf("scene shares coordinate slices: %v", got)
	}
}

func TestSceneDeleteAndDeleteTag(t *testing.T) {
	s := NewScene()
	g1 := s.CreateLine([]float64{0, 0, 0, 100}, Style{}, TagGrid)
	g2 := s.CreateLine([]float64{0, 0, 100, 0}, Style{}, TagGrid)
	d := s.CreateOval([]float64{1, 1, 5, 5}, Style{})
	if !s.Delete(d) || s.Delete(d) {
		t.Fatalf("delete should succeed once")
	}
	if n := s.DeleteTag(TagGrid); n != 2 {
		t.Fatalf("DeleteTag removed %d", n)
	}
	if _, ok := s.Type(g1); ok {
		t.Fatalf("g1 still present")
	}
	if _, ok := s.Type(g2); ok {
		t.Fatalf("g2 still present")
	}
	if s.Len() != 0 {
		t.Fatalf("scene not empty: %d", s.Len())
	}
}

func TestSceneFindOverlapping(t *testing.T) {
	s := NewScene()
	near := s.CreateLine([]float64{10, 10, 20, 20}, Style{Width: 4})
	far := s.CreateRectangle([]float64{100, 100, 120, 120}, Style{Width: 1})
	got := s.FindOverlapping(vector.Square(vector.Pt{X: 7, Y: 7}, 1.5))
	if !slices.Equal(got, []ItemID{near}) {
		t.Fatalf("overlap near: %v", got)
	}
	got = s.FindOverlapping(vector.FromCorners(0, 0, 200, 200))
	if !slices.Equal(got, []ItemID{near, far}) {
		t.Fatalf("overlap all: %v", got)
	}
}

func TestSceneScaleAboutPoint(t *testing.T) {
	s := NewScene()
	id := s.CreateRectangle([]float64{10, 10, 20, 20}, Style{})
	s.Scale(vector.Pt{X: 10, Y: 10}, 2, 2)
	if got := s.Coords(id); !slices.Equal(got, []float64{10, 10, 30, 30}) {
		t.Fatalf("scaled coords: %v", got)
	}
}

func TestOnChangeFires(t *testing.T) {
	s := NewScene()
	n := 0
	s.OnChange = func() { n++ }
	id := s.CreateLine([]float64{0, 0, 1, 1}, Style{})
	s.SetBackground("#2d2d2d")
	s.Delete(id)
	if n != 3 {
		t.Fatalf("OnChange fired %d times", n)
	}
}

func TestElementsRoundTripThroughSurface(t *testing.T) {
	s := NewScene()
	els := []domain.Element{
		{Type: domain.TypeLine, Coords: []float64{0, 0, 3, 4}, Fill: "black", Width: 5, CapStyle: "round", Smooth: true},
		{Type: domain.TypeRectangle, Coords: []float64{1, 1, 9, 9}, Outline: "red", Width: 2},
		{Type: domain.TypeOval, Coords: []float64{2, 2, 8, 8}, Outline: "#00ff00", Width: 3},
		{Type: domain.TypeText, Coords: []float64{50, 50}, Fill: "black", Text: "hello", FontFamily: "Helvetica", FontSize: 14, FontWeight: "bold", FontSlant: "roman"},
	}
	s.CreateLine([]float64{0, 0, 0, 600}, Style{Fill: "gray90"}, TagGrid)
	Restore(s, els)
	got := Elements(s)
	if len(got) != len(els) {
		t.Fatalf("want %d elements, got %d", len(els), len(got))
	}
	for i := range els {
		w, g := els[i], got[i]
		if w.Type != g.Type || !slices.Equal(w.Coords, g.Coords) || w.Fill != g.Fill || w.Outline != g.Outline ||
			w.Width != g.Width || w.Text != g.Text || w.FontSize != g.FontSize || w.Smooth != g.Smooth {
			t.Fatalf("element %d mismatch:\nwant %+v\ngot  %+v", i, w, g)
		}
	}
}

func TestClearDrawingKeepsGrid(t *testing.T) {
	s := NewScene()
	g := s.CreateLine([]float64{0, 0, 0, 10}, Style{}, TagGrid)
	s.CreateLine([]float64{1, 1, 2, 2}, Style{})
	s.CreateText(5, 5, Style{Text: "t"})
	if n := ClearDrawing(s); n != 2 {
		t.Fatalf("cleared %d", n)
	}
	if !slices.Equal(s.Items(), []ItemID{g}) {
		t.Fatalf("grid removed: %v", s.Items())
	}
}

func TestCreateRejectsBadGeometry(t *testing.T) {
	s := NewScene()
	if id := Create(s, domain.Element{Type: domain.TypeRectangle, Coords: []float64{1, 2}}); id != 0 {
		t.Fatalf("want 0, got %d", id)
	}
	if s.Len() != 0 {
		t.Fatalf("item created for bad element")
	}
}

func TestSceneTextExtentUsesFontMetrics(t *testing.T) {
	s := NewScene()
	short := s.CreateText(100, 100, Style{Text: "hi", Font: Font{Family: "Helvetica", Size: 14}})
	long := s.CreateText(100, 200, Style{Text: "a much longer label", Font: Font{Family: "Helvetica", Size: 14}})

	// 40 units right of the anchor is outside "hi" but inside the long label.
	if got := s.FindOverlapping(vector.Square(vector.Pt{X: 140, Y: 100}, 1)); len(got) != 0 {
		t.Fatalf("short label too wide: %v", got)
	}
	if got := s.FindOverlapping(vector.Square(vector.Pt{X: 140, Y: 200}, 1)); !slices.Equal(got, []ItemID{long}) {
		t.Fatalf("long label not hit: %v", got)
	}
	if got := s.FindOverlapping(vector.Square(vector.Pt{X: 100, Y: 100}, 1)); !slices.Equal(got, []ItemID{short}) {
		t.Fatalf("anchor not hit: %v", got)
	}
}
