/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pages

import (
	"testing"

	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/undo"
)

func newStore() (*Store, *surface.Scene, *undo.History) {
	s := surface.NewScene()
	h := undo.NewHistory(undo.Config{})
	return New(s, h), s, h
}

func draw(s *surface.Scene, h *undo.History, x float64) {
	c := []float64{x, x, x + 5, x + 5}
	id := s.CreateRectangle(c, surface.Style{Outline: "black", Width: 1})
	h.Record(undo.Action{Kind: undo.KindRectangle, ID: id, Coords: c, Color: "black", Width: 1})
}

func TestAddPageInsertsAfterCurrent(t *testing.T) {
	st, s, h := newStore()
	draw(s, h, 0)
	st.AddPage()
	if st.Len() != 2 || st.Index() != 1 {
		t.Fatalf("len=%d index=%d", st.Len(), st.Index())
	}
	if s.Len() != 0 || h.CanUndo() {
		t.Fatalf("new page must start blank with empty history")
	}
	draw(s, h, 10)
	st.PrevPage()
	st.AddPage()
	if st.Index() != 1 || st.Len() != 3 {
		t.Fatalf("insert after first: len=%d index=%d", st.Len(), st.Index())
	}
	if p := st.Pages()[2]; len(p.Elements) != 1 || p.Elements[0].Coords[0] != 10 {
		t.Fatalf("page with x=10 should have shifted to index 2: %+v", p)
	}
	if st.Label() != "Page 2/3" {
		t.Fatalf("label %q", st.Label())
	}
}

func TestPagesKeepOwnContentAndHistory(t *testing.T) {
	st, s, h := newStore()
	draw(s, h, 0)
	draw(s, h, 1)
	st.AddPage()
	draw(s, h, 50)

	st.PrevPage()
	if s.Len() != 2 {
		t.Fatalf("page 1 should show 2 items, got %d", s.Len())
	}
	if u, _ := h.Len(); u != 2 {
		t.Fatalf("page 1 history %d", u)
	}
	h.Undo(s)

	st.NextPage()
	if s.Len() != 1 {
		t.Fatalf("page 2 should show 1 item, got %d", s.Len())
	}
	if u, r := h.Len(); u != 1 || r != 0 {
		t.Fatalf("page 2 history %d/%d", u, r)
	}

	st.PrevPage()
	if s.Len() != 1 {
		t.Fatalf("page 1 undo not persisted: %d", s.Len())
	}
	if _, r := h.Len(); r != 1 {
		t.Fatalf("page 1 redo lost: %d", r)
	}
	// redo after switching pages re-creates on the active surface
	if _, ok := h.Redo(s); !ok || s.Len() != 2 {
		t.Fatalf("redo after page switch failed")
	}
}

func TestPrevPageDropsEmptyPage(t *testing.T) {
	st, s, h := newStore()
	draw(s, h, 0)
	st.AddPage()
	st.PrevPage()
	if st.Len() != 1 || st.Index() != 0 {
		t.Fatalf("empty page kept: len=%d index=%d", st.Len(), st.Index())
	}
	if s.Len() != 1 {
		t.Fatalf("page 1 not reloaded")
	}
}

func TestFirstPageNeverDeleted(t *testing.T) {
	st, _, _ := newStore()
	if st.PrevPage() {
		t.Fatalf("PrevPage on first page must report false")
	}
	if st.Len() != 1 {
		t.Fatalf("first page removed")
	}
	if st.NextPage() {
		t.Fatalf("NextPage on last page must report false")
	}
}

func TestGridSurvivesPageSwitch(t *testing.T) {
	st, s, h := newStore()
	s.CreateLine([]float64{0, 0, 0, 100}, surface.Style{Fill: "gray90"}, surface.TagGrid)
	draw(s, h, 0)
	st.AddPage()
	draw(s, h, 20)
	st.PrevPage()
	grid := 0
	for _, id := range s.Items() {
		if s.HasTag(id, surface.TagGrid) {
			grid++
		}
	}
	if grid != 1 {
		t.Fatalf("grid lines = %d", grid)
	}
	if p := st.Pages(); len(p[0].Elements) != 1 {
		t.Fatalf("grid leaked into page data: %+v", p[0].Elements)
	}
}

func TestReplaceClampsIndex(t *testing.T) {
	st, s, h := newStore()
	draw(s, h, 0)
	pgs := st.Pages()
	pgs = append(pgs, pgs[0])
	st.Replace(pgs, 9)
	if st.Index() != 1 || st.Len() != 2 {
		t.Fatalf("index=%d len=%d", st.Index(), st.Len())
	}
	if h.CanUndo() {
		t.Fatalf("history should reset on replace")
	}
	if s.Len() != 1 {
		t.Fatalf("active page not drawn")
	}
	st.Replace(nil, -2)
	if st.Len() != 1 || st.Index() != 0 || s.Len() != 0 {
		t.Fatalf("empty replace: len=%d index=%d items=%d", st.Len(), st.Index(), s.Len())
	}
}
