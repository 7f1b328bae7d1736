/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pages keeps the ordered pages of an open board. The active page
// lives on the drawing surface; every other page is held as inert data with
// its parked undo history.
package pages

import (
	"fmt"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/undo"
)

// Entry is one stored page and its parked history. ids records the surface
// ids the elements had when captured so parked actions can be remapped.
type Entry struct {
	Page    domain.Page
	History undo.Stacks
	ids     []surface.ItemID
}

// Store owns the page list and the active index.
type Store struct {
	surf    surface.Surface
	hist    *undo.History
	entries []Entry
	index   int
}

// New returns a store with one blank page bound to s and h. The surface is
// not touched.
func New(s surface.Surface, h *undo.History) *Store {
	return &Store{
		surf:    s,
		hist:    h,
		entries: []Entry{{Page: domain.BlankPage(s.Background())}},
	}
}

func (st *Store) Index() int { return st.index }
func (st *Store) Len() int   { return len(st.entries) }

// Label renders the 1-based position, e.g. "Page 2/3".
func (st *Store) Label() string {
	return fmt.Sprintf("Page %d/%d", st.index+1, len(st.entries))
}

// Capture copies the surface content and the live history into the active
// entry.
func (st *Store) Capture() {
	e := &st.entries[st.index]
	e.Page.Elements, e.ids = surface.Snapshot(st.surf)
	e.Page.BackgroundColor = st.surf.Background()
	e.History = st.hist.Snapshot()
}

// Load clears the surface and draws the active entry onto it, restoring the
// page's history.
func (st *Store) Load() {
	e := st.entries[st.index]
	ids := surface.Restore(st.surf, e.Page.Elements)
	if e.Page.BackgroundColor != "" {
		st.surf.SetBackground(e.Page.BackgroundColor)
	}
	remap := make(map[surface.ItemID]surface.ItemID, len(ids))
	for i, old := range e.ids {
		if i < len(ids) && ids[i] != 0 {
			remap[old] = ids[i]
		}
	}
	st.hist.Import(e.History.Remap(remap))
}

// AddPage captures the active page, inserts a blank one right after it and
// makes it active with an empty history.
func (st *Store) AddPage() {
	st.Capture()
	blank := Entry{Page: domain.BlankPage(st.surf.Background())}
	st.index++
	st.entries = append(st.entries[:st.index], append([]Entry{blank}, st.entries[st.index:]...)...)
	surface.ClearDrawing(st.surf)
	st.hist.Clear()
}

// NextPage moves forward one page. It reports false on the last page.
func (st *Store) NextPage() bool {
	if st.index >= len(st.entries)-1 {
		return false
	}
	st.Capture()
	st.index++
	st.Load()
	return true
}

// PrevPage moves back one page. A page left with no drawn content is
// removed instead of being captured. The first page is never removed.
// It reports false on the first page.
func (st *Store) PrevPage() bool {
	if st.index == 0 {
		return false
	}
	if len(surface.Elements(st.surf)) == 0 {
		st.entries = append(st.entries[:st.index], st.entries[st.index+1:]...)
	} else {
		st.Capture()
	}
	st.index--
	st.Load()
	return true
}

// Pages captures the active page and returns a copy of every page.
func (st *Store) Pages() []domain.Page {
	st.Capture()
	out := make([]domain.Page, len(st.entries))
	for i, e := range st.entries {
		p := e.Page
		p.Elements = make([]domain.Element, len(e.Page.Elements))
		for j, el := range e.Page.Elements {
			p.Elements[j] = el.Clone()
		}
		out[i] = p
	}
	return out
}

// Replace swaps in a loaded page list, clamps index into range, and loads
// the active page with empty histories everywhere.
func (st *Store) Replace(pgs []domain.Page, index int) {
	if len(pgs) == 0 {
		pgs = []domain.Page{domain.BlankPage(st.surf.Background())}
	}
	st.entries = make([]Entry, len(pgs))
	for i, p := range pgs {
		st.entries[i] = Entry{Page: p}
	}
	st.index = max(0, min(index, len(pgs)-1))
	st.Load()
}
