/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"slices"
	"time"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/vector"
)

// DefaultDepth is the capacity of each stack when none is configured.
const DefaultDepth = 50

// Kind names the user operation an Action reverses.
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindText      Kind = "text"
	KindErase     Kind = "erase"
)

// Action is one reversible drawing step. ID is the item's current id on the
// surface and is rewritten whenever undo or redo re-creates the item.
// Element holds the full item for erase and text so it can be rebuilt.
type Action struct {
	Kind    Kind
	ID      surface.ItemID
	Coords  []float64
	Color   string
	Width   float64
	Element *domain.Element
	TS      time.Time
}

// element rebuilds the persisted form the action draws.
func (a Action) element() domain.Element {
	if a.Element != nil {
		return a.Element.Clone()
	}
	e := domain.Element{Coords: slices.Clone(a.Coords), Width: a.Width}
	switch a.Kind {
	case KindFreehand:
		e.Type, e.Fill, e.CapStyle, e.Smooth = domain.TypeLine, a.Color, "round", true
	case KindLine:
		e.Type, e.Fill = domain.TypeLine, a.Color
	case KindRectangle:
		e.Type, e.Outline = domain.TypeRectangle, a.Color
	case KindCircle:
		e.Type, e.Outline = domain.TypeOval, a.Color
	}
	return e
}

// Config controls stack depth.
type Config struct {
	// MaxDepth caps each of the undo and redo stacks; the oldest entry is
	// dropped when exceeded. Values <= 0 mean DefaultDepth.
	MaxDepth int
}

// Stacks is the detached content of a History, used to park a page's
// history while another page is active.
type Stacks struct {
	Undo []Action
	Redo []Action
}

// Remap rewrites action ids after the items they point at were re-created
// under new ids. Ids missing from m are left alone.
func (st Stacks) Remap(m map[surface.ItemID]surface.ItemID) Stacks {
	out := Stacks{Undo: slices.Clone(st.Undo), Redo: slices.Clone(st.Redo)}
	for _, stack := range [][]Action{out.Undo, out.Redo} {
		for i := range stack {
			if id, ok := m[stack[i].ID]; ok {
				stack[i].ID = id
			}
		}
	}
	return out
}

// History holds the undo and redo stacks of the active page.
// It is not safe for concurrent use; all calls come from the UI goroutine.
type History struct {
	cfg  Config
	undo []Action
	redo []Action
}

func NewHistory(cfg Config) *History {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultDepth
	}
	return &History{cfg: cfg}
}

// Depth returns the configured capacity.
func (h *History) Depth() int { return h.cfg.MaxDepth }

// Record pushes a completed action and invalidates redo.
func (h *History) Record(a Action) {
	if a.TS.IsZero() {
		a.TS = time.Now()
	}
	h.undo = h.push(h.undo, a)
	h.redo = nil
}

// Undo reverses the most recent action on s and moves it to the redo stack.
// It reports false when there is nothing to undo.
func (h *History) Undo(s surface.Surface) (Action, bool) {
	if len(h.undo) == 0 {
		return Action{}, false
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	if a.Kind == KindErase {
		old := a.ID
		a.ID = surface.Create(s, a.element())
		h.rename(old, a.ID)
	} else {
		a = capture(s, a)
		s.Delete(a.ID)
	}
	h.redo = h.push(h.redo, a)
	return a, true
}

// Redo re-applies the most recently undone action on s.
func (h *History) Redo(s surface.Surface) (Action, bool) {
	if len(h.redo) == 0 {
		return Action{}, false
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	if a.Kind == KindErase {
		a = capture(s, a)
		s.Delete(a.ID)
	} else {
		old := a.ID
		a.ID = surface.Create(s, a.element())
		h.rename(old, a.ID)
	}
	h.undo = h.push(h.undo, a)
	return a, true
}

// capture refreshes the stored geometry and style of a from the live item
// so that re-creating it later reproduces what was removed.
func capture(s surface.Surface, a Action) Action {
	e, ok := surface.ElementOf(s, a.ID)
	if !ok {
		return a
	}
	a.Element = &e
	a.Coords = slices.Clone(e.Coords)
	a.Color = e.StrokeColor()
	a.Width = e.Width
	return a
}

// rename points every parked action that referenced old at new.
func (h *History) rename(old, new surface.ItemID) {
	if old == new {
		return
	}
	for _, stack := range [][]Action{h.undo, h.redo} {
		for i := range stack {
			if stack[i].ID == old {
				stack[i].ID = new
			}
		}
	}
}

// Transform applies m to the geometry parked in both stacks so that items
// re-created later line up with a surface that was transformed by m.
func (h *History) Transform(m vector.Affine2D) {
	for _, stack := range [][]Action{h.undo, h.redo} {
		for i := range stack {
			a := &stack[i]
			a.Coords = slices.Clone(a.Coords)
			m.ApplyCoords(a.Coords)
			if a.Element != nil {
				e := a.Element.Clone()
				m.ApplyCoords(e.Coords)
				a.Element = &e
			}
		}
	}
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Snapshot returns a copy of the stacks without detaching them.
func (h *History) Snapshot() Stacks {
	return Stacks{Undo: slices.Clone(h.undo), Redo: slices.Clone(h.redo)}
}

// Import replaces the stacks, trimming to the configured depth.
func (h *History) Import(st Stacks) {
	h.undo = h.trim(slices.Clone(st.Undo))
	h.redo = h.trim(slices.Clone(st.Redo))
}

func (h *History) push(stack []Action, a Action) []Action {
	return h.trim(append(stack, a))
}

func (h *History) trim(stack []Action) []Action {
	if drop := len(stack) - h.cfg.MaxDepth; drop > 0 {
		return append([]Action{}, stack[drop:]...)
	}
	return stack
}
