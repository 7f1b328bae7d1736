/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"log/slog"
	"strings"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/undo"
	"gowhiteboard/internal/vector"
)

// Press starts a pointer gesture at (x, y).
func (b *Board) Press(x, y float64) {
	b.pressed = true
	b.last = vector.Pt{X: x, Y: y}
	b.start = b.last
	if b.tool == ToolEraser {
		b.eraseAt(b.last)
	}
}

// Drag continues the gesture. The brush lays one segment per call, the
// eraser removes what it touches and shape tools refresh their preview.
func (b *Board) Drag(x, y float64) {
	if !b.pressed {
		return
	}
	p := vector.Pt{X: x, Y: y}
	switch b.tool {
	case ToolBrush:
		coords := []float64{b.last.X, b.last.Y, p.X, p.Y}
		col := b.drawColor()
		id := b.surf.CreateLine(coords, surface.Style{
			Fill:     col,
			Width:    b.brushSize,
			CapStyle: "round",
			Smooth:   true,
		})
		b.hist.Record(undo.Action{Kind: undo.KindFreehand, ID: id, Coords: coords, Color: col, Width: b.brushSize})
		b.touch()
		b.last = p
	case ToolEraser:
		b.eraseAt(p)
		b.last = p
	case ToolRectangle, ToolCircle, ToolLine:
		b.surf.DeleteTag(surface.TagTempShape)
		b.createShape(p, surface.TagTempShape)
	}
}

// Release ends the gesture. Shape tools create their final item here and
// record it.
func (b *Board) Release(x, y float64) {
	if !b.pressed {
		return
	}
	b.pressed = false
	switch b.tool {
	case ToolRectangle, ToolCircle, ToolLine:
		b.surf.DeleteTag(surface.TagTempShape)
		p := vector.Pt{X: x, Y: y}
		id, kind := b.createShape(p)
		b.hist.Record(undo.Action{
			Kind:   kind,
			ID:     id,
			Coords: []float64{b.start.X, b.start.Y, p.X, p.Y},
			Color:  b.drawColor(),
			Width:  b.brushSize,
		})
		b.touch()
	}
}

func (b *Board) createShape(p vector.Pt, tags ...string) (surface.ItemID, undo.Kind) {
	coords := []float64{b.start.X, b.start.Y, p.X, p.Y}
	col := b.drawColor()
	switch b.tool {
	case ToolRectangle:
		return b.surf.CreateRectangle(coords, surface.Style{Outline: col, Width: b.brushSize}, tags...), undo.KindRectangle
	case ToolCircle:
		return b.surf.CreateOval(coords, surface.Style{Outline: col, Width: b.brushSize}, tags...), undo.KindCircle
	default:
		return b.surf.CreateLine(coords, surface.Style{Fill: col, Width: b.brushSize}, tags...), undo.KindLine
	}
}

// eraseAt deletes every drawn item overlapping the brush square around p,
// recording one action per item.
func (b *Board) eraseAt(p vector.Pt) {
	area := vector.Square(p, b.brushSize/2)
	for _, id := range b.surf.FindOverlapping(area) {
		if !surface.Drawn(b.surf, id) {
			continue
		}
		e, ok := surface.ElementOf(b.surf, id)
		if !ok || !b.surf.Delete(id) {
			continue
		}
		b.hist.Record(undo.Action{
			Kind:    undo.KindErase,
			ID:      id,
			Coords:  e.Coords,
			Color:   e.StrokeColor(),
			Width:   e.Width,
			Element: &e,
		})
		b.touch()
	}
}

// PlaceText puts a text label centered on (x, y) using the current color
// and font. Blank text is ignored.
func (b *Board) PlaceText(x, y float64, text string) surface.ItemID {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	col := b.drawColor()
	st := surface.Style{Fill: col, Text: text, Font: b.font}
	id := b.surf.CreateText(x, y, st)
	e, _ := surface.ElementOf(b.surf, id)
	b.hist.Record(undo.Action{Kind: undo.KindText, ID: id, Coords: []float64{x, y}, Color: col, Element: &e})
	b.touch()
	b.log.Debug("text placed", slog.Int("len", len(text)))
	return id
}

// Undo reverses the latest action on the active page. A restored erased
// item follows the current theme.
func (b *Board) Undo() bool {
	a, ok := b.hist.Undo(b.surf)
	if !ok {
		return false
	}
	if a.Kind == undo.KindErase {
		b.themeItem(a.ID)
	}
	b.touch()
	return true
}

// Redo re-applies the latest undone action. Re-created items follow the
// current theme.
func (b *Board) Redo() bool {
	a, ok := b.hist.Redo(b.surf)
	if !ok {
		return false
	}
	if a.Kind != undo.KindErase {
		b.themeItem(a.ID)
	}
	b.touch()
	return true
}

// Clear removes every drawn item from the active page and empties its
// history. Grid lines stay.
func (b *Board) Clear() {
	surface.ClearDrawing(b.surf)
	b.hist.Clear()
	b.pressed = false
	b.touch()
}

// ToggleGrid shows or hides grid lines covering a w x h area and reports the
// new state.
func (b *Board) ToggleGrid(w, h float64) bool {
	b.gridVisible = !b.gridVisible
	if w > 0 && h > 0 {
		b.gridW, b.gridH = w, h
	}
	b.drawGrid()
	return b.gridVisible
}

// ResizeGrid redraws a visible grid for a new area.
func (b *Board) ResizeGrid(w, h float64) {
	if w <= 0 || h <= 0 || (w == b.gridW && h == b.gridH) {
		return
	}
	b.gridW, b.gridH = w, h
	b.drawGrid()
}

func (b *Board) drawGrid() {
	b.surf.DeleteTag(surface.TagGrid)
	if !b.gridVisible {
		return
	}
	st := surface.Style{Fill: GridColor, Width: 1}
	for x := 0.0; x < b.gridW; x += b.gridSpacing {
		b.surf.CreateLine([]float64{x, 0, x, b.gridH}, st, surface.TagGrid)
	}
	for y := 0.0; y < b.gridH; y += b.gridSpacing {
		b.surf.CreateLine([]float64{0, y, b.gridW, y}, st, surface.TagGrid)
	}
}

// ToggleDarkMode flips the theme and reports whether dark mode is now on.
func (b *Board) ToggleDarkMode() bool {
	b.darkMode = !b.darkMode
	b.applyTheme()
	return b.darkMode
}

// applyTheme sets the theme background and swaps black and white strokes
// so drawings stay visible.
func (b *Board) applyTheme() {
	if b.darkMode {
		b.surf.SetBackground(DarkBackground)
	} else {
		b.surf.SetBackground(LightBackground)
	}
	for _, id := range surface.DrawnItems(b.surf) {
		b.themeItem(id)
	}
}

func (b *Board) themeItem(id surface.ItemID) {
	st, ok := b.surf.Style(id)
	if !ok {
		return
	}
	kind, _ := b.surf.Type(id)
	to, match := "black", isWhite
	if b.darkMode {
		to, match = "white", isBlack
	}
	changed := false
	if st.Fill != "" && match(st.Fill) {
		st.Fill = to
		changed = true
	}
	if (kind == domain.TypeRectangle || kind == domain.TypeOval) && st.Outline != "" && match(st.Outline) {
		st.Outline = to
		changed = true
	}
	if changed {
		b.surf.SetStyle(id, st)
	}
}

// Zoom scales every item about (x, y) by ZoomInFactor or ZoomOutFactor.
func (b *Board) Zoom(x, y float64, in bool) float64 {
	f := ZoomOutFactor
	if in {
		f = ZoomInFactor
	}
	b.zoom *= f
	origin := vector.Pt{X: x, Y: y}
	b.surf.Scale(origin, f, f)
	b.hist.Transform(vector.ScaleAbout(origin, f, f))
	return b.zoom
}
