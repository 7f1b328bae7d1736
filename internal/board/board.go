/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board holds the state of one open whiteboard and every command the
// toolbar, pointer and keyboard can issue against it. It drives a
// surface.Surface and never touches a GUI toolkit, so the full behaviour runs
// headless.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gowhiteboard/internal/config"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/pages"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/undo"
	"gowhiteboard/internal/vector"
)

// Tool selects what pointer input does.
type Tool string

const (
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolLine      Tool = "line"
	ToolText      Tool = "text"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolBrush, ToolEraser, ToolRectangle, ToolCircle, ToolLine, ToolText}

const (
	MinBrushSize = 0.5
	MaxBrushSize = 100

	ZoomInFactor  = 1.1
	ZoomOutFactor = 0.9

	LightBackground = "white"
	DarkBackground  = "#2d2d2d"
	GridColor       = "gray90"

	defaultGridW = 800
	defaultGridH = 600
)

var ErrUnknownTool = errors.New("unknown tool")

// Board is the explicit application state for one open document.
// It is not safe for concurrent use; the GUI calls it from its event loop.
type Board struct {
	surf  surface.Surface
	hist  *undo.History
	pages *pages.Store
	log   *slog.Logger

	tool        Tool
	color       string
	brushSize   float64
	font        surface.Font
	gridSpacing float64

	darkMode     bool
	gridVisible  bool
	gridW, gridH float64
	zoom         float64

	pressed bool
	last    vector.Pt
	start   vector.Pt

	path   string
	dirty  bool
	recent RecentIndex
}

// New creates a board with one blank page drawn on s. Drawing defaults,
// history depth and theme come from cfg.
func New(s surface.Surface, cfg config.AppConfig) *Board {
	d := cfg.Drawing
	depth := d.UndoDepth
	if depth <= 0 || depth > config.MaxUndoDepth {
		depth = config.MaxUndoDepth
	}
	h := undo.NewHistory(undo.Config{MaxDepth: depth})
	b := &Board{
		surf:        s,
		hist:        h,
		log:         applog.WithComponent("board"),
		tool:        ToolBrush,
		color:       "black",
		brushSize:   5,
		font:        surface.Font{Family: d.FontFamily, Size: d.FontSize, Weight: "normal", Slant: "roman"},
		gridSpacing: d.GridSpacing,
		gridW:       defaultGridW,
		gridH:       defaultGridH,
		zoom:        1,
	}
	if b.font.Family == "" {
		b.font.Family = "Helvetica"
	}
	if b.font.Size <= 0 {
		b.font.Size = 14
	}
	if b.gridSpacing <= 0 {
		b.gridSpacing = 20
	}
	if d.BrushColor != "" {
		_ = b.SetColor(d.BrushColor)
	}
	if d.BrushSize > 0 {
		b.SetBrushSize(d.BrushSize)
	}
	s.SetBackground(LightBackground)
	b.pages = pages.New(s, h)
	if strings.EqualFold(cfg.General.Theme, "dark") {
		b.ToggleDarkMode()
	}
	if cfg.General.ShowGrid {
		b.ToggleGrid(b.gridW, b.gridH)
	}
	b.dirty = false
	b.log.Debug("board ready", slog.Int("undo_depth", h.Depth()), slog.Float64("grid_spacing", b.gridSpacing))
	return b
}

// Surface returns the drawing surface the board drives.
func (b *Board) Surface() surface.Surface { return b.surf }

// History exposes the active page's history.
func (b *Board) History() *undo.History { return b.hist }

func (b *Board) Tool() Tool           { return b.tool }
func (b *Board) Color() string        { return b.color }
func (b *Board) BrushSize() float64   { return b.brushSize }
func (b *Board) DarkMode() bool       { return b.darkMode }
func (b *Board) GridVisible() bool    { return b.gridVisible }
func (b *Board) ZoomLevel() float64   { return b.zoom }
func (b *Board) Font() surface.Font   { return b.font }
func (b *Board) Path() string         { return b.path }
func (b *Board) Dirty() bool          { return b.dirty }
func (b *Board) CanUndo() bool        { return b.hist.CanUndo() }
func (b *Board) CanRedo() bool        { return b.hist.CanRedo() }
func (b *Board) PageLabel() string    { return b.pages.Label() }
func (b *Board) PageIndex() int       { return b.pages.Index() }
func (b *Board) PageCount() int       { return b.pages.Len() }
func (b *Board) Background() string   { return b.surf.Background() }

// SetFont sets the face used by the text tool.
func (b *Board) SetFont(f surface.Font) { b.font = f }

// SetTool switches the pointer tool. Any shape preview in progress is dropped.
func (b *Board) SetTool(t Tool) error {
	for _, known := range Tools {
		if known == t {
			b.surf.DeleteTag(surface.TagTempShape)
			b.pressed = false
			b.tool = t
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTool, t)
}

// SetColor sets the brush color from a name or hex string.
func (b *Board) SetColor(c string) error {
	c = strings.TrimSpace(c)
	parsed, err := vector.ParseColor(c)
	if err != nil {
		return err
	}
	if parsed.IsTransparent() {
		return fmt.Errorf("color %q is not drawable", c)
	}
	b.color = c
	return nil
}

// SetBrushSize clamps v to [MinBrushSize, MaxBrushSize] and returns the
// value applied.
func (b *Board) SetBrushSize(v float64) float64 {
	b.brushSize = min(max(v, MinBrushSize), MaxBrushSize)
	return b.brushSize
}

// drawColor maps black to white while dark mode is on.
func (b *Board) drawColor() string {
	if b.darkMode && isBlack(b.color) {
		return "white"
	}
	return b.color
}

func isBlack(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "black", "#000000", "#000":
		return true
	}
	return false
}

func isWhite(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "white", "#ffffff", "#fff":
		return true
	}
	return false
}

func (b *Board) touch() { b.dirty = true }
