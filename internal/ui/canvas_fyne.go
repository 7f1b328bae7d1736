//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gowhiteboard/internal/board"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/surface"
)

// BoardCanvas shows the active page of a Board and feeds pointer input
// back into it. The board's surface holds all drawing state; the widget only
// rasterizes it.
type BoardCanvas struct {
	widget.BaseWidget

	board  *board.Board
	raster *canvas.Raster
	log    *slog.Logger

	last fyne.Position

	// OnChanged runs after any input that may have modified the board.
	OnChanged func()
	// OnTextRequest asks the host for label text at a board position.
	OnTextRequest func(x, y float64)
	// Modifiers reports the keyboard modifiers held right now. Nil uses the
	// desktop driver.
	Modifiers func() fyne.KeyModifier
}

var (
	_ desktop.Mouseable = (*BoardCanvas)(nil)
	_ fyne.Draggable    = (*BoardCanvas)(nil)
	_ fyne.Scrollable   = (*BoardCanvas)(nil)
)

func NewBoardCanvas(b *board.Board) *BoardCanvas {
	c := &BoardCanvas{board: b, log: applog.WithComponent("ui.canvas")}
	c.raster = canvas.NewRaster(c.draw)
	c.ExtendBaseWidget(c)
	return c
}

// Board returns the board shown by the widget.
func (c *BoardCanvas) Board() *board.Board { return c.board }

func (c *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &boardCanvasRenderer{bc: c, objects: []fyne.CanvasObject{c.raster}}
}

// PreferredSize matches the default grid area.
func (c *BoardCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

// Resize keeps the grid covering the visible area.
func (c *BoardCanvas) Resize(s fyne.Size) {
	c.BaseWidget.Resize(s)
	c.board.ResizeGrid(float64(s.Width), float64(s.Height))
}

// draw is the raster generator; w and h are in device pixels.
func (c *BoardCanvas) draw(w, h int) image.Image {
	scale := 1.0
	if sz := c.Size(); sz.Width > 0 {
		scale = float64(w) / float64(sz.Width)
	}
	img, err := paintSurface(c.board.Surface(), w, h, scale)
	if err != nil {
		c.log.Error("render failed", slog.Any("err", err))
		return image.NewUniform(color.White)
	}
	return img
}

// paintSurface rasterizes every item on s, grid and previews included, in
// paint order.
func paintSurface(s surface.Surface, w, h int, scale float64) (image.Image, error) {
	p := domain.Page{BackgroundColor: s.Background()}
	for _, id := range s.Items() {
		if e, ok := surface.ElementOf(s, id); ok {
			p.Elements = append(p.Elements, e)
		}
	}
	return export.RenderPage(p, export.RenderOptions{Width: w, Height: h, Scale: scale})
}

func (c *BoardCanvas) changed() {
	c.raster.Refresh()
	if c.OnChanged != nil {
		c.OnChanged()
	}
}

func (c *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	x, y := float64(e.Position.X), float64(e.Position.Y)
	c.last = e.Position
	if c.board.Tool() == board.ToolText {
		if c.OnTextRequest != nil {
			c.OnTextRequest(x, y)
		}
		return
	}
	c.board.Press(x, y)
	c.changed()
}

func (c *BoardCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.board.Release(float64(e.Position.X), float64(e.Position.Y))
	c.changed()
}

func (c *BoardCanvas) Dragged(e *fyne.DragEvent) {
	c.last = e.Position
	c.board.Drag(float64(e.Position.X), float64(e.Position.Y))
	c.changed()
}

// DragEnd finishes the gesture at the last dragged position. MouseUp may
// follow; Release ignores the second call.
func (c *BoardCanvas) DragEnd() {
	c.board.Release(float64(c.last.X), float64(c.last.Y))
	c.changed()
}

// Scrolled zooms about the pointer while Ctrl is held: wheel up zooms in.
// A plain wheel does nothing; the board has no scrollable viewport.
func (c *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	if e.Scrolled.DY == 0 || c.modifiers()&fyne.KeyModifierControl == 0 {
		return
	}
	z := c.board.Zoom(float64(e.Position.X), float64(e.Position.Y), e.Scrolled.DY > 0)
	c.log.Debug("zoom", slog.Float64("level", z))
	c.changed()
}

func (c *BoardCanvas) modifiers() fyne.KeyModifier {
	if c.Modifiers != nil {
		return c.Modifiers()
	}
	if a := fyne.CurrentApp(); a != nil {
		if d, ok := a.Driver().(desktop.Driver); ok {
			return d.CurrentKeyModifiers()
		}
	}
	return 0
}

type boardCanvasRenderer struct {
	bc      *BoardCanvas
	objects []fyne.CanvasObject
}

func (r *boardCanvasRenderer) Destroy()                     {}
func (r *boardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }
func (r *boardCanvasRenderer) Refresh()                     { r.bc.raster.Refresh() }

func (r *boardCanvasRenderer) Layout(size fyne.Size) {
	r.bc.raster.Move(fyne.NewPos(0, 0))
	r.bc.raster.Resize(size)
}

// cropCapture cuts the widget region out of a full window capture. pos and
// size are in canvas units, scale converts them to capture pixels.
func cropCapture(img image.Image, pos fyne.Position, size fyne.Size, scale float32) image.Image {
	r := image.Rect(
		int(pos.X*scale), int(pos.Y*scale),
		int((pos.X+size.Width)*scale), int((pos.Y+size.Height)*scale),
	).Intersect(img.Bounds())
	if r.Empty() {
		return img
	}
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
	return out
}
