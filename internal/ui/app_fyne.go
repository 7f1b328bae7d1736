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
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gowhiteboard/internal/board"
	"gowhiteboard/internal/bundle"
	"gowhiteboard/internal/config"
	"gowhiteboard/internal/crash"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/surface"
	"gowhiteboard/internal/vector"
	"gowhiteboard/internal/version"
)

const appTitle = "Go Whiteboard"

// brushSizes are the quick picks offered next to the color button.
var brushSizes = []string{"1", "2", "3", "5", "8", "10", "15", "20"}

// Run starts the Fyne desktop whiteboard. Pass an optional .wb file to open
// immediately.
func Run(path string) error {
	cfg, cerr := config.Load()
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("ui")
	if cerr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cerr))
	}
	l.Info("starting UI", slog.String("version", version.String()))

	b := board.New(surface.NewScene(), cfg)
	defer crash.Recover(b)

	var rec *storage.Recent
	if dir, err := config.Dir(); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rec, err = storage.OpenRecent(ctx, dir, cfg.General.RecentLimit)
		cancel()
		if err != nil {
			l.Warn("recent index unavailable", slog.Any("err", err))
			rec = nil
		} else {
			l.Debug("recent index open", slog.String("db", rec.Path()))
			b.SetRecent(rec)
		}
	}

	fyneApp := app.NewWithID("io.gowhiteboard")
	w := fyneApp.NewWindow(appTitle)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 760)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	bc := NewBoardCanvas(b)
	status := widget.NewLabel("Ready")
	pageLabel := widget.NewLabel(b.PageLabel())

	var undoBtn, redoBtn, themeBtn, gridBtn *widget.Button
	refresh := func() {
		pageLabel.SetText(b.PageLabel())
		if b.CanUndo() {
			undoBtn.Enable()
		} else {
			undoBtn.Disable()
		}
		if b.CanRedo() {
			redoBtn.Enable()
		} else {
			redoBtn.Disable()
		}
		name := "Untitled"
		if b.Path() != "" {
			name = filepath.Base(b.Path())
		}
		if b.Dirty() {
			name += " *"
		}
		w.SetTitle(fmt.Sprintf("%s - %s", appTitle, name))
		if themeBtn != nil {
			themeBtn.SetText(themeButtonLabel(b.DarkMode()))
			gridBtn.SetText(gridButtonLabel(b.GridVisible()))
		}
		bc.raster.Refresh()
	}
	bc.OnChanged = refresh

	bc.OnTextRequest = func(x, y float64) {
		entry := widget.NewEntry()
		entry.SetPlaceHolder("Label text")
		form := dialog.NewForm("Add Text", "Place", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Text", entry),
		}, func(ok bool) {
			if !ok {
				return
			}
			if id := b.PlaceText(x, y, entry.Text); id != 0 {
				status.SetText("Text placed.")
			}
			refresh()
		}, w)
		form.Show()
		w.Canvas().Focus(entry)
	}

	undo := func() {
		if b.Undo() {
			status.SetText("Undid last action")
		}
		refresh()
	}
	redo := func() {
		if b.Redo() {
			status.SetText("Redid last action")
		}
		refresh()
	}

	var recentMenu *fyne.Menu
	var mainMenu *fyne.MainMenu
	var reloadRecent func()

	openPath := func(p string) {
		if err := b.Load(p); err != nil {
			l.Error("open failed", slog.String("path", p), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Loaded " + p)
		reloadRecent()
		refresh()
	}
	reloadRecent = func() { refreshRecent(rec, recentMenu, mainMenu, openPath) }

	saveTo := func(p string) {
		if err := b.Save(p); err != nil {
			l.Error("save failed", slog.String("path", p), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved " + b.Path())
		reloadRecent()
		refresh()
	}
	saveAs := func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			p := uc.URI().Path()
			_ = uc.Close()
			// The dialog creates the chosen file; drop it if the extension gets added.
			if target := storage.EnsureExt(p); target != p {
				if fi, serr := os.Stat(p); serr == nil && fi.Size() == 0 {
					_ = os.Remove(p)
				}
			}
			saveTo(p)
		}, w)
		save.SetFileName("whiteboard" + storage.Ext)
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{storage.Ext}))
		save.Show()
	}
	saveCurrent := func() {
		if b.Path() == "" {
			saveAs()
			return
		}
		saveTo(b.Path())
	}
	openDialog := func() {
		fd := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				l.Info("open canceled")
				return
			}
			p := uc.URI().Path()
			_ = uc.Close()
			openPath(p)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{storage.Ext, storage.LegacyExt}))
		fd.Show()
	}
	exportPNG := func() {
		// Capture before the dialog covers the board.
		shot := w.Canvas().Capture()
		pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(bc)
		img := cropCapture(shot, pos, bc.Size(), w.Canvas().Scale())
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			p := uc.URI().Path()
			_ = uc.Close()
			if err := b.ExportPNG(p, img); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + p)
		}, w)
		save.SetFileName("whiteboard.png")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".png"}))
		save.Show()
	}
	exportFile := func(ext, def string, fn func(string) error) func() {
		return func() {
			save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if uc == nil {
					return
				}
				p := uc.URI().Path()
				_ = uc.Close()
				if err := fn(p); err != nil {
					dialog.ShowError(err, w)
					return
				}
				dialog.ShowInformation("Export", "Exported to "+p, w)
			}, w)
			save.SetFileName(def)
			save.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
			save.Show()
		}
	}
	newBoard := func() {
		reset := func() {
			b.Reset()
			status.SetText("New board")
			refresh()
		}
		if !b.Dirty() {
			reset()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Discard changes to the current board?", func(ok bool) {
			if ok {
				reset()
			}
		}, w)
	}

	// Toolbar
	toolNames := make([]string, len(board.Tools))
	for i, t := range board.Tools {
		toolNames[i] = toolLabel(t)
	}
	toolSelect := widget.NewSelect(toolNames, func(s string) {
		t := toolFromLabel(s)
		if err := b.SetTool(t); err != nil {
			dialog.ShowError(err, w)
			return
		}
		l.Info("tool selected", slog.String("tool", string(t)))
	})
	toolSelect.SetSelected(toolLabel(b.Tool()))

	clearBtn := widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), func() {
		b.Clear()
		status.SetText("Canvas cleared")
		refresh()
	})
	undoBtn = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), undo)
	redoBtn = widget.NewButtonWithIcon("Redo", theme.ContentRedoIcon(), redo)

	swatch := widget.NewLabel(b.Color())
	colorBtn := widget.NewButtonWithIcon("Color", theme.ColorPaletteIcon(), func() {
		picker := dialog.NewColorPicker("Brush Color", "Choose a drawing color", func(c color.Color) {
			hex := colorHex(c)
			if err := b.SetColor(hex); err != nil {
				dialog.ShowError(err, w)
				return
			}
			swatch.SetText(hex)
		}, w)
		picker.Advanced = true
		picker.Show()
	})

	sizeEntry := widget.NewSelectEntry(brushSizes)
	sizeEntry.SetText(strconv.FormatFloat(b.BrushSize(), 'f', -1, 64))
	applySize := func(s string) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return
		}
		got := b.SetBrushSize(v)
		if got != v {
			sizeEntry.SetText(strconv.FormatFloat(got, 'f', -1, 64))
		}
	}
	sizeEntry.OnChanged = applySize
	sizeEntry.OnSubmitted = applySize

	themeBtn = widget.NewButtonWithIcon(themeButtonLabel(b.DarkMode()), theme.ColorChromaticIcon(), func() {
		dark := b.ToggleDarkMode()
		l.Info("theme toggled", slog.Bool("dark", dark))
		refresh()
	})
	gridBtn = widget.NewButtonWithIcon(gridButtonLabel(b.GridVisible()), theme.GridIcon(), func() {
		sz := bc.Size()
		b.ToggleGrid(float64(sz.Width), float64(sz.Height))
		refresh()
	})
	saveBtn := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), saveCurrent)
	exportBtn := widget.NewButtonWithIcon("Export PNG", theme.DownloadIcon(), exportPNG)
	loadBtn := widget.NewButtonWithIcon("Load", theme.FolderOpenIcon(), openDialog)

	prevBtn := widget.NewButtonWithIcon("Previous", theme.NavigateBackIcon(), func() {
		b.PrevPage()
		refresh()
	})
	nextBtn := widget.NewButtonWithIcon("Next", theme.NavigateNextIcon(), func() {
		b.NextPage()
		refresh()
	})
	addPageBtn := widget.NewButtonWithIcon("New Page", theme.ContentAddIcon(), func() {
		b.AddPage()
		status.SetText("Page added")
		refresh()
	})

	toolbar := container.NewHBox(
		widget.NewLabel("Tools"), toolSelect, clearBtn, undoBtn, redoBtn,
		widget.NewSeparator(),
		colorBtn, swatch, widget.NewLabel("Size:"), sizeEntry, themeBtn, gridBtn,
		widget.NewSeparator(),
		saveBtn, exportBtn, loadBtn,
		widget.NewSeparator(),
		prevBtn, pageLabel, nextBtn, addPageBtn,
	)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, bc))

	// Menus
	recentMenu = fyne.NewMenu("Open Recent")
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = recentMenu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New", newBoard),
		fyne.NewMenuItem("Open…", openDialog),
		recentItem,
		fyne.NewMenuItem("Recent Boards…", func() { showRecentBoards(w, rec, openPath) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", saveCurrent),
		fyne.NewMenuItem("Save As…", saveAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Screen as PNG…", exportPNG),
		fyne.NewMenuItem("Render Page as PNG…", exportFile(".png", "page.png", b.RenderPNG)),
		fyne.NewMenuItem("Export Pages as PDF…", exportFile(".pdf", "whiteboard.pdf", b.ExportPDF)),
		fyne.NewMenuItem("Export Bundle (.zip)…", exportFile(bundle.Ext, "whiteboard"+bundle.Ext, b.ExportBundle)),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", undo),
		fyne.NewMenuItem("Redo", redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Canvas", func() { b.Clear(); refresh() }),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Toggle Grid", func() {
			sz := bc.Size()
			b.ToggleGrid(float64(sz.Width), float64(sz.Height))
			refresh()
		}),
		fyne.NewMenuItem("Toggle Dark Mode", func() { b.ToggleDarkMode(); refresh() }),
		fyne.NewMenuItem("Zoom In", func() {
			sz := bc.Size()
			b.Zoom(float64(sz.Width)/2, float64(sz.Height)/2, true)
			refresh()
		}),
		fyne.NewMenuItem("Zoom Out", func() {
			sz := bc.Size()
			b.Zoom(float64(sz.Width)/2, float64(sz.Height)/2, false)
			refresh()
		}),
	)
	pageMenu := fyne.NewMenu("Page",
		fyne.NewMenuItem("Previous", func() { b.PrevPage(); refresh() }),
		fyne.NewMenuItem("Next", func() { b.NextPage(); refresh() }),
		fyne.NewMenuItem("Add Page", func() { b.AddPage(); refresh() }),
	)
	aboutItem := fyne.NewMenuItem("About Go Whiteboard", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("%s\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			appTitle, version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	mainMenu = fyne.NewMainMenu(fileMenu, editMenu, viewMenu, pageMenu, fyne.NewMenu("About", aboutItem))
	w.SetMainMenu(mainMenu)
	reloadRecent()

	// Shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { undo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { redo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { saveCurrent() })

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		closeNow := func() {
			sz := w.Canvas().Size()
			prefs.SetInt("window.width", int(sz.Width))
			prefs.SetInt("window.height", int(sz.Height))
			if rec != nil {
				if err := rec.Close(); err != nil {
					l.Warn("close recent index", slog.Any("err", err))
				}
			}
			w.Close()
		}
		if !b.Dirty() {
			closeNow()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Quit without saving?", func(ok bool) {
			if ok {
				closeNow()
			}
		}, w)
	})

	if path != "" {
		openPath(path)
	}
	refresh()

	w.ShowAndRun()
	return nil
}

// refreshRecent rebuilds the Open Recent submenu from the index.
func refreshRecent(rec *storage.Recent, menu *fyne.Menu, mm *fyne.MainMenu, open func(string)) {
	if rec == nil || menu == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := rec.Prune(ctx)
	if err != nil {
		applog.WithComponent("ui").Warn("list recent failed", slog.Any("err", err))
		return
	}
	menu.Items = menu.Items[:0]
	for _, e := range entries {
		p := e.Path
		menu.Items = append(menu.Items, fyne.NewMenuItem(recentLabel(e), func() { open(p) }))
	}
	if len(menu.Items) == 0 {
		empty := fyne.NewMenuItem("(none)", nil)
		empty.Disabled = true
		menu.Items = append(menu.Items, empty)
	}
	if mm != nil {
		mm.Refresh()
	}
}

// showRecentBoards opens a dialog with a thumbnail card per remembered board.
func showRecentBoards(w fyne.Window, rec *storage.Recent, open func(string)) {
	if rec == nil {
		dialog.ShowInformation("Recent Boards", "The recent index is unavailable.", w)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := rec.Prune(ctx)
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	if len(entries) == 0 {
		dialog.ShowInformation("Recent Boards", "No recent boards.", w)
		return
	}
	var d dialog.Dialog
	cards := make([]fyne.CanvasObject, 0, len(entries))
	for _, e := range entries {
		p := e.Path
		cards = append(cards, recentCard(e, func() {
			d.Hide()
			open(p)
		}))
	}
	grid := container.NewGridWrap(fyne.NewSize(thumbW+20, thumbH+70), cards...)
	d = dialog.NewCustom("Recent Boards", "Close", container.NewVScroll(grid), w)
	d.Resize(fyne.NewSize(4*(thumbW+24), 2*(thumbH+80)))
	d.Show()
}

const thumbW, thumbH = 160, 120

// recentThumb decodes the stored thumbnail, or returns nil when there is none.
func recentThumb(e storage.RecentEntry) *canvas.Image {
	if len(e.Thumb) == 0 {
		return nil
	}
	img := canvas.NewImageFromReader(bytes.NewReader(e.Thumb), filepath.Base(e.Path)+".png")
	if img == nil {
		return nil
	}
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(thumbW, thumbH))
	return img
}

func recentCard(e storage.RecentEntry, open func()) fyne.CanvasObject {
	var preview fyne.CanvasObject
	if img := recentThumb(e); img != nil {
		preview = img
	} else {
		r := canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
		r.SetMinSize(fyne.NewSize(thumbW, thumbH))
		preview = r
	}
	btn := widget.NewButton(recentLabel(e), open)
	return container.NewBorder(nil, btn, nil, nil, preview)
}

// themeButtonLabel names the theme the button switches to.
func themeButtonLabel(dark bool) string {
	if dark {
		return "Light"
	}
	return "Dark"
}

// gridButtonLabel names the grid state the button switches to.
func gridButtonLabel(visible bool) string {
	if visible {
		return "Grid Off"
	}
	return "Grid On"
}

func recentLabel(e storage.RecentEntry) string {
	noun := "pages"
	if e.Pages == 1 {
		noun = "page"
	}
	return fmt.Sprintf("%s (%d %s)", filepath.Base(e.Path), e.Pages, noun)
}

func toolLabel(t board.Tool) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toolFromLabel(s string) board.Tool { return board.Tool(strings.ToLower(s)) }

// colorHex converts a picker color to #rrggbb. Alpha is dropped; the board
// does not draw translucent strokes.
func colorHex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return vector.Color{R: n.R, G: n.G, B: n.B, A: 255}.Hex()
}
