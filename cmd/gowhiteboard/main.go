/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gowhiteboard/internal/bundle"
	"gowhiteboard/internal/config"
	"gowhiteboard/internal/crash"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/ui"
	"gowhiteboard/internal/version"
)

// openDoc is the document a command is working on, reported by the crash
// handler.
type openDoc struct {
	path string
	doc  domain.Document
}

func (o *openDoc) Document() domain.Document { return o.doc }
func (o *openDoc) Path() string              { return o.path }

func usage() {
	fmt.Println("Go Whiteboard")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gowhiteboard version|-v|--version            Show version")
	fmt.Println("  gowhiteboard info <file.wb>                   Print a summary of a board")
	fmt.Println("  gowhiteboard export <file.wb> <out.png> [n]   Render page n (default: active page) to PNG")
	fmt.Println("  gowhiteboard pdf <file.wb> <out.pdf>          Export every page to PDF")
	fmt.Println("  gowhiteboard bundle <file.wb> <out.zip>       Pack the board and page PNGs into a zip")
	fmt.Println("  gowhiteboard unbundle <in.zip> <out.wb>       Extract the board from a bundle")
	fmt.Println("  gowhiteboard recent [--thumbs <dir>]          List recently opened boards, optionally saving thumbnails")
	fmt.Println("  gowhiteboard ui [<file.wb>]                   Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	cfg, cerr := config.Load()
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cerr))
	}
	cur := &openDoc{doc: domain.NewDocument(version.FormatVersion)}
	defer crash.Recover(cur)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Go Whiteboard")
		fmt.Println(version.String())
	case "info":
		need(args, 3, "info requires <file.wb>")
		doc := mustOpen(l, cur, args[2])
		printInfo(cur.path, doc)
	case "export":
		need(args, 4, "export requires <file.wb> and <out.png>")
		doc := mustOpen(l, cur, args[2])
		page := -1
		if len(args) >= 5 {
			n, err := strconv.Atoi(args[4])
			if err != nil || n < 1 || n > len(doc.Pages) {
				fail(l, fmt.Errorf("page must be between 1 and %d, got %q", len(doc.Pages), args[4]))
			}
			page = n - 1
		}
		opt := export.PNGOptions{Page: page, Render: export.RenderOptions{
			Fit:         true,
			Grid:        doc.GridVisible,
			GridSpacing: cfg.Drawing.GridSpacing,
		}}
		if err := export.DocumentPNG(doc, args[3], opt); err != nil {
			fail(l, err)
		}
		fmt.Println("Exported", args[3])
	case "pdf":
		need(args, 4, "pdf requires <file.wb> and <out.pdf>")
		doc := mustOpen(l, cur, args[2])
		opt := export.PDFOptions{Grid: doc.GridVisible, Title: filepath.Base(cur.path)}
		if err := export.PDF(doc, args[3], opt); err != nil {
			fail(l, err)
		}
		fmt.Printf("Exported %d page(s) to %s\n", len(doc.Pages), args[3])
	case "bundle":
		need(args, 4, "bundle requires <file.wb> and <out.zip>")
		doc := mustOpen(l, cur, args[2])
		if err := bundle.Export(doc, args[3], bundle.Options{Source: cur.path}); err != nil {
			fail(l, err)
		}
		fmt.Println("Bundled", args[3])
	case "unbundle":
		need(args, 4, "unbundle requires <in.zip> and <out.wb>")
		out, err := bundle.Unpack(args[2], args[3])
		if err != nil {
			fail(l, err)
		}
		fmt.Println("Extracted", out)
	case "recent":
		thumbs, err := thumbsDir(args[2:])
		if err != nil {
			fmt.Println(err)
			usage()
			os.Exit(2)
		}
		listRecent(l, cfg, thumbs)
	case "ui":
		var path string
		if len(args) >= 3 {
			path = args[2]
		}
		if err := ui.Run(path); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

func fail(l *slog.Logger, err error) {
	l.Error("command failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func mustOpen(l *slog.Logger, cur *openDoc, path string) domain.Document {
	abs, _ := filepath.Abs(path)
	l.Info("open board", slog.String("path", abs))
	if !storage.IsDocumentPath(abs) {
		l.Warn("file does not carry a board extension", slog.String("want", storage.Ext))
	}
	doc, err := storage.Open(abs)
	if err != nil {
		fail(l, err)
	}
	cur.path, cur.doc = abs, doc
	return doc
}

func printInfo(path string, doc domain.Document) {
	fmt.Println("Board:", path)
	fmt.Println("Format version:", doc.Version)
	fmt.Printf("Pages: %d (active %d)\n", len(doc.Pages), doc.CurrentPageIndex+1)
	fmt.Printf("Dark mode: %v, grid: %v\n", doc.IsDarkMode, doc.GridVisible)
	for i, p := range doc.Pages {
		fmt.Printf("  Page %d: %d element(s), background %s%s\n", i+1, len(p.Elements), p.BackgroundColor, typeSummary(p))
	}
}

// typeSummary renders per-type counts like " [line:3 text:1]".
func typeSummary(p domain.Page) string {
	counts := map[domain.ElementType]int{}
	for _, e := range p.Elements {
		counts[e.Type]++
	}
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	s := " ["
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", k, counts[domain.ElementType(k)])
	}
	return s + "]"
}

// thumbsDir returns the directory given with --thumbs, or "" when absent.
func thumbsDir(args []string) (string, error) {
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--thumbs":
			if i+1 >= len(args) || args[i+1] == "" {
				return "", errors.New("--thumbs requires a directory")
			}
			return args[i+1], nil
		case strings.HasPrefix(a, "--thumbs="):
			if v := strings.TrimPrefix(a, "--thumbs="); v != "" {
				return v, nil
			}
			return "", errors.New("--thumbs requires a directory")
		default:
			return "", fmt.Errorf("unknown argument %q", a)
		}
	}
	return "", nil
}

func listRecent(l *slog.Logger, cfg config.AppConfig, thumbs string) {
	dir, err := config.Dir()
	if err != nil {
		fail(l, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := storage.OpenRecent(ctx, dir, cfg.General.RecentLimit)
	if err != nil {
		fail(l, err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			l.Warn("close recent index", slog.Any("err", err))
		}
	}()
	l.Debug("recent index", slog.String("db", rec.Path()))
	entries, err := rec.Prune(ctx)
	if err != nil {
		fail(l, err)
	}
	if len(entries) == 0 {
		fmt.Println("No recent boards.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %3d page(s)  %s\n", e.OpenedAt.Local().Format("2006-01-02 15:04"), e.Pages, e.Path)
	}
	if thumbs == "" {
		return
	}
	files, err := storage.WriteThumbs(entries, thumbs)
	if err != nil {
		fail(l, err)
	}
	fmt.Printf("Wrote %d thumbnail(s) to %s\n", len(files), thumbs)
}
