/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	"gowhiteboard/internal/storage"
)

func sampleDoc() domain.Document {
	doc := domain.NewDocument("1.0")
	doc.Pages[0].Elements = []domain.Element{
		{Type: domain.TypeLine, Coords: []float64{10, 10, 90, 40}, Fill: "black", Width: 3, CapStyle: "round", Smooth: true},
		{Type: domain.TypeText, Coords: []float64{50, 70}, Fill: "blue", Text: "Agenda", FontFamily: "Helvetica", FontSize: 14},
	}
	doc.Pages = append(doc.Pages, domain.Page{
		BackgroundColor: "white",
		Elements:        []domain.Element{{Type: domain.TypeOval, Coords: []float64{5, 5, 60, 40}, Outline: "red", Width: 2}},
	})
	doc.CurrentPageIndex = 1
	return doc
}

func TestExportAndImportBundle(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "share", "board.zip")
	if err := Export(sampleDoc(), zipPath, Options{Source: "/tmp/meeting.wb"}); err != nil {
		t.Fatalf("export bundle: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	for _, want := range []string{ManifestName, DocumentName, PageName(0), PageName(1)} {
		if !names[want] {
			t.Fatalf("missing %s in bundle: %v", want, names)
		}
	}

	doc, err := Import(zipPath)
	if err != nil {
		t.Fatalf("import bundle: %v", err)
	}
	if len(doc.Pages) != 2 || doc.CurrentPageIndex != 1 || doc.ElementCount() != 3 {
		t.Fatalf("unexpected document after import: %+v", doc)
	}
}

func TestUnpackWritesDocument(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "b.zip")
	if err := Export(sampleDoc(), zipPath, Options{}); err != nil {
		t.Fatalf("export bundle: %v", err)
	}
	out, err := Unpack(zipPath, filepath.Join(dir, "restored"))
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if filepath.Ext(out) != storage.Ext {
		t.Fatalf("expected %s extension, got %s", storage.Ext, out)
	}
	doc, err := storage.Open(out)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	if doc.ElementCount() != 3 {
		t.Fatalf("restored %d elements", doc.ElementCount())
	}
}

func TestExportBundle_ErrorArgs(t *testing.T) {
	if err := Export(sampleDoc(), "  ", Options{}); err == nil {
		t.Fatal("expected error for empty destination")
	}
	if err := Export(domain.Document{}, filepath.Join(t.TempDir(), "x.zip"), Options{}); !errors.Is(err, export.ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestImportBundle_MissingDocument(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()
	_ = f.Close()

	if _, err := Import(zipPath); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}
