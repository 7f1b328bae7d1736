/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gowhiteboard/internal/domain"
)

func sampleDocument() domain.Document {
	d := domain.NewDocument("1.0")
	d.Pages[0].Elements = []domain.Element{
		{Type: domain.TypeLine, Coords: []float64{0, 0, 10, 10}, Fill: "black", Width: 5, CapStyle: "round", Smooth: true},
		{Type: domain.TypeOval, Coords: []float64{5, 5, 25, 25}, Outline: "red", Width: 2},
	}
	d.Pages = append(d.Pages, domain.Page{Elements: []domain.Element{
		{Type: domain.TypeText, Coords: []float64{40, 40}, Fill: "blue", Text: "note", FontFamily: "Helvetica", FontSize: 14, FontWeight: "normal", FontSlant: "italic"},
	}, BackgroundColor: "white"})
	d.CurrentPageIndex = 1
	d.IsDarkMode = true
	return d
}

func TestSaveOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.wb")
	want := sampleDocument()
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(got.Pages) != 2 || got.CurrentPageIndex != 1 || !got.IsDarkMode || got.GridVisible {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.Pages[1].Elements[0].Text != "note" || got.Pages[0].Elements[1].Outline != "red" {
		t.Fatalf("elements lost: %+v", got.Pages)
	}
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.wb")
	if err := Save(path, sampleDocument()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "\n  \"pages\": [") {
		t.Fatalf("expected 2-space indentation:\n%s", s)
	}
	if !strings.Contains(s, `"current_page_index": 1`) || !strings.Contains(s, `"version": "1.0"`) {
		t.Fatalf("missing keys:\n%s", s)
	}
}

func TestSaveCreatesBackupOfPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.wb")
	if err := Save(path, sampleDocument()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := Backups(path); err == nil {
		t.Fatalf("first save must not create backups dir")
	}
	time.Sleep(5 * time.Millisecond)
	d := sampleDocument()
	d.GridVisible = true
	if err := Save(path, d); err != nil {
		t.Fatalf("second save: %v", err)
	}
	bks, err := Backups(path)
	if err != nil || len(bks) != 1 {
		t.Fatalf("backups=%v err=%v", bks, err)
	}
	prev, err := readDocument(bks[0])
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if prev.GridVisible {
		t.Fatalf("backup should hold the previous content")
	}
}

func TestOpenFallsBackToLatestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.wb")
	if err := Save(path, sampleDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := Save(path, sampleDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open should recover from backup: %v", err)
	}
	if len(got.Pages) != 2 {
		t.Fatalf("recovered %d pages", len(got.Pages))
	}
}

func TestOpenInvalidWithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wb")
	if err := os.WriteFile(path, []byte(`{"pages": "nope"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("want ErrInvalidDocument, got %v", err)
	}
}

func TestDecodeRejectsBadElements(t *testing.T) {
	cases := []string{
		`{"pages":[{"elements":[{"type":"star","coords":[0,0]}]}]}`,
		`{"pages":[{"elements":[{"type":"rectangle","coords":[0,0,1]}]}]}`,
		`{"is_dark_mode":false}`,
	}
	for _, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("%s: want ErrInvalidDocument, got %v", c, err)
		}
	}
}

func TestDecodeLegacyFile(t *testing.T) {
	in := `{
  "pages": [
    {"objects": [{"type": "line", "coords": [1, 2, 3, 4], "options": {"fill": "black", "width": "5.0"}}], "undo_stack": [], "redo_stack": []},
    {"objects": []}
  ],
  "current_page": 5,
  "is_dark_mode": false,
  "grid_visible": true
}`
	d, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.CurrentPageIndex != 1 {
		t.Fatalf("index not clamped from legacy key: %d", d.CurrentPageIndex)
	}
	if len(d.Pages[0].Elements) != 1 || d.Pages[0].Elements[0].Width != 5 {
		t.Fatalf("legacy objects: %+v", d.Pages[0])
	}
	if d.Version != "1.0" || !d.GridVisible {
		t.Fatalf("doc flags: %+v", d)
	}
}

func TestSavedDocumentConformsToSchema(t *testing.T) {
	b, err := json.Marshal(sampleDocument())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	res, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(b))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid() {
		for _, e := range res.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("document does not conform to schema")
	}
}

func TestExtensions(t *testing.T) {
	if EnsureExt("/tmp/a") != "/tmp/a.wb" || EnsureExt("/tmp/a.wbrd") != "/tmp/a.wbrd" {
		t.Fatalf("EnsureExt")
	}
	if !IsDocumentPath("x.WB") || !IsDocumentPath("x.wbrd") || IsDocumentPath("x.png") {
		t.Fatalf("IsDocumentPath")
	}
}
