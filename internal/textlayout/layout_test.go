/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, "ABC")
	w2, h2 := Measure(BasicProvider{}, FontSpec{}, "ABC")
	if w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
	if w1 != 21 {
		t.Fatalf("basic face is 7px per glyph, got width %v", w1)
	}
}

func TestMeasure_MultiLine(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, "hello")
	w2, h2 := Measure(BasicProvider{}, FontSpec{}, "hi\nhello")
	if w1 != w2 {
		t.Fatalf("width should be the widest line: %v vs %v", w1, w2)
	}
	if h2 != 2*h1 {
		t.Fatalf("two lines should be twice as tall: %v vs %v", h2, h1)
	}
}

func TestGoFonts_ScaleWithSize(t *testing.T) {
	p := DefaultProvider()
	ws, hs := Measure(p, Spec("Helvetica", 12, "normal", "roman"), "Whiteboard")
	wl, hl := Measure(p, Spec("Helvetica", 24, "normal", "roman"), "Whiteboard")
	if ws <= 0 || hs <= 0 {
		t.Fatalf("expected positive size, got %vx%v", ws, hs)
	}
	if wl <= ws*1.8 || hl <= hs*1.5 {
		t.Fatalf("24pt should be about twice 12pt: %vx%v vs %vx%v", wl, hl, ws, hs)
	}
}

func TestGoFonts_BoldIsWider(t *testing.T) {
	p := DefaultProvider()
	wr, _ := Measure(p, Spec("Arial", 16, "normal", "roman"), "Meeting notes")
	wb, _ := Measure(p, Spec("Arial", 16, "bold", "roman"), "Meeting notes")
	if wb <= wr {
		t.Fatalf("bold should be wider than regular: %v <= %v", wb, wr)
	}
}

func TestLibrary_MonoFallback(t *testing.T) {
	lib := Default()
	f, k := lib.find(Spec("Courier", 12, "normal", "roman"))
	if f == nil || k.family != "go mono" {
		t.Fatalf("expected Go Mono for courier, got %+v", k)
	}
	f, k = lib.find(Spec("Nope", 12, "bold", "italic"))
	if f == nil || k.family != "go" || !k.bold || !k.italic {
		t.Fatalf("expected Go bold italic fallback, got %+v", k)
	}
}

func TestLoadTTF_MissingFile(t *testing.T) {
	if err := NewFontLibrary().LoadTTF("x", false, false, "/does/not/exist.ttf"); err == nil {
		t.Fatal("expected error for missing font file")
	}
}
