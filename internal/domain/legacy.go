/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Older whiteboard files stored the active page as "current_page" and kept
// pages as {"objects":[{"type","coords","options":{...}}]} with widget option
// values encoded as strings. Decoding accepts both shapes; encoding always
// writes the current one.

type documentWire struct {
	Pages            []Page `json:"pages"`
	CurrentPageIndex *int   `json:"current_page_index"`
	CurrentPage      *int   `json:"current_page"`
	IsDarkMode       bool   `json:"is_dark_mode"`
	GridVisible      bool   `json:"grid_visible"`
	Version          string `json:"version"`
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var w documentWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*d = Document{Pages: w.Pages, IsDarkMode: w.IsDarkMode, GridVisible: w.GridVisible, Version: w.Version}
	switch {
	case w.CurrentPageIndex != nil:
		d.CurrentPageIndex = *w.CurrentPageIndex
	case w.CurrentPage != nil:
		d.CurrentPageIndex = *w.CurrentPage
	}
	return nil
}

type pageWire struct {
	Elements        []Element      `json:"elements"`
	Objects         []legacyObject `json:"objects"`
	BackgroundColor string         `json:"background_color"`
}

type legacyObject struct {
	Type    string         `json:"type"`
	Coords  []float64      `json:"coords"`
	Options map[string]any `json:"options"`
}

func (p *Page) UnmarshalJSON(b []byte) error {
	var w pageWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p.BackgroundColor = w.BackgroundColor
	p.Elements = w.Elements
	if len(w.Elements) == 0 && len(w.Objects) > 0 {
		p.Elements = make([]Element, 0, len(w.Objects))
		for i, o := range w.Objects {
			e, err := o.element()
			if err != nil {
				return fmt.Errorf("object %d: %w", i, err)
			}
			p.Elements = append(p.Elements, e)
		}
	}
	if p.Elements == nil {
		p.Elements = []Element{}
	}
	return nil
}

func (o legacyObject) element() (Element, error) {
	e := Element{Type: ElementType(strings.ToLower(o.Type)), Coords: o.Coords}
	e.Fill = optString(o.Options, "fill")
	e.Outline = optString(o.Options, "outline")
	if w, ok := optFloat(o.Options, "width"); ok {
		e.Width = w
	}
	if e.Type == TypeLine {
		e.CapStyle = optString(o.Options, "capstyle")
		e.Smooth = optBool(o.Options, "smooth")
	}
	if e.Type == TypeText {
		e.Text = optString(o.Options, "text")
		if fam, size, weight, slant, ok := parseFontSpec(optString(o.Options, "font")); ok {
			e.FontFamily, e.FontSize, e.FontWeight, e.FontSlant = fam, size, weight, slant
		}
	}
	return e, e.Validate()
}

func optString(m map[string]any, k string) string {
	if v, ok := m[k]; ok {
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

func optFloat(m map[string]any, k string) (float64, bool) {
	switch t := m[k].(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func optBool(m map[string]any, k string) bool {
	switch t := m[k].(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(t) {
		case "1", "true", "yes":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// parseFontSpec reads widget font strings such as "Helvetica 12 bold italic".
func parseFontSpec(spec string) (family string, size float64, weight, slant string, ok bool) {
	fields := strings.Fields(strings.Trim(spec, "{}"))
	if len(fields) == 0 {
		return "", 0, "", "", false
	}
	family = fields[0]
	weight, slant = "normal", "roman"
	for _, f := range fields[1:] {
		switch strings.ToLower(f) {
		case "bold":
			weight = "bold"
		case "italic":
			slant = "italic"
		default:
			if v, err := strconv.ParseFloat(f, 64); err == nil {
				size = v
			}
		}
	}
	return family, size, weight, slant, true
}
