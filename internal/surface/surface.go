/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package surface defines the drawing surface contract used by the board and
// provides Scene, an in-memory retained-mode implementation. The GUI renders a
// Scene; headless code (tests, CLI export) drives the same type.
package surface

import (
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// ItemID identifies an item on a surface. Zero is never a valid id.
type ItemID uint64

// Well-known tags.
const (
	TagGrid      = "grid"
	TagTempShape = "temp_shape"
)

// Font describes a text item's face.
type Font struct {
	Family string
	Size   float64
	Weight string
	Slant  string
}

// Style carries every visual option an item can hold.
type Style struct {
	Fill     string
	Outline  string
	Width    float64
	CapStyle string
	Smooth   bool
	Text     string
	Font     Font
}

// Surface is the contract between the board logic and whatever draws the
// items. Coordinates are in surface units.
type Surface interface {
	CreateLine(coords []float64, st Style, tags ...string) ItemID
	CreateRectangle(coords []float64, st Style, tags ...string) ItemID
	CreateOval(coords []float64, st Style, tags ...string) ItemID
	CreateText(x, y float64, st Style, tags ...string) ItemID

	Delete(id ItemID) bool
	DeleteTag(tag string) int
	FindOverlapping(r vector.Rect) []ItemID
	Items() []ItemID

	Type(id ItemID) (domain.ElementType, bool)
	Coords(id ItemID) []float64
	Style(id ItemID) (Style, bool)
	SetStyle(id ItemID, st Style) bool
	Tags(id ItemID) []string
	HasTag(id ItemID, tag string) bool

	Scale(origin vector.Pt, sx, sy float64)
	Background() string
	SetBackground(color string)
}
