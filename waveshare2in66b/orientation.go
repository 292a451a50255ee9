// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"fmt"
	"image"
)

// Physical resolution of the panel, in pixels.
const (
	Width  = 152
	Height = 296
)

// Orientation selects how logical drawing coordinates map onto the physical
// pixel grid. The zero value is Landscape.
type Orientation uint8

const (
	// Landscape rotates the panel a quarter turn; the logical origin is the
	// physical bottom-left corner.
	Landscape Orientation = iota
	// Portrait draws in physical coordinates.
	Portrait
	// LandscapeFlipped is Landscape turned upside down.
	LandscapeFlipped
	// PortraitFlipped is Portrait turned upside down.
	PortraitFlipped
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "landscape"
	case Portrait:
		return "portrait"
	case LandscapeFlipped:
		return "landscape-flipped"
	case PortraitFlipped:
		return "portrait-flipped"
	}
	return fmt.Sprintf("Orientation(%d)", uint8(o))
}

// Set sets the Orientation from its name. It implements flag.Value.
func (o *Orientation) Set(s string) error {
	switch s {
	case "landscape":
		*o = Landscape
	case "portrait":
		*o = Portrait
	case "landscape-flipped":
		*o = LandscapeFlipped
	case "portrait-flipped":
		*o = PortraitFlipped
	default:
		return fmt.Errorf("unknown orientation %q: expected landscape, portrait, landscape-flipped or portrait-flipped", s)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(b []byte) error {
	return o.Set(string(b))
}

func (o Orientation) landscape() bool {
	return o == Landscape || o == LandscapeFlipped
}

// Width returns the logical width.
func (o Orientation) Width() int {
	if o.landscape() {
		return Height
	}
	return Width
}

// Height returns the logical height.
func (o Orientation) Height() int {
	if o.landscape() {
		return Width
	}
	return Height
}

// Bounds returns the logical drawing area.
func (o Orientation) Bounds() image.Rectangle {
	return image.Rect(0, 0, o.Width(), o.Height())
}

// Transform maps a logical point to its physical position. Points outside the
// logical area map outside the physical area.
func (o Orientation) Transform(p image.Point) image.Point {
	switch o {
	case Landscape:
		return image.Pt(p.Y, Height-1-p.X)
	case LandscapeFlipped:
		return image.Pt(Width-1-p.Y, p.X)
	case PortraitFlipped:
		return image.Pt(Width-1-p.X, Height-1-p.Y)
	}
	return p
}
