// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tricolor implements the black/white/chromatic color model of three
// color e-paper panels and a framebuffer made of two bit planes.
//
// A three color panel stores two bits per pixel in separate RAM banks: the
// black/white bank (1 = white) and the chromatic bank (1 = ink, usually red or
// yellow). The chromatic bank wins over the black/white bank on the glass.
package tricolor

import (
	"fmt"
	"image/color"
)

// Color is one of the three colors a panel can show.
type Color uint8

const (
	// White is the paper color.
	White Color = iota
	// Black ink.
	Black
	// Chromatic is the third pigment, red on the 2.66" B panel.
	Chromatic
)

// rgba values used when a Color is handed to the image packages.
var rgba = [...]color.RGBA{
	White:     {0xFF, 0xFF, 0xFF, 0xFF},
	Black:     {0x00, 0x00, 0x00, 0xFF},
	Chromatic: {0xFF, 0x00, 0x00, 0xFF},
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	case Chromatic:
		return "Chromatic"
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

// Bits returns the bit written to the black/white and chromatic planes.
func (c Color) Bits() (bw, chromatic bool) {
	switch c {
	case Black:
		return false, false
	case Chromatic:
		return false, true
	default:
		return true, false
	}
}

// FromBits is the inverse of Bits. A set chromatic bit takes precedence.
func FromBits(bw, chromatic bool) Color {
	switch {
	case chromatic:
		return Chromatic
	case bw:
		return White
	default:
		return Black
	}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	if int(c) >= len(rgba) {
		c = White
	}
	return rgba[c].RGBA()
}

// RGBA8 returns the 8 bit per channel value of c, as used by tinygo drawing
// libraries.
func (c Color) RGBA8() color.RGBA {
	if int(c) >= len(rgba) {
		c = White
	}
	return rgba[c]
}

// Palette lists the three colors. Index i holds Color(i).
var Palette = color.Palette{White, Black, Chromatic}

// Model converts any color to the nearest of the three panel colors.
//
// Transparent pixels become White, the paper color.
var Model = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	if _, _, _, a := c.RGBA(); a < 0x8000 {
		return White
	}
	return Color(Palette.Index(c))
}

// Convert is a typed helper around Model.
func Convert(c color.Color) Color {
	return Model.Convert(c).(Color)
}
